package server

// ConversationRequest is the inbound chat request. Temperature and threshold
// are pointers so an omitted field can fall back to the configured defaults;
// they only apply when the conversation is created.
type ConversationRequest struct {
	Text           string   `json:"text"`
	Temperature    *float64 `json:"temperature,omitempty"`
	Threshold      *float64 `json:"threshold,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// ConversationResponse echoes the resolved conversation id so the caller can
// continue the same session on subsequent calls.
type ConversationResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
}

// AuthLoginRequest carries the admin password for token issuance.
type AuthLoginRequest struct {
	Password string `json:"password"`
}

// TokenResponse returns a signed bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

package convo

import "fmt"

// RetrievalError reports that the retrieval gateway was unreachable or
// returned no results. A low-scoring match is not a RetrievalError; it
// degrades to sentinel evidence instead.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed: %v", e.Err) }
func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a completion client failure (transport error,
// provider error, or caller-imposed deadline). The in-flight turn has been
// rolled back when this is returned.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string { return fmt.Sprintf("generation failed: %v", e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// SequencingError reports Ask being called on a session that is still
// awaiting an answer for its previous turn.
type SequencingError struct {
	SessionID string
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("session %s already has a turn awaiting an answer", e.SessionID)
}

// ConfigurationError reports malformed generation configuration.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "invalid configuration: " + e.Reason }

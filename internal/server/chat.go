package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/convo"
)

// ChatHandler exposes the conversation engine over HTTP.
type ChatHandler struct {
	Registry *convo.Registry
	Defaults config.ConversationConfig
	Model    string
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("/process_text", h.process)
}

// process resolves or creates the session, asks the question and returns the
// extracted answer together with the conversation id to continue with.
func (h *ChatHandler) process(c echo.Context) error {
	var req ConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text required")
	}

	temperature := h.Defaults.DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	threshold := h.Defaults.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	cfg := convo.GenerationConfig{
		Temperature: temperature,
		Threshold:   threshold,
		Model:       h.Model,
		Stop:        []string{convo.StopSequence},
	}
	sess, id, err := h.Registry.ResolveOrCreate(req.ConversationID, cfg)
	if err != nil {
		return httpError(err)
	}

	answer, err := sess.Ask(c.Request().Context(), req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ConversationResponse{Response: answer, ConversationID: id})
}

// httpError maps the conversation error taxonomy onto HTTP status codes.
func httpError(err error) error {
	var cfgErr *convo.ConfigurationError
	if errors.As(err, &cfgErr) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var seqErr *convo.SequencingError
	if errors.As(err, &seqErr) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	var retErr *convo.RetrievalError
	if errors.As(err, &retErr) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	var genErr *convo.GenerationError
	if errors.As(err, &genErr) {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

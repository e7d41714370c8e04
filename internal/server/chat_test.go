package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/convo"
	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
)

type stubProvider struct {
	completion string
	err        error
}

func (p *stubProvider) Complete(ctx context.Context, prompt string, model string, temperature float64, stop []string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.completion, nil
}

func (p *stubProvider) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("not implemented")
}

func newTestServer(t *testing.T, llm *stubProvider, docs []retrieval.Document) (*echo.Echo, *convo.Registry) {
	t.Helper()
	gateway, err := retrieval.NewBleveGateway()
	if err != nil {
		t.Fatalf("bleve gateway: %v", err)
	}
	if len(docs) > 0 {
		if err := gateway.Upsert(context.Background(), docs); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	registry := convo.NewRegistry(
		config.RegistryConfig{MaxSessions: 8, SessionTTL: time.Hour, SweepInterval: time.Minute},
		gateway, llm, false,
	)
	e := echo.New()
	h := &ChatHandler{
		Registry: registry,
		Defaults: config.ConversationConfig{DefaultTemperature: 0.1, DefaultThreshold: 0.3},
		Model:    "gpt-4o",
	}
	h.Register(e.Group("/api"))
	return e, registry
}

func postJSON(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/process_text", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestProcessTextAnswers(t *testing.T) {
	llm := &stubProvider{completion: "Assistant Thought: ok.\nAssistant Response: Go is a compiled language."}
	e, registry := newTestServer(t, llm, []retrieval.Document{
		{ID: "1", Text: "Go is a compiled language.", Source: "https://go.dev"},
	})

	rec := postJSON(e, `{"text":"Is Go compiled?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatalf("response must carry the conversation id to continue with")
	}
	if resp.Response != " Go is a compiled language." {
		t.Fatalf("unexpected response: %q", resp.Response)
	}

	// continuing the conversation reuses the same session
	rec = postJSON(e, `{"text":"Is Go compiled?","conversation_id":"`+resp.ConversationID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("continuation failed: %d %s", rec.Code, rec.Body.String())
	}
	var second ConversationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.ConversationID != resp.ConversationID {
		t.Fatalf("continuation must keep the conversation id")
	}

	// both requests landed on the same session
	sess, _, err := registry.ResolveOrCreate(resp.ConversationID, convo.GenerationConfig{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.TurnCount() != 2 {
		t.Fatalf("continued conversation must hold 2 turns, got %d", sess.TurnCount())
	}
}

func TestProcessTextRequiresText(t *testing.T) {
	e, _ := newTestServer(t, &stubProvider{completion: "x"}, nil)
	rec := postJSON(e, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing text, got %d", rec.Code)
	}
}

func TestProcessTextInvalidThreshold(t *testing.T) {
	e, _ := newTestServer(t, &stubProvider{completion: "x"}, nil)
	rec := postJSON(e, `{"text":"q","threshold":1.5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for threshold outside [0,1], got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProcessTextRetrievalFailure(t *testing.T) {
	// empty index: the gateway reports no matches at all
	e, _ := newTestServer(t, &stubProvider{completion: "x"}, nil)
	rec := postJSON(e, `{"text":"q","threshold":0.3}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for retrieval failure, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestProcessTextGenerationFailure(t *testing.T) {
	llm := &stubProvider{err: errors.New("model overloaded")}
	e, _ := newTestServer(t, llm, []retrieval.Document{
		{ID: "1", Text: "Go is a compiled language.", Source: "https://go.dev"},
	})
	rec := postJSON(e, `{"text":"Is Go compiled?"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for generation failure, got %d: %s", rec.Code, rec.Body.String())
	}
}

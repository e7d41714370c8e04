package convo

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// GenerationConfig holds the per-session generation parameters. They are
// fixed at session creation; later requests naming the same conversation id
// with different parameters are ignored.
type GenerationConfig struct {
	Temperature float64
	// Threshold is the retrieval acceptance threshold in [0,1]
	Threshold float64
	Model     string
	Stop      []string
}

// Validate checks the configuration before a session is created.
func (c GenerationConfig) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("threshold %v outside [0,1]", c.Threshold)}
	}
	if c.Model == "" {
		return &ConfigurationError{Reason: "model not set"}
	}
	return nil
}

// Session owns one conversation's turn history. Turns are append-only and
// complete strictly in order: at most one turn is awaiting an answer at any
// time, and Ask serializes callers so steps never interleave.
type Session struct {
	id      string
	cfg     GenerationConfig
	gateway retrieval.Gateway
	llm     provider.Provider
	logger  *log.Logger
	debug   bool

	mu    sync.Mutex
	turns []Turn
}

// NewSession creates an idle session with no turns.
func NewSession(id string, cfg GenerationConfig, gateway retrieval.Gateway, llm provider.Provider, debug bool) *Session {
	return &Session{
		id:      id,
		cfg:     cfg,
		gateway: gateway,
		llm:     llm,
		logger:  log.New(log.Writer(), "[SESSION] ", log.LstdFlags),
		debug:   debug,
	}
}

// ID returns the conversation identifier owning this session.
func (s *Session) ID() string { return s.id }

// Config returns the immutable generation configuration.
func (s *Session) Config() GenerationConfig { return s.cfg }

// TurnCount returns the number of recorded turns, including an in-flight one.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Turns returns a copy of the turn history.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Ask retrieves evidence for the question, renders the transcript, generates
// a completion and returns the extracted answer. Retrieval and generation
// failures roll back the in-flight turn, leaving the session idle and the
// question unrecorded. Concurrent calls on the same session queue rather
// than run in parallel.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.turns); n > 0 && !s.turns[n-1].Answered {
		askFailuresTotal.WithLabelValues("sequencing").Inc()
		return "", &SequencingError{SessionID: s.id}
	}
	asksTotal.Inc()

	matches, err := s.gateway.Query(ctx, question, 1)
	if err != nil {
		askFailuresTotal.WithLabelValues("retrieval").Inc()
		return "", &RetrievalError{Err: err}
	}
	if len(matches) == 0 {
		askFailuresTotal.WithLabelValues("retrieval").Inc()
		return "", &RetrievalError{Err: retrieval.ErrNoMatches}
	}

	evidence := SelectEvidence(matches[0], s.cfg.Threshold)
	if evidence.Sentinel() {
		sentinelEvidenceTotal.Inc()
		s.logger.Printf("session %s: top score %v below threshold %v, using sentinel evidence", s.id, matches[0].Score, s.cfg.Threshold)
	}

	s.turns = append(s.turns, Turn{
		Question:  question,
		Evidence:  evidence,
		CreatedAt: time.Now(),
	})

	prompt := BuildPrompt(time.Now(), s.turns)
	if s.debug {
		s.logger.Printf("session %s prompt:\n%s", s.id, prompt)
	}

	raw, err := s.llm.Complete(ctx, prompt, s.cfg.Model, s.cfg.Temperature, s.cfg.Stop)
	if err != nil {
		s.rollback()
		askFailuresTotal.WithLabelValues("generation").Inc()
		return "", &GenerationError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		// cancelled after the turn was appended: roll back so the session
		// does not stay awaiting-answer forever
		s.rollback()
		askFailuresTotal.WithLabelValues("generation").Inc()
		return "", &GenerationError{Err: err}
	}
	if s.debug {
		s.logger.Printf("session %s completion:\n%s", s.id, raw)
	}

	answer := ExtractAnswer(raw)
	turn := &s.turns[len(s.turns)-1]
	turn.Completion = raw
	turn.Answer = answer
	turn.Answered = true
	turn.AnsweredAt = time.Now()
	return answer, nil
}

// rollback removes the open turn. Callers must hold s.mu.
func (s *Session) rollback() {
	s.turns = s.turns[:len(s.turns)-1]
}

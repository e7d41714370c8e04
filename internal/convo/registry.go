package convo

import (
	"container/list"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// Registry is the process-wide conversation id to session map. Creation is
// atomic per id, configuration is first-write-wins, and the map is bounded:
// least-recently-used sessions are evicted past MaxSessions, and sessions
// idle longer than SessionTTL are swept by a background ticker.
type Registry struct {
	gateway retrieval.Gateway
	llm     provider.Provider
	logger  *log.Logger
	debug   bool

	maxSessions   int
	sessionTTL    time.Duration
	sweepInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*registryEntry
	lru      *list.List // front = most recently used, values are ids

	stop chan struct{}
	done chan struct{}
}

type registryEntry struct {
	sess     *Session
	lastUsed time.Time
	elem     *list.Element
}

// NewRegistry creates an empty bounded registry.
func NewRegistry(cfg config.RegistryConfig, gateway retrieval.Gateway, llm provider.Provider, debug bool) *Registry {
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1024
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	return &Registry{
		gateway:       gateway,
		llm:           llm,
		logger:        log.New(log.Writer(), "[REGISTRY] ", log.LstdFlags),
		debug:         debug,
		maxSessions:   maxSessions,
		sessionTTL:    ttl,
		sweepInterval: sweep,
		sessions:      make(map[string]*registryEntry),
		lru:           list.New(),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// ResolveOrCreate returns the session owning id, creating it when unknown.
// An empty id gets a fresh unique identifier. When the id is already known
// the supplied configuration is ignored: session parameters are fixed at
// creation. The returned id is the one the caller must reuse to continue
// the conversation.
func (r *Registry) ResolveOrCreate(id string, cfg GenerationConfig) (*Session, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if entry, ok := r.sessions[id]; ok {
			entry.lastUsed = time.Now()
			r.lru.MoveToFront(entry.elem)
			return entry.sess, id, nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	if id == "" {
		id = uuid.NewString()
	}

	sess := NewSession(id, cfg, r.gateway, r.llm, r.debug)
	entry := &registryEntry{sess: sess, lastUsed: time.Now()}
	entry.elem = r.lru.PushFront(id)
	r.sessions[id] = entry
	activeSessions.Set(float64(len(r.sessions)))

	for len(r.sessions) > r.maxSessions {
		r.evictOldest()
	}
	return sess, id, nil
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Start launches the idle-session sweeper.
func (r *Registry) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep()
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper and waits for it to exit.
func (r *Registry) Stop() {
	close(r.stop)
	<-r.done
}

// sweep drops sessions idle longer than the TTL.
func (r *Registry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-r.sessionTTL)
	for id, entry := range r.sessions {
		if entry.lastUsed.Before(cutoff) {
			r.lru.Remove(entry.elem)
			delete(r.sessions, id)
			r.logger.Printf("expired idle session %s (%d turns)", id, entry.sess.TurnCount())
		}
	}
	activeSessions.Set(float64(len(r.sessions)))
}

// evictOldest removes the least recently used session. Callers must hold r.mu.
func (r *Registry) evictOldest() {
	back := r.lru.Back()
	if back == nil {
		return
	}
	id := back.Value.(string)
	r.lru.Remove(back)
	delete(r.sessions, id)
	activeSessions.Set(float64(len(r.sessions)))
	r.logger.Printf("evicted session %s (registry over %d entries)", id, r.maxSessions)
}

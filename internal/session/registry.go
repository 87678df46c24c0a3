package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/document"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
)

// Config holds session lifecycle settings.
type Config struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	AssistTimeout   time.Duration
	MaxSessions     int
}

// DefaultConfig returns the default session settings.
func DefaultConfig() Config {
	return Config{
		IdleTTL:         2 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		AssistTimeout:   assist.DefaultTimeout,
		MaxSessions:     1000,
	}
}

// Registry holds the live sessions.
type Registry struct {
	config   Config
	renderer *rendering.Renderer
	factory  assist.ClientFactory
	ids      document.IDGenerator
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithEntryIDs sets the generator used for document entry IDs.
func WithEntryIDs(g document.IDGenerator) RegistryOption {
	return func(r *Registry) { r.ids = g }
}

// NewRegistry creates an empty registry.
func NewRegistry(config Config, renderer *rendering.Renderer, factory assist.ClientFactory, opts ...RegistryOption) *Registry {
	r := &Registry{
		config:   config,
		renderer: renderer,
		factory:  factory,
		ids:      document.UUIDGenerator{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a session seeded with seed, or with the example document when seed is nil.
// When the registry is full the least recently used session is evicted.
func (r *Registry) Create(seed *types.Resume) *Session {
	initial := types.ExampleResume()
	if seed != nil {
		initial = *seed
	}

	id := uuid.NewString()
	doc := document.New(initial, document.WithIDGenerator(r.ids))
	s := newSession(id, doc, r.renderer, r.factory, r.config.AssistTimeout, r.logger)

	r.mu.Lock()
	var evicted *Session
	if r.config.MaxSessions > 0 && len(r.sessions) >= r.config.MaxSessions {
		evicted = r.oldestLocked()
		if evicted != nil {
			delete(r.sessions, evicted.ID)
		}
	}
	r.sessions[id] = s
	r.mu.Unlock()

	if evicted != nil {
		r.logger.Info("session evicted", "session", evicted.ID, "reason", "capacity")
		evicted.Close()
	}
	r.logger.Info("session created", "session", id)
	return s
}

// Get returns the session with id and marks it used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	s.Touch()
	return s, nil
}

// Delete closes and removes the session with id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return &NotFoundError{ID: id}
	}
	s.Close()
	r.logger.Info("session deleted", "session", id)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep closes every session idle since before now minus the TTL and returns how many it removed.
// Sessions with an open event stream are never idle.
func (r *Registry) Sweep(now time.Time) int {
	if r.config.IdleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-r.config.IdleTTL)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) && s.Events().Subscribers() == 0 {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.logger.Info("session expired", "session", s.ID)
		s.Close()
	}
	return len(expired)
}

// Run sweeps expired sessions every CleanupInterval until ctx is done, then closes all sessions.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.config.CleanupInterval
	if interval <= 0 {
		interval = DefaultConfig().CleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.Sweep(now)
		case <-ctx.Done():
			r.CloseAll()
			return nil
		}
	}
}

// CloseAll closes and removes every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (r *Registry) oldestLocked() *Session {
	var oldest *Session
	for _, s := range r.sessions {
		if oldest == nil || s.LastSeen().Before(oldest.LastSeen()) {
			oldest = s
		}
	}
	return oldest
}

// Package session owns the per-editor document contexts: one document, its assistant and its
// event stream per session, expired after an idle period.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/document"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
)

// PreviewEvent is the payload of a preview event.
type PreviewEvent struct {
	Revision uint64             `json:"revision"`
	Preview  *rendering.Preview `json:"preview"`
}

// Session is one editor's document context.
type Session struct {
	ID     string
	Doc    *document.Document
	Assist *assist.Assistant

	hub         *Hub
	unsubscribe func()
	createdAt   time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func newSession(id string, doc *document.Document, renderer *rendering.Renderer, factory assist.ClientFactory, timeout time.Duration, logger *slog.Logger) *Session {
	now := time.Now()
	s := &Session{
		ID:        id,
		Doc:       doc,
		hub:       NewHub(),
		createdAt: now,
		lastSeen:  now,
	}
	log := logger.With("session", id)

	s.Assist = assist.New(doc, factory,
		assist.WithTimeout(timeout),
		assist.WithLogger(log),
		assist.WithStateListener(func(sc assist.StateChange) {
			s.hub.Publish(Event{Type: EventAssist, Data: sc})
		}),
	)

	s.unsubscribe = doc.OnChange(func(revision uint64, snapshot types.Resume) {
		preview, err := renderer.Preview(snapshot)
		if err != nil {
			log.Error("failed to render preview", "revision", revision, "error", err)
			return
		}
		s.hub.Publish(Event{Type: EventPreview, Data: PreviewEvent{Revision: revision, Preview: preview}})
	})

	return s
}

// Events returns the session's event hub.
func (s *Session) Events() *Hub {
	return s.hub
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Close cancels in-flight assist calls and ends every event subscription.
func (s *Session) Close() {
	s.unsubscribe()
	s.Assist.Cancel()
	s.hub.Close()
}

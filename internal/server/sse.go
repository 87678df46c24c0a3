package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/session"
)

// sseKeepAlive is how often an idle event stream sends a comment line.
const sseKeepAlive = 15 * time.Second

// sseBuffer is the per-subscriber event buffer.
const sseBuffer = 16

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteComment sends an SSE comment line, used as a keep-alive
func (s *SSEWriter) WriteComment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]string{"error": message}) //nolint:errcheck
}

// handleEvents streams a session's preview and assist events until the client disconnects
// or the session closes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	events, unsubscribe := sess.Events().Subscribe(sseBuffer)
	defer unsubscribe()

	log := loggerFrom(r.Context())
	log.Info("event stream opened", "session", sess.ID)
	defer log.Info("event stream closed", "session", sess.ID)

	// The stream opens with the current preview so a reconnecting page catches up.
	preview, err := s.renderer.Preview(sess.Doc.Snapshot())
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	if err := sse.WriteEvent(session.EventPreview, session.PreviewEvent{Revision: sess.Doc.Revision(), Preview: preview}); err != nil {
		return
	}

	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				sse.WriteError("session closed")
				return
			}
			if err := sse.WriteEvent(ev.Type, ev.Data); err != nil {
				log.Warn("failed to write event", "error", err)
				return
			}
		case <-ticker.C:
			sess.Touch()
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		}
	}
}

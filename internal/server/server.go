// Package server provides the HTTP surface of the resume builder: the editor page, document
// mutation endpoints, assist endpoints, exports and the per-session event stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jonathan/resume-builder/internal/assist"
	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/session"
	"golang.org/x/sync/errgroup"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	config      Config
	registry    *session.Registry
	renderer    *rendering.Renderer
	rateLimiter *ratelimit.Limiter
	pdf         export.PDFRenderer
	factory     assist.ClientFactory
	logger      *slog.Logger
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	LaTeXTemplate   string
	EnablePDF       bool
	PDFTimeout      time.Duration
	ShutdownTimeout time.Duration
	LLM             *llm.Config
	Session         session.Config
	RateLimit       *ratelimit.Config
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClientFactory overrides how assist calls build their text-generation client.
func WithClientFactory(f assist.ClientFactory) Option {
	return func(s *Server) { s.factory = f }
}

// WithPDFRenderer sets the PDF renderer and enables the PDF export route.
func WithPDFRenderer(p export.PDFRenderer) Option {
	return func(s *Server) { s.pdf = p }
}

// New creates a new server instance
func New(cfg Config, opts ...Option) (*Server, error) {
	renderer, err := rendering.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s := &Server{
		config:   cfg,
		renderer: renderer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.factory == nil {
		s.factory = assist.NewClientFactory(cfg.LLM)
	}
	if s.pdf == nil && cfg.EnablePDF {
		s.pdf = export.NewChromePDF(cfg.PDFTimeout, s.logger)
	}

	rateConfig := cfg.RateLimit
	if rateConfig == nil {
		rateConfig = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rateConfig)

	s.registry = session.NewRegistry(cfg.Session, renderer, s.factory, session.WithLogger(s.logger))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(s.routes())))
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: event streams stay open for the life of the page.
		IdleTimeout: 60 * time.Second,
	}

	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	// Sessions
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.handleEditorPage)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /sessions/{id}/events", s.handleEvents)

	// Document
	mux.HandleFunc("GET /sessions/{id}/document", s.handleGetDocument)
	mux.HandleFunc("PUT /sessions/{id}/document", s.handlePutDocument)
	mux.HandleFunc("PUT /sessions/{id}/personal/{field}", s.handleSetPersonalField)
	mux.HandleFunc("PUT /sessions/{id}/theme", s.handleSetTheme)
	mux.HandleFunc("PUT /sessions/{id}/skills", s.handleSetSkills)

	// Experience and education entries
	mux.HandleFunc("POST /sessions/{id}/experience", s.handleAddExperience)
	mux.HandleFunc("PUT /sessions/{id}/experience/{entry}/{field}", s.handleUpdateExperience)
	mux.HandleFunc("DELETE /sessions/{id}/experience/{entry}", s.handleRemoveExperience)
	mux.HandleFunc("POST /sessions/{id}/education", s.handleAddEducation)
	mux.HandleFunc("PUT /sessions/{id}/education/{entry}/{field}", s.handleUpdateEducation)
	mux.HandleFunc("DELETE /sessions/{id}/education/{entry}", s.handleRemoveEducation)

	// Views and exports
	mux.HandleFunc("GET /sessions/{id}/preview", s.handleGetPreview)
	mux.HandleFunc("GET /sessions/{id}/resume.tex", s.handleResumeTex)
	if s.pdf != nil {
		mux.HandleFunc("GET /sessions/{id}/resume.pdf", s.handleResumePDF)
	}

	// Assist actions
	mux.HandleFunc("POST /sessions/{id}/assist/summary", s.handleAssistSummary)
	mux.HandleFunc("POST /sessions/{id}/assist/skills", s.handleAssistSkills)
	mux.HandleFunc("POST /sessions/{id}/assist/experience/{entry}/polish", s.handleAssistPolish)

	return mux
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the session registry.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return s.registry.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down server")

		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Stop rate limiter cleanup goroutine
		defer s.rateLimiter.Stop()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}

// Close releases background resources without serving. Used when Start was never called.
func (s *Server) Close() {
	s.rateLimiter.Stop()
	s.registry.CloseAll()
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail logs err and writes it with the status HTTPStatus assigns to it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	log := loggerFrom(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "status", status, "error", err)
	} else {
		log.Warn("request rejected", "status", status, "error", err)
	}
	s.errorResponse(w, status, err.Error())
}

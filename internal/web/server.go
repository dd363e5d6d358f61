// Package web serves the game over HTTP.
//
// Routes map one-to-one onto progression operations: level views enter a
// level, /submit_answer submits an answer, /ask_ai asks the level's guard,
// and /congratulations completes the run. Player state is kept in a
// server-side session store addressed by a signed cookie.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hurricanerix/infiltrate/internal/levels"
	"github.com/hurricanerix/infiltrate/internal/logging"
	"github.com/hurricanerix/infiltrate/internal/progress"
	"github.com/hurricanerix/infiltrate/internal/session"
)

//go:embed templates/* static/*
var embeddedFS embed.FS

const (
	// DefaultAddr is the default address the server listens on.
	DefaultAddr = "localhost:8080"

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 15 * time.Second

	// WriteTimeout is the maximum duration before timing out writes.
	// It must exceed the assistant timeout so fallback replies can be sent.
	WriteTimeout = 60 * time.Second

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout = 60 * time.Second

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 30 * time.Second

	// MaxRequestBodySize is the maximum size of POST request bodies (64KB).
	MaxRequestBodySize = 64 * 1024

	// MaxQuestionLength is the maximum length of a question (4KB).
	MaxQuestionLength = 4 * 1024
)

// Asker answers a player's question for a level. It never fails.
type Asker interface {
	Ask(ctx context.Context, level levels.ID, question string) string
}

// Deps are the collaborators a Server needs. All fields are required except
// Logger and AskPerMinute.
type Deps struct {
	Controller *progress.Controller
	Paths      *levels.Paths
	Assistant  Asker
	Sessions   *session.Store[progress.Session]
	Signer     *SessionSigner
	Logger     *logging.Logger
	// AskPerMinute caps questions per session. 0 uses MaxAskRequestsPerMinute.
	AskPerMinute int
}

// Server provides HTTP serving for the game.
type Server struct {
	addr      string
	server    *http.Server
	handler   http.Handler
	templates *template.Template

	controller  *progress.Controller
	registry    *levels.Registry
	paths       *levels.Paths
	assistant   Asker
	sessions    *session.Store[progress.Session]
	rateLimiter *rateLimiter
	logger      *logging.Logger
}

// NewServer creates a new Server listening on the given address.
// If addr is empty, DefaultAddr is used.
// Returns an error if a dependency is missing or templates cannot be parsed.
func NewServer(addr string, deps Deps) (*Server, error) {
	if addr == "" {
		addr = DefaultAddr
	}
	if deps.Controller == nil || deps.Paths == nil || deps.Assistant == nil ||
		deps.Sessions == nil || deps.Signer == nil {
		return nil, errors.New("web: missing server dependency")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	tmpl, err := template.ParseFS(embeddedFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		addr:        addr,
		templates:   tmpl,
		controller:  deps.Controller,
		registry:    deps.Controller.Registry(),
		paths:       deps.Paths,
		assistant:   deps.Assistant,
		sessions:    deps.Sessions,
		rateLimiter: newRateLimiter(deps.AskPerMinute),
		logger:      logger,
	}

	s.handler = s.routes(deps.Signer)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// routes sets up middleware and all HTTP routes.
func (s *Server) routes(signer *SessionSigner) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	static, err := fs.Sub(embeddedFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(signer, s.logger))

		r.Get(levels.StartPath, s.handleStart)
		r.Get(levels.LevelPathPrefix+"{token}", s.handleLevel)
		r.Post(levels.LevelPathPrefix+"{token}", s.handleLevel)
		r.Post("/ask_ai", s.handleAsk)
		r.Post("/submit_answer", s.handleSubmit)
		r.Get(levels.CompletedPath, s.handleCongratulations)
	})

	return r
}

// logRequests logs one line per request with its request ID.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.With("request_id", middleware.GetReqID(r.Context())).
			Debug("%s %s %d %dB %v", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}

// ListenAndServe starts the HTTP server and blocks until the context is cancelled.
// Returns an error if the server fails to start or encounters a non-graceful shutdown error.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.rateLimiter.startCleanup(ctx)

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting web server on http://%s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down web server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		s.logger.Info("Web server stopped")
		return nil

	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

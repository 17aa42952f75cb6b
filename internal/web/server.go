// Package web provides the operations HTTP server: health, metrics, run
// triggering and the run report.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/warehouse/internal/config"
	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/web/middleware"
)

// Runner runs the pipeline once. *core.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*core.RunSummary, error)
}

// Pinger reports whether the silver store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to the pipeline and its stores.
type Options struct {
	Runner   Runner
	Store    Pinger
	Recorder core.RunRecorder
	Errors   core.ErrorSink

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// RunTimeout bounds a run started over HTTP.
	RunTimeout time.Duration
}

// Server is the operations HTTP server.
type Server struct {
	cfg    config.ServerConfig
	opts   Options
	router *chi.Mux
	server *http.Server

	// runs collapses concurrent triggers into one pipeline run
	runs singleflight.Group

	// runCtx outlives requests; Shutdown cancels it to stop an in-flight run
	runCtx     context.Context
	cancelRuns context.CancelFunc
}

// NewServer creates a new Server instance.
func NewServer(cfg config.ServerConfig, opts Options) *Server {
	runCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:        cfg,
		opts:       opts,
		router:     chi.NewRouter(),
		runCtx:     runCtx,
		cancelRuns: cancel,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	// Pages
	s.router.Get("/runs/latest", s.handleLatestRunPage)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.With(middleware.APIKeyAuth(s.cfg.APIKeys)).Post("/runs", s.handleTriggerRun)
		r.Get("/runs/latest", s.handleLatestRun)
		r.Get("/errors", s.handleListErrors)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels any in-flight run and gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelRuns()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// writeJSON encodes v as JSON with the given status.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

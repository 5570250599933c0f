package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// Options configures the authenticated compute routes.
type Options struct {
	APIKeys   []string
	RateLimit float64 // requests per second
	RateBurst int
}

// Server exposes health, readiness, metrics, and the compute API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /v1 compute routes.
func NewServer(addr string, ready ReadinessChecker, api *ComputeAPI, opts Options, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	limiter := NewRateLimiter(opts.RateLimit, opts.RateBurst, api.metrics, logger)
	r.Route("/v1", func(r chi.Router) {
		r.Use(RequestLogger(logger))
		r.Use(BearerAuth(opts.APIKeys, api.metrics, logger))
		r.Use(limiter.Handler)

		r.Get("/algorithm", api.handleAlgorithm)
		r.Post("/corrections", api.handleCorrection)
		r.Post("/corrections/batch", api.handleBatch)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

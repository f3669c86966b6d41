// Package server exposes negflo over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness and build info
//	GET  /v1/modes    the smoothing modes
//	POST /v1/smooth   smooth columns sent as JSON
//	GET  /metrics     Prometheus metrics
//
// Smoothing goes through the same [pipeline.Runner] as the CLI, so cached
// artifacts are shared when both point at the same store.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hydrokit/negflo/pkg/pipeline"
)

// Default values for Config.
const (
	DefaultAddr         = ":8080"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 32 << 20
	shutdownTimeout     = 10 * time.Second
)

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	Timeout      time.Duration // Per-request deadline
	MaxBodyBytes int64         // Largest accepted request body
	Workers      int           // Columns smoothed in parallel per request
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Server is the negflo HTTP API.
type Server struct {
	cfg     Config
	runner  *pipeline.Runner
	metrics *Metrics
	logger  *log.Logger
	router  *chi.Mux
}

// New creates a server. A nil metrics disables the /metrics route.
func New(cfg Config, runner *pipeline.Runner, metrics *Metrics, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		cfg:     cfg,
		runner:  runner,
		metrics: metrics,
		logger:  logger,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Timeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/v1", func(r chi.Router) {
		r.Get("/modes", s.handleModes)
		r.Post("/smooth", s.handleSmooth)
	})
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

// Handler returns the server's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

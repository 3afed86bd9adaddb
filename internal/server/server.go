// Package server exposes the planners over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"curve-planner/internal/config"
	"curve-planner/internal/logging"
)

// Server serves the route, graph and fit endpoints.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	router  chi.Router
	metrics *metrics
	http    *http.Server
}

// NewServer creates a server with its routes registered. Metrics are kept in
// a registry owned by the server.
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		router:  chi.NewRouter(),
		metrics: newMetrics(registry),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)
	s.RegisterRoutes(s.router)
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	return s
}

// RegisterRoutes mounts the planning API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/route", s.instrument("route", s.handleRoute))
		r.Post("/graph", s.instrument("graph", s.handleGraph))
		r.Post("/fit", s.instrument("fit", s.handleFit))
	})
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and blocks until the server is shut
// down. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("address", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	return s.http.Shutdown(ctx)
}

// corsMiddleware adds CORS headers to allow frontend requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Package core provides the HTTP chassis for the prison-events service:
// health and build-info endpoints plus the authenticated queue-admin
// surface. The event pipeline itself does not flow through HTTP; this
// server exists for operators and the platform's probes.
package core

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"prison-events/internal/config"
	"prison-events/internal/types"
)

// DLQRetrier moves dead-lettered messages back onto the main queue.
// *queue.Transferer is the production implementation.
type DLQRetrier interface {
	RetryAll(ctx context.Context) (int, error)
}

// Server encapsulates the HTTP surface dependencies, allowing injection
// during testing.
type Server struct {
	Config       *config.Config
	Logger       types.Logger
	HealthProbes []HealthProbe
	Retrier      DLQRetrier

	router *chi.Mux
}

// NewServer prepares the server for route mounting. It fails fast on
// missing dependencies rather than panicking at request time.
func NewServer(cfg *config.Config, logger types.Logger, retrier DLQRetrier, probes []HealthProbe) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	s := &Server{
		Config:       cfg,
		Logger:       logger,
		HealthProbes: probes,
		Retrier:      retrier,
		router:       chi.NewRouter(),
	}
	s.mountRoutes()
	return s, nil
}

// Handler returns the router for http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) mountRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.HandleHealth)
	r.Get("/health/ping", s.HandlePing)
	r.Get("/info", s.HandleInfo)

	r.Route("/queue-admin", func(r chi.Router) {
		r.Use(s.adminAuth)
		r.Put("/retry-dlq", s.HandleRetryDLQ)
	})
}

// requestLogger logs one line per request with latency and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.Logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

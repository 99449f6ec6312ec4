package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"channel-relay-bot/internal/config"
)

// ReadinessProbe reports whether the platform connection is up.
type ReadinessProbe interface {
	Ready() bool
}

// Pinger is a dependency whose health is checked on /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes health, readiness, version and Prometheus metrics.
type Server struct {
	router *chi.Mux
	server *http.Server
	port   int
	log    *zerolog.Logger

	ready   ReadinessProbe
	checks  map[string]Pinger
	version string
	commit  string
}

type Option func(*Server)

func WithHealthCheck(name string, p Pinger) Option {
	return func(s *Server) { s.checks[name] = p }
}

func WithVersion(version, commit string) Option {
	return func(s *Server) { s.version, s.commit = version, commit }
}

func NewServer(cfg config.AdminConfig, ready ReadinessProbe, logger *zerolog.Logger, opts ...Option) *Server {
	l := logger.With().Str("component", "AdminHTTP").Logger()
	s := &Server{
		router:  chi.NewRouter(),
		port:    cfg.Port,
		log:     &l,
		ready:   ready,
		checks:  map[string]Pinger{},
		version: "dev",
		commit:  "unknown",
	}
	for _, o := range opts {
		o(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealthCheck)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/version", s.handleVersion)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Start blocks serving requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readyResponse{Status: "ready", Checks: map[string]string{}}
	code := http.StatusOK

	if s.ready != nil && !s.ready.Ready() {
		resp.Checks["session"] = "disconnected"
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["session"] = "running"
	}
	for name, p := range s.checks {
		if err := p.Ping(ctx); err != nil {
			resp.Checks[name] = "unhealthy"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}
	if code != http.StatusOK {
		resp.Status = "not_ready"
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version, "commit": s.commit})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

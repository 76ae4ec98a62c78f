// Package server exposes the operational HTTP surface: health, metrics and
// the session endpoints used by the platform's web tier.
package server

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/al-mudeer/resilience/internal/errors"
	"github.com/al-mudeer/resilience/internal/health"
	"github.com/al-mudeer/resilience/internal/ratelimit"
	"github.com/al-mudeer/resilience/internal/session"
	"github.com/al-mudeer/resilience/pkg/logger"
)

// Server holds the handler dependencies.
type Server struct {
	log      *slog.Logger
	sessions session.Store
	limiter  ratelimit.Limiter
	rules    *ratelimit.Rules
	checker  *health.Checker
	errs     *apperrors.Handler
}

// New constructs the HTTP server component.
func New(log *slog.Logger, sessions session.Store, limiter ratelimit.Limiter, rules *ratelimit.Rules, checker *health.Checker, errs *apperrors.Handler) *Server {
	if log == nil {
		log = slog.Default()
	}

	return &Server{
		log:      log,
		sessions: sessions,
		limiter:  limiter,
		rules:    rules,
		checker:  checker,
		errs:     errs,
	}
}

// Router builds the route table wrapped with correlation-ID logging.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDeleteSession)

	return logger.Middleware(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.checker.Check(r.Context())

	status := http.StatusOK
	if !health.Healthy(results) {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, results)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/al-mudeer/resilience/internal/errors"
)

type createSessionRequest struct {
	Data map[string]any `json:"data"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if allowed, retryAfter := s.allow(r); !allowed {
		seconds := int(retryAfter / time.Second)
		message, retryable := s.errs.Handle(ctx, apperrors.NewRateLimitError(seconds))

		w.Header().Set("Retry-After", fmt.Sprintf("%d", seconds))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: message, Retryable: retryable})
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	sessionID, err := s.sessions.Create(ctx, req.Data)
	if err != nil {
		message, retryable := s.errs.Handle(ctx, apperrors.NewConnectionError("session store", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message, Retryable: retryable})
		return
	}

	writeJSON(w, http.StatusCreated, createSessionResponse{SessionID: sessionID})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.PathValue("id")

	record, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		message, retryable := s.errs.Handle(ctx, apperrors.NewConnectionError("session store", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message, Retryable: retryable})
		return
	}

	if record == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.PathValue("id")

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		message, retryable := s.errs.Handle(ctx, apperrors.NewConnectionError("session store", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message, Retryable: retryable})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// allow applies the per-user rule keyed by client address. Missing or
// malformed rules fail open; the limiter never blocks its own service.
func (s *Server) allow(r *http.Request) (bool, time.Duration) {
	if s.limiter == nil || s.rules == nil {
		return true, 0
	}

	key := clientKey(r)
	if s.rules.IsWhitelisted(key) {
		return true, 0
	}

	limit, window, err := s.rules.GetPerUserLimit()
	if err != nil {
		s.log.Error("failed to load per-user rate limit", slog.Any("error", err))
		return true, 0
	}

	result, err := s.limiter.Check(r.Context(), key, limit, window)
	if err != nil && result == nil {
		s.log.Warn("rate limiter error", slog.String("key", key), slog.Any("error", err))
		return true, 0
	}

	if !result.Allowed {
		retryAfter, raErr := s.limiter.RetryAfter(r.Context(), key, limit, window)
		if raErr != nil {
			retryAfter = time.Second
		}
		s.log.Warn("rate limit exceeded", slog.String("key", key))
		return false, retryAfter
	}

	return true, 0
}

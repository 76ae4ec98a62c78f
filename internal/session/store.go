// Package session provides a short-lived session cache with TTL expiry,
// backed by either Redis or an in-process map.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/al-mudeer/resilience/pkg/config"
)

const defaultTTL = 24 * time.Hour

// Record is one active session. Exactly one record exists per session ID.
type Record struct {
	SessionID  string         `json:"session_id"`
	Data       map[string]any `json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	LastAccess time.Time      `json:"last_access"`
}

// Store is the session cache contract. Get returns (nil, nil) for a missing
// or expired session; Delete is idempotent.
type Store interface {
	Create(ctx context.Context, data map[string]any) (string, error)
	Get(ctx context.Context, sessionID string) (*Record, error)
	Delete(ctx context.Context, sessionID string) error
}

// Commander is the subset of the Redis client wrapper used by the store.
type Commander interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrRedisRequired reports a redis backend selected without a client.
var ErrRedisRequired = errors.New("session backend \"redis\" requires a configured redis client")

// New selects the backend from configuration. The choice is made exactly
// once; a store never switches backends at runtime.
func New(cfg config.SessionConfig, client Commander, log *slog.Logger) (Store, error) {
	if log == nil {
		log = slog.Default()
	}

	ttl := time.Duration(cfg.TTLHours) * time.Hour
	if ttl <= 0 {
		ttl = defaultTTL
	}

	switch cfg.Backend {
	case "redis":
		if client == nil {
			return nil, ErrRedisRequired
		}
		log.Info("session store using redis backend", slog.Duration("ttl", ttl))
		return NewRedisStore(client, ttl, log), nil
	case "memory", "":
		log.Info("session store using in-memory backend (single instance only)", slog.Duration("ttl", ttl))
		return NewMemoryStore(ttl, log), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

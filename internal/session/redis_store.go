package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis so multiple instances share them.
// Expiry is enforced by Redis itself; every read re-applies the TTL,
// giving sliding expiration.
type RedisStore struct {
	client Commander
	ttl    time.Duration
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore constructs a Redis-backed session store.
func NewRedisStore(client Commander, ttl time.Duration, log *slog.Logger) *RedisStore {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Create stores a new session record and returns its identifier.
func (s *RedisStore) Create(ctx context.Context, data map[string]any) (string, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := Record{
		SessionID:  sessionID,
		Data:       data,
		CreatedAt:  now,
		LastAccess: now,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl); err != nil {
		s.log.Error("failed to store session", slog.Any("error", err))
		return "", err
	}

	return sessionID, nil
}

// Get fetches the session, refreshes its last access time and re-applies
// the TTL from now.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := s.client.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		s.log.Error("failed to fetch session", slog.Any("error", err))
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		s.log.Error("failed to decode session", slog.Any("error", err))
		return nil, err
	}

	record.LastAccess = time.Now().UTC()

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(sessionID), payload, s.ttl); err != nil {
		s.log.Error("failed to refresh session ttl", slog.Any("error", err))
		return nil, err
	}

	return &record, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Delete(ctx, sessionKey(sessionID)); err != nil {
		s.log.Error("failed to delete session", slog.Any("error", err))
		return err
	}
	return nil
}

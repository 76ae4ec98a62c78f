package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a mutex-guarded map. It does not enforce
// expiry on reads; a periodic CleanupExpired pass removes stale records.
// Single-instance only: unsafe to share across processes.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Record
	ttl      time.Duration
	log      *slog.Logger
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an in-process session store.
func NewMemoryStore(ttl time.Duration, log *slog.Logger) *MemoryStore {
	if log == nil {
		log = slog.Default()
	}

	return &MemoryStore{
		sessions: make(map[string]*Record),
		ttl:      ttl,
		log:      log,
	}
}

// Create stores a new session record and returns its identifier.
func (s *MemoryStore) Create(_ context.Context, data map[string]any) (string, error) {
	sessionID, err := newSessionID()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	record := &Record{
		SessionID:  sessionID,
		Data:       data,
		CreatedAt:  now,
		LastAccess: now,
	}

	s.mu.Lock()
	s.sessions[sessionID] = record
	s.mu.Unlock()

	return sessionID, nil
}

// Get fetches the session and refreshes its last access time. Unlike the
// Redis backend there is no TTL refresh here; expiry is handled by
// CleanupExpired.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}

	record.LastAccess = time.Now().UTC()

	copied := *record
	return &copied, nil
}

// Delete removes the session. Deleting an absent session is not an error.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	return nil
}

// CleanupExpired removes records whose last access aged past the TTL and
// reports how many were dropped.
func (s *MemoryStore) CleanupExpired() int {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sessionID, record := range s.sessions {
		if now.Sub(record.LastAccess) > s.ttl {
			delete(s.sessions, sessionID)
			removed++
		}
	}

	if removed > 0 {
		s.log.Info("expired sessions removed", slog.Int("count", removed))
	}

	return removed
}

// Count reports the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/al-mudeer/resilience/pkg/metrics"
)

// Cleaner drives the memory store's expiry pass on a schedule. The Redis
// backend needs no cleaner since Redis expires keys on its own.
type Cleaner struct {
	store    *MemoryStore
	log      *slog.Logger
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(store *MemoryStore, log *slog.Logger, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		store:    store,
		log:      log,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c.store == nil || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("session cleaner stopped", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			removed := c.store.CleanupExpired()
			metrics.RecordSessionsExpired(removed)
			metrics.SetActiveSessions(c.store.Count())
		}
	}
}

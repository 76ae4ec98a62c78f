package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/al-mudeer/resilience/pkg/config"
)

const (
	defaultSweepInterval = time.Minute
	defaultCleanupWindow = time.Minute
)

type bucket struct {
	// grant timestamps, strictly increasing, pruned to the window on access
	grants []time.Time
}

// MemoryLimiter is the in-process sliding-window limiter. One mutex
// serializes every key, a deliberate simplicity-over-throughput tradeoff;
// per-call work is O(window size) and windows are expected to stay small.
// It is unsafe to share across multiple processes.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	log     *slog.Logger

	sweepInterval time.Duration
	defaultWindow time.Duration
	lastSweep     time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter returns an in-memory limiter tuned from configuration.
func NewMemoryLimiter(cfg config.RateLimitConfig, log *slog.Logger) *MemoryLimiter {
	if log == nil {
		log = slog.Default()
	}

	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = defaultSweepInterval
	}
	window := cfg.DefaultWindow
	if window <= 0 {
		window = defaultCleanupWindow
	}

	return &MemoryLimiter{
		buckets:       make(map[string]*bucket),
		log:           log,
		sweepInterval: sweep,
		defaultWindow: window,
		lastSweep:     time.Now(),
	}
}

// Check enforces a sliding-window limit for the provided key.
func (m *MemoryLimiter) Check(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweepLocked(now, windowStart)

	bkt := m.buckets[key]
	if bkt == nil {
		bkt = &bucket{grants: make([]time.Time, 0, 8)}
		m.buckets[key] = bkt
	}

	bkt.grants = keepRecent(bkt.grants, windowStart)
	count := len(bkt.grants)

	allowed := count < limit
	if allowed {
		bkt.grants = append(bkt.grants, now)
		count++
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   resetAt(bkt.grants, now, window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// RetryAfter reports the wait until the oldest grant ages out of the window.
func (m *MemoryLimiter) RetryAfter(_ context.Context, key string, limit int, window time.Duration) (time.Duration, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	bkt := m.buckets[key]
	if bkt == nil {
		return time.Second, nil
	}

	bkt.grants = keepRecent(bkt.grants, windowStart)
	if len(bkt.grants) < limit {
		return time.Second, nil
	}

	oldest := bkt.grants[0]
	wait := ceilSeconds(oldest.Add(window).Sub(now))
	if wait < time.Second {
		wait = time.Second
	}
	if wait > window {
		wait = window
	}

	return wait, nil
}

// Cleanup removes keys whose windows have fully drained. A non-positive
// maxAge falls back to the configured default window.
func (m *MemoryLimiter) Cleanup(maxAge time.Duration) {
	if maxAge <= 0 {
		maxAge = m.defaultWindow
	}

	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked(cutoff)
}

// Keys reports the number of tracked keys, for observability.
func (m *MemoryLimiter) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// maybeSweepLocked drops drained keys at most once per sweep interval,
// bounding memory held for inactive keys.
func (m *MemoryLimiter) maybeSweepLocked(now time.Time, windowStart time.Time) {
	if now.Sub(m.lastSweep) < m.sweepInterval {
		return
	}

	m.lastSweep = now
	m.sweepLocked(windowStart)
}

func (m *MemoryLimiter) sweepLocked(cutoff time.Time) {
	removed := 0
	for key, bkt := range m.buckets {
		bkt.grants = keepRecent(bkt.grants, cutoff)
		if len(bkt.grants) == 0 {
			delete(m.buckets, key)
			removed++
		}
	}

	if removed > 0 {
		m.log.Debug("rate limit keys swept", slog.Int("keys_removed", removed))
	}
}

func resetAt(grants []time.Time, now time.Time, window time.Duration) time.Time {
	if len(grants) == 0 {
		return now.Add(window)
	}
	return grants[0].Add(window)
}

func ceilSeconds(d time.Duration) time.Duration {
	return time.Duration(math.Ceil(d.Seconds())) * time.Second
}

// keepRecent drops timestamps at or before windowStart, preserving order.
func keepRecent(grants []time.Time, windowStart time.Time) []time.Time {
	firstIdx := 0
	for firstIdx < len(grants) && !grants[firstIdx].After(windowStart) {
		firstIdx++
	}

	if firstIdx == 0 {
		return grants
	}

	if firstIdx >= len(grants) {
		return grants[:0]
	}

	copy(grants, grants[firstIdx:])
	return grants[:len(grants)-firstIdx]
}

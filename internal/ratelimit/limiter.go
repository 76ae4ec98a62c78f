package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter describes a sliding-window rate-limiting strategy.
type Limiter interface {
	// Check admits or denies one request for key. A denied check never
	// mutates the key's window.
	Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)

	// RetryAfter reports how long the caller should wait before retrying.
	// Unseen or under-capacity keys yield one second; saturated keys yield
	// a value clamped to [1s, window].
	RetryAfter(ctx context.Context, key string, limit int, window time.Duration) (time.Duration, error)
}

// ErrLimitExceeded indicates the rate limit has been reached for the key.
var ErrLimitExceeded = errors.New("rate limit exceeded")

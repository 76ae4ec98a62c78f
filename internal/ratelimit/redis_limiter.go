package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter implements Limiter using Redis sorted sets, sharing one
// sliding window across every process that points at the same instance.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed Limiter implementation.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
	}
}

// Check evaluates the limit for key. The grant is only recorded when the
// request is admitted, so denied requests leave the window untouched.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	now := time.Now()
	windowStart := now.Add(-window)

	if limit <= 0 {
		return &Result{Allowed: false, Remaining: 0, ResetAt: now.Add(window)}, ErrLimitExceeded
	}

	redisKey := keyPrefix + key
	cutoff := scoreMillis(windowStart)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", cutoff))
	countCmd := pipe.ZCard(ctx, redisKey)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	count, err := countCmd.Result()
	if err != nil {
		l.log.Error("rate limiter failed to read count", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	allowed := count < int64(limit)
	if allowed {
		grant := l.client.TxPipeline()
		grant.ZAdd(ctx, redisKey, redis.Z{
			Score:  scoreMillis(now),
			Member: uuid.NewString(),
		})
		grant.Expire(ctx, redisKey, window*2)

		if _, err := grant.Exec(ctx); err != nil {
			l.log.Error("rate limiter failed to record grant", slog.String("key", key), slog.Any("error", err))
			return nil, err
		}
		count++
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}

	if !allowed {
		return result, ErrLimitExceeded
	}

	return result, nil
}

// RetryAfter reads the oldest grant in the window and reports the wait
// until it ages out, clamped to [1s, window].
func (l *RedisLimiter) RetryAfter(ctx context.Context, key string, limit int, window time.Duration) (time.Duration, error) {
	if l.client == nil {
		return 0, errors.New("redis client is not configured for rate limiting")
	}

	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := keyPrefix + key

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", scoreMillis(windowStart)))
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter retry-after pipeline failed", slog.String("key", key), slog.Any("error", err))
		return 0, err
	}

	count, err := countCmd.Result()
	if err != nil {
		return 0, err
	}
	if count < int64(limit) {
		return time.Second, nil
	}

	oldest, err := oldestCmd.Result()
	if err != nil || len(oldest) == 0 {
		return time.Second, err
	}

	oldestAt := time.UnixMilli(int64(oldest[0].Score))
	wait := ceilSeconds(oldestAt.Add(window).Sub(now))
	if wait < time.Second {
		wait = time.Second
	}
	if wait > window {
		wait = window
	}

	return wait, nil
}

func scoreMillis(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Millisecond)
}

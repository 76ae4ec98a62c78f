package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OnRetryFunc is invoked after each failed attempt, before the backoff wait.
// A panicking callback is recovered and logged, never propagated.
type OnRetryFunc func(attempt int, err error, delay time.Duration)

type options struct {
	log     *slog.Logger
	onRetry OnRetryFunc
}

// Option customizes a single retry invocation.
type Option func(*options)

// WithLogger routes retry diagnostics to the provided logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithOnRetry registers a callback fired before every backoff wait.
func WithOnRetry(cb OnRetryFunc) Option {
	return func(o *options) {
		o.onRetry = cb
	}
}

// ExhaustedError reports that every attempt failed. It unwraps to the last
// error so errors.Is and errors.As keep working against the cause.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempts in %s: %v", e.Attempts, e.Elapsed, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do runs fn up to policy.MaxRetries+1 times, waiting between attempts with
// exponential backoff. The wait suspends on a timer, so cancelling ctx aborts
// a pending backoff and returns ctx.Err immediately.
func Do(ctx context.Context, policy Policy, fn func() error, opts ...Option) error {
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	o := applyOptions(opts)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		retryAttemptsTotal.Inc()
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.backoff(attempt)
		notifyRetry(o, attempt+1, lastErr, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return exhausted(o, policy, start, lastErr)
}

// DoBlocking runs fn with the same attempt and delay sequence as Do, but
// sleeps on the calling goroutine and cannot be aborted once started. Only
// suitable for callers running on dedicated goroutines.
func DoBlocking(policy Policy, fn func() error, opts ...Option) error {
	if fn == nil {
		return nil
	}
	if err := policy.Validate(); err != nil {
		return err
	}

	o := applyOptions(opts)
	start := time.Now()

	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		retryAttemptsTotal.Inc()
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == policy.MaxRetries {
			break
		}

		delay := policy.backoff(attempt)
		notifyRetry(o, attempt+1, lastErr, delay)
		time.Sleep(delay)
	}

	return exhausted(o, policy, start, lastErr)
}

func applyOptions(opts []Option) options {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func notifyRetry(o options, attempt int, err error, delay time.Duration) {
	o.log.Warn("attempt failed, retrying",
		slog.Int("attempt", attempt),
		slog.Duration("delay", delay),
		slog.Any("error", err))

	if o.onRetry == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			o.log.Error("retry callback panicked",
				slog.Int("attempt", attempt),
				slog.Any("panic", r))
		}
	}()

	o.onRetry(attempt, err, delay)
}

func exhausted(o options, policy Policy, start time.Time, lastErr error) error {
	retryExhaustedTotal.Inc()

	exhaustedErr := &ExhaustedError{
		Attempts: policy.MaxRetries + 1,
		Elapsed:  time.Since(start),
		Err:      lastErr,
	}

	o.log.Error("all attempts failed",
		slog.Int("attempts", exhaustedErr.Attempts),
		slog.Duration("elapsed", exhaustedErr.Elapsed),
		slog.Any("error", lastErr))

	return exhaustedErr
}

package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     time.Second,
		GrowthFactor: 2.0,
		Jitter:       false,
	}
}

var errBoom = errors.New("boom")

func TestDo_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func() error {
		calls++
		return nil
	}, WithLogger(testLogger()))

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func() error {
		calls++
		if calls < 3 {
			return errBoom
		}
		return nil
	}, WithLogger(testLogger()))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func() error {
		calls++
		return errBoom
	}, WithLogger(testLogger()))

	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 4, exhausted.Attempts)
	assert.True(t, errors.Is(err, errBoom))
}

func TestDo_DelaySequenceWithoutJitter(t *testing.T) {
	var delays []time.Duration
	err := Do(context.Background(), testPolicy(), func() error {
		return errBoom
	}, WithLogger(testLogger()), WithOnRetry(func(_ int, _ error, delay time.Duration) {
		delays = append(delays, delay)
	}))

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
	}, delays)
}

func TestDo_DelayCappedAtMax(t *testing.T) {
	policy := Policy{
		MaxRetries:   4,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     25 * time.Millisecond,
		GrowthFactor: 2.0,
		Jitter:       false,
	}

	var delays []time.Duration
	err := Do(context.Background(), policy, func() error {
		return errBoom
	}, WithLogger(testLogger()), WithOnRetry(func(_ int, _ error, delay time.Duration) {
		delays = append(delays, delay)
	}))

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		25 * time.Millisecond,
		25 * time.Millisecond,
	}, delays)
}

func TestDo_JitterStaysWithinBounds(t *testing.T) {
	policy := testPolicy()
	policy.Jitter = true

	var delays []time.Duration
	err := Do(context.Background(), policy, func() error {
		return errBoom
	}, WithLogger(testLogger()), WithOnRetry(func(_ int, _ error, delay time.Duration) {
		delays = append(delays, delay)
	}))

	require.Error(t, err)
	require.Len(t, delays, 3)

	bases := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	for i, delay := range delays {
		assert.GreaterOrEqual(t, delay, bases[i]/2, "delay %d below half the base", i)
		assert.LessOrEqual(t, delay, bases[i], "delay %d above the base", i)
	}
}

func TestDo_ContextCancelAbortsBackoff(t *testing.T) {
	policy := Policy{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     time.Second,
		GrowthFactor: 2.0,
		Jitter:       false,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	start := time.Now()
	err := Do(ctx, policy, func() error {
		calls++
		return errBoom
	}, WithLogger(testLogger()))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), 300*time.Millisecond)
}

func TestDo_CanceledContextShortCircuits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, testPolicy(), func() error {
		calls++
		return nil
	}, WithLogger(testLogger()))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestDo_CallbackPanicIsRecovered(t *testing.T) {
	calls := 0
	err := Do(context.Background(), testPolicy(), func() error {
		calls++
		return errBoom
	}, WithLogger(testLogger()), WithOnRetry(func(int, error, time.Duration) {
		panic("callback exploded")
	}))

	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var exhausted *ExhaustedError
	assert.ErrorAs(t, err, &exhausted)
}

func TestDo_InvalidPolicyRejected(t *testing.T) {
	policy := testPolicy()
	policy.GrowthFactor = 1.0

	calls := 0
	err := Do(context.Background(), policy, func() error {
		calls++
		return nil
	}, WithLogger(testLogger()))

	assert.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestDoBlocking_MatchesDoDelaySequence(t *testing.T) {
	policy := testPolicy()

	var suspending []time.Duration
	_ = Do(context.Background(), policy, func() error {
		return errBoom
	}, WithLogger(testLogger()), WithOnRetry(func(_ int, _ error, delay time.Duration) {
		suspending = append(suspending, delay)
	}))

	var blocking []time.Duration
	_ = DoBlocking(policy, func() error {
		return errBoom
	}, WithLogger(testLogger()), WithOnRetry(func(_ int, _ error, delay time.Duration) {
		blocking = append(blocking, delay)
	}))

	assert.Equal(t, suspending, blocking)
}

func TestDoBlocking_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := DoBlocking(testPolicy(), func() error {
		calls++
		return errBoom
	}, WithLogger(testLogger()))

	require.Error(t, err)
	assert.Equal(t, 4, calls)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, errBoom, exhausted.Err)
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr bool
	}{
		{"defaults are valid", func(*Policy) {}, false},
		{"negative retries", func(p *Policy) { p.MaxRetries = -1 }, true},
		{"zero retries allowed", func(p *Policy) { p.MaxRetries = 0 }, false},
		{"zero initial delay", func(p *Policy) { p.InitialDelay = 0 }, true},
		{"max below initial", func(p *Policy) { p.MaxDelay = time.Millisecond }, true},
		{"growth factor of one", func(p *Policy) { p.GrowthFactor = 1.0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			tt.mutate(&policy)

			err := policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdown_RunsAllHooks(t *testing.T) {
	s := NewShutdown(testLogger())

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		s.Register("hook", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}

	require.NoError(t, s.Execute(context.Background()))
	assert.Equal(t, int32(3), ran.Load())
}

func TestShutdown_CollectsHookErrors(t *testing.T) {
	s := NewShutdown(testLogger())

	var ran atomic.Int32
	s.Register("redis", func(context.Context) error {
		ran.Add(1)
		return errors.New("close failed")
	})
	s.Register("http", func(context.Context) error {
		ran.Add(1)
		return nil
	})

	err := s.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, int32(2), ran.Load())
}

func TestShutdown_NoHooks(t *testing.T) {
	s := NewShutdown(testLogger())
	assert.NoError(t, s.Execute(context.Background()))
}

func TestShutdown_IgnoresNilHook(t *testing.T) {
	s := NewShutdown(testLogger())
	s.Register("noop", nil)
	assert.NoError(t, s.Execute(context.Background()))
}

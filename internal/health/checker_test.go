package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChecker_AllHealthy(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("store", CheckableFunc(func(context.Context) error { return nil }))
	c.AddCheck("queue", CheckableFunc(func(context.Context) error { return nil }))

	results := c.Check(context.Background())

	assert.Equal(t, map[string]string{"store": "OK", "queue": "OK"}, results)
	assert.True(t, Healthy(results))
}

func TestChecker_ReportsFailure(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("store", CheckableFunc(func(context.Context) error { return nil }))
	c.AddCheck("queue", CheckableFunc(func(context.Context) error { return errors.New("broker down") }))

	results := c.Check(context.Background())

	assert.Equal(t, "OK", results["store"])
	assert.Equal(t, "broker down", results["queue"])
	assert.False(t, Healthy(results))
}

func TestChecker_IgnoresInvalidRegistrations(t *testing.T) {
	c := NewChecker(testLogger())
	c.AddCheck("", CheckableFunc(func(context.Context) error { return nil }))
	c.AddCheck("nil-check", nil)

	assert.Empty(t, c.Check(context.Background()))
}

func TestRedisChecker_Ping(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	checker := NewRedisChecker(client)
	require.NoError(t, checker.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, checker.HealthCheck(context.Background()))
}

func TestRedisChecker_NilPinger(t *testing.T) {
	checker := NewRedisChecker(nil)
	assert.Error(t, checker.HealthCheck(context.Background()))
}

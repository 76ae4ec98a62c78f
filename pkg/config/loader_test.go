package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, env, content string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", env+".yaml"), []byte(content), 0o644))

	t.Chdir(dir)
	t.Setenv("APP_ENV", env)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	writeConfigFile(t, "development", "log:\n  level: debug\n")

	cfg, v, err := Load()
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, 24, cfg.Session.TTLHours)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
	assert.Equal(t, 60*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.GrowthFactor)
	assert.True(t, cfg.Retry.Jitter)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.Breaker.RecoveryTimeout)
}

func TestLoad_ReadsValues(t *testing.T) {
	writeConfigFile(t, "production", `
http_port: "9090"
session:
  backend: redis
  ttl_hours: 12
rate_limit:
  per_user:
    limit: 30
    window: 1m
redis:
  addr: "redis:6379"
`)

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, 12, cfg.Session.TTLHours)
	assert.Equal(t, 30, cfg.RateLimit.PerUser.Limit)
	assert.Equal(t, "1m", cfg.RateLimit.PerUser.Window)
	assert.True(t, cfg.Redis.Enabled())
}

func TestLoad_RejectsInvalidBackend(t *testing.T) {
	writeConfigFile(t, "development", "session:\n  backend: dynamodb\n")

	_, _, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidLogLevel(t *testing.T) {
	writeConfigFile(t, "development", "log:\n  level: shout\n")

	_, _, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "development")

	_, _, err := Load()
	assert.Error(t, err)
}

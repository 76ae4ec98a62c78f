package config

import (
	"time"

	"github.com/al-mudeer/resilience/pkg/redis"
)

// Config holds runtime configuration for the Al-Mudeer resilience core.
type Config struct {
	AppEnv   string
	HTTPPort string `mapstructure:"http_port" validate:"required"`

	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     redis.Config    `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Breaker   BreakerConfig   `mapstructure:"breaker"`
}

// LogConfig controls slog output, masking and optional file rotation.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"`

	// File enables a rotating file sink when non-empty.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `mapstructure:"dsn"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate"`
}

// SessionConfig selects the session store backend and its TTL. The backend
// is fixed at construction time and never switched at runtime.
type SessionConfig struct {
	Backend         string        `mapstructure:"backend" validate:"required,oneof=redis memory"`
	TTLHours        int           `mapstructure:"ttl_hours" validate:"min=1"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitRule pairs a request budget with its window.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// ChannelRules holds outbound dispatch limits per messaging channel.
type ChannelRules struct {
	Email    RateLimitRule `mapstructure:"email"`
	Telegram RateLimitRule `mapstructure:"telegram"`
	WhatsApp RateLimitRule `mapstructure:"whatsapp"`
}

// RateLimitConfig holds per-consumer limits plus limiter tuning knobs.
type RateLimitConfig struct {
	Global    RateLimitRule `mapstructure:"global"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Typing    RateLimitRule `mapstructure:"typing"`
	Channels  ChannelRules  `mapstructure:"channels"`
	Whitelist []string      `mapstructure:"whitelist"`

	// SweepInterval bounds how often the in-memory limiter drops idle keys.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// DefaultWindow is the window used by externally triggered cleanup.
	DefaultWindow time.Duration `mapstructure:"default_window"`
	// RedisCleanupInterval drives the background sweep of redis zset keys.
	RedisCleanupInterval time.Duration `mapstructure:"redis_cleanup_interval"`
}

// RetryConfig mirrors retry.Policy for configuration loading.
type RetryConfig struct {
	MaxRetries   int           `mapstructure:"max_retries" validate:"min=0"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	GrowthFactor float64       `mapstructure:"growth_factor" validate:"omitempty,gt=1"`
	Jitter       bool          `mapstructure:"jitter"`
}

// BreakerConfig configures a circuit breaker instance.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"omitempty,min=1"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
}

// Package logger builds the application slog.Logger with masking,
// optional file rotation and optional Sentry forwarding.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	sentryslog "github.com/getsentry/sentry-go/slog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/al-mudeer/resilience/pkg/config"
)

// New constructs the root logger from configuration. When sentryEnabled is
// true, warn and error records are forwarded to Sentry in addition to the
// console/file sink. Sensitive attributes are masked before any sink sees
// them.
func New(cfg config.LogConfig, sentryEnabled bool) *slog.Logger {
	var writer io.Writer = os.Stdout
	if cfg.File != "" {
		writer = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		handler = slog.NewTextHandler(writer, opts)
	}

	if sentryEnabled {
		sentryHandler := sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelError},
			LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
		}.NewSentryHandler(context.Background())

		handler = NewFanoutHandler(handler, sentryHandler)
	}

	return slog.New(NewMaskingHandler(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

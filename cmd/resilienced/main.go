package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	apperrors "github.com/al-mudeer/resilience/internal/errors"
	"github.com/al-mudeer/resilience/internal/health"
	"github.com/al-mudeer/resilience/internal/ratelimit"
	"github.com/al-mudeer/resilience/internal/server"
	"github.com/al-mudeer/resilience/internal/session"
	"github.com/al-mudeer/resilience/pkg/config"
	"github.com/al-mudeer/resilience/pkg/graceful"
	"github.com/al-mudeer/resilience/pkg/lifecycle"
	"github.com/al-mudeer/resilience/pkg/logger"
	_ "github.com/al-mudeer/resilience/pkg/metrics"
	redispkg "github.com/al-mudeer/resilience/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("resilience core failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.AppEnv,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		})
		if err != nil {
			slog.Warn("sentry init failed, continuing without error reporting", slog.Any("error", err))
			sentryEnabled = false
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	log := logger.New(cfg.Log, sentryEnabled)
	slog.SetDefault(log)

	log.Info("starting al-mudeer resilience core",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTPPort),
		slog.String("session_backend", cfg.Session.Backend))

	var redisClient *redispkg.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redispkg.New(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}

	var commander session.Commander
	if redisClient != nil {
		commander = redispkg.NewMetricsClient(redisClient)
	}

	sessions, err := session.New(cfg.Session, commander, log)
	if err != nil {
		return err
	}

	memLimiter := ratelimit.NewMemoryLimiter(cfg.RateLimit, log)
	var limiter ratelimit.Limiter = memLimiter
	if redisClient != nil {
		limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(redisClient.Client, log), memLimiter, log)
	}

	rules := ratelimit.NewRules(cfg.RateLimit)
	config.Watch(v, log, func(next *config.Config) {
		rules.Update(next.RateLimit)
	})

	startCleaners(ctx, cfg, log, sessions, memLimiter, redisClient)

	checker := health.NewChecker(log)
	if redisClient != nil {
		checker.AddCheck("redis", health.NewRedisChecker(redisClient.Client))
	}
	checker.AddCheck("session_store", health.CheckableFunc(func(ctx context.Context) error {
		probeID, err := sessions.Create(ctx, map[string]any{"probe": true})
		if err != nil {
			return err
		}
		return sessions.Delete(ctx, probeID)
	}))

	errHandler := apperrors.NewHandler(log, sentryEnabled)
	srv := server.New(log, sessions, limiter, rules, checker, errHandler)
	httpSrv := graceful.NewServer(log, ":"+cfg.HTTPPort, srv.Router(), 10*time.Second)

	shutdown := lifecycle.NewShutdown(log)
	if redisClient != nil {
		shutdown.Register("redis", func(context.Context) error {
			return redisClient.Close()
		})
	}

	serveErr := httpSrv.ListenAndServe(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("al-mudeer resilience core stopped")
	return serveErr
}

// startCleaners launches the background expiry loops. All of them stop when
// ctx is cancelled.
func startCleaners(ctx context.Context, cfg *config.Config, log *slog.Logger, sessions session.Store, memLimiter *ratelimit.MemoryLimiter, redisClient *redispkg.Client) {
	if mem, ok := sessions.(*session.MemoryStore); ok {
		go session.NewCleaner(mem, log, cfg.Session.CleanupInterval).Run(ctx)
	}

	if redisClient != nil {
		go ratelimit.NewCleaner(redisClient.Client, log, cfg.RateLimit.RedisCleanupInterval, cfg.RateLimit.DefaultWindow).Run(ctx)
	}

	go func() {
		interval := cfg.RateLimit.SweepInterval
		if interval <= 0 {
			interval = time.Minute
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				memLimiter.Cleanup(cfg.RateLimit.DefaultWindow)
			}
		}
	}()
}

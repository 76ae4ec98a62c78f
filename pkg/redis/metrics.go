package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

var (
	redisCommandsTotal   *prometheus.CounterVec
	redisErrorsTotal     *prometheus.CounterVec
	redisMissesTotal     *prometheus.CounterVec
	redisCommandDuration *prometheus.HistogramVec
)

func init() {
	redisCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_commands_total",
			Help: "Total number of Redis commands by operation and keyspace.",
		},
		[]string{"op", "keyspace"},
	)
	redisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_command_errors_total",
			Help: "Total number of failed Redis commands by operation and keyspace.",
		},
		[]string{"op", "keyspace"},
	)
	redisMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_key_misses_total",
			Help: "Total number of reads that found no key, by keyspace.",
		},
		[]string{"keyspace"},
	)
	redisCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_command_duration_seconds",
			Help:    "Redis command latency distributions by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	prometheus.MustRegister(redisCommandsTotal, redisErrorsTotal, redisMissesTotal, redisCommandDuration)
}

// keyspaceFor buckets keys by their prefix so dashboards can split session
// traffic from rate-limit traffic.
func keyspaceFor(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		switch prefix := key[:i]; prefix {
		case "session", "ratelimit":
			return prefix
		}
	}
	return "other"
}

// MetricsClient wraps Client to collect Prometheus metrics. A read that
// finds no key counts as a miss, not an error, so session lookups of
// expired IDs do not pollute the error rate.
type MetricsClient struct {
	next *Client
}

// NewMetricsClient creates an instrumented Redis client.
func NewMetricsClient(next *Client) *MetricsClient {
	return &MetricsClient{next: next}
}

// Get instruments Client.Get.
func (m *MetricsClient) Get(ctx context.Context, key string) (string, error) {
	keyspace := keyspaceFor(key)
	timer := prometheus.NewTimer(redisCommandDuration.WithLabelValues("get"))
	result, err := m.next.Get(ctx, key)
	timer.ObserveDuration()

	redisCommandsTotal.WithLabelValues("get", keyspace).Inc()
	if errors.Is(err, goredis.Nil) {
		redisMissesTotal.WithLabelValues(keyspace).Inc()
	} else if err != nil {
		redisErrorsTotal.WithLabelValues("get", keyspace).Inc()
	}

	return result, err
}

// Set instruments Client.Set.
func (m *MetricsClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	keyspace := keyspaceFor(key)
	timer := prometheus.NewTimer(redisCommandDuration.WithLabelValues("set"))
	err := m.next.Set(ctx, key, value, ttl)
	timer.ObserveDuration()

	redisCommandsTotal.WithLabelValues("set", keyspace).Inc()
	if err != nil {
		redisErrorsTotal.WithLabelValues("set", keyspace).Inc()
	}

	return err
}

// Delete instruments Client.Delete.
func (m *MetricsClient) Delete(ctx context.Context, key string) error {
	keyspace := keyspaceFor(key)
	timer := prometheus.NewTimer(redisCommandDuration.WithLabelValues("delete"))
	err := m.next.Delete(ctx, key)
	timer.ObserveDuration()

	redisCommandsTotal.WithLabelValues("delete", keyspace).Inc()
	if err != nil {
		redisErrorsTotal.WithLabelValues("delete", keyspace).Inc()
	}

	return err
}

// Close closes underlying client.
func (m *MetricsClient) Close() error {
	return m.next.Close()
}

// TxPipeline forwards to the underlying client.
func (m *MetricsClient) TxPipeline() goredis.Pipeliner {
	return m.next.TxPipeline()
}

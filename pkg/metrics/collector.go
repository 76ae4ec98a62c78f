// Package metrics exposes Prometheus collectors shared across the
// resilience components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/al-mudeer/resilience/internal/breaker"
)

var (
	breakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)
	sessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_expired_total",
			Help: "Total number of sessions removed by the cleanup pass",
		},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of live sessions in the local store",
		},
	)
)

func init() {
	breaker.RegisterTransitionRecorder(RecordBreakerTransition)
}

// RecordBreakerTransition counts a breaker state change.
func RecordBreakerTransition(from, to breaker.State) {
	breakerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordSessionsExpired counts sessions removed by a cleanup pass.
func RecordSessionsExpired(removed int) {
	if removed > 0 {
		sessionsExpiredTotal.Add(float64(removed))
	}
}

// SetActiveSessions updates the live session gauge.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

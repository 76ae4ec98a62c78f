package retry

import "github.com/prometheus/client_golang/prometheus"

var (
	retryAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retry_attempts_total",
		Help: "Total number of operation attempts made by the retry executor.",
	})

	retryExhaustedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retry_exhausted_total",
		Help: "Total number of retry sequences that spent every attempt.",
	})
)

func init() {
	prometheus.MustRegister(retryAttemptsTotal, retryExhaustedTotal)
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	UpstreamAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esim_upstream_attempts_total",
			Help: "Apollo product detail attempts by outcome",
		},
		[]string{"outcome"}, // ok|status|network|invalid
	)

	UpstreamAttemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esim_upstream_attempt_duration_seconds",
			Help:    "Latency of a single Apollo attempt",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)

	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esim_gateway_requests_total",
			Help: "Product detail gateway results by kind",
		},
		[]string{"result"}, // ok|mock|invalid_input|not_found|forbidden|expired|misconfigured|upstream_error|network_error|invalid_response
	)

	NormalizedOptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "esim_normalizer_results_total",
			Help: "Normalizer outcomes by winning strategy",
		},
		[]string{"strategy"}, // structured|heuristic|none
	)
)

var once sync.Once

// MustRegister registers the collectors once; later calls are no-ops.
func MustRegister(r prometheus.Registerer) {
	once.Do(func() {
		r.MustRegister(
			UpstreamAttempts,
			UpstreamAttemptDuration,
			GatewayRequests,
			NormalizedOptions,
		)
	})
}

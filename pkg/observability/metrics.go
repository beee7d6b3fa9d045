// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the plume API server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// APIBuckets defines histogram buckets suited for database-backed API
// latencies, ranging from 1ms to 10s.
var APIBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plume_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plume_request_duration_seconds",
			Help:    "Request duration",
			Buckets: APIBuckets,
		},
		[]string{"method"},
	)

	// RequestsInFlight tracks the number of requests currently being served.
	RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "plume_requests_in_flight",
			Help: "Requests currently in flight",
		},
	)

	// AuthAttemptsTotal counts authentication attempts by scheme and outcome.
	// Scheme is "basic" or "bearer"; outcome is "ok", "rejected", or "error".
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plume_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"scheme", "outcome"},
	)

	// TokensIssuedTotal counts tokens issued through the login endpoint.
	TokensIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plume_tokens_issued_total",
			Help: "Tokens issued",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RequestsInFlight,
		AuthAttemptsTotal,
		TokensIssuedTotal,
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Model-service failures never propagate past the gateway adapter, so the
// adapter is the only place they can be observed. These collectors are that
// observation point.
var (
	ModelRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakura_model_requests_total",
			Help: "Total outbound model-service calls",
		},
		[]string{"operation"}, // "converse", "improve", "explain"
	)

	ModelFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakura_model_failures_total",
			Help: "Model-service calls absorbed by the fail-soft path",
		},
		[]string{"operation"},
	)

	ModelRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakura_model_request_duration_seconds",
			Help:    "Model-service call duration",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakura_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakura_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"method", "path"},
	)
)

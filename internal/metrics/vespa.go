package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vespa backend Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marqo",
			Name:      "search_requests_total",
			Help:      "Total number of search requests against the backend",
		},
		[]string{"index", "kind", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marqo",
			Name:      "search_request_duration_seconds",
			Help:      "Backend search request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"index", "kind"},
	)

	DocumentOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marqo",
			Name:      "document_operations_total",
			Help:      "Total number of document feed, get and delete operations",
		},
		[]string{"index", "operation", "status"},
	)
)

var vespaMetricsRegistered bool

// RegisterVespaMetrics registers Prometheus backend metrics. Must be called once from main.
func RegisterVespaMetrics() {
	if vespaMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(DocumentOperationsTotal)
	vespaMetricsRegistered = true
}

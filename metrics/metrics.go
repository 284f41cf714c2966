// Package metrics provides Prometheus metrics collection for the
// annotation service: HTTP request performance plus annotation and
// index-build gauges.
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP requests served, by method, route pattern and status",
		},
		[]string{"method", "path", "status"},
	)

	// Single lookups resolve against in-memory indexes, so the latency
	// buckets start at half a millisecond; the upper buckets cover
	// batch annotation requests.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Client IPs holding a token bucket (idle buckets are pruned every 30 minutes)",
		},
	)

	AnnotationMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotation_matches_total",
			Help: "Annotation results by catalog source and match type",
		},
		[]string{"source", "match_type"},
	)

	IndexEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "index_entries",
			Help: "Normalized keys held by each canonical index",
		},
		[]string{"source"},
	)

	IndexClusters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "index_clusters",
			Help: "Equivalence clusters held by each canonical index",
		},
		[]string{"source"},
	)

	IndexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "index_build_duration_seconds",
			Help:    "Full reference-data rebuild latency",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(AnnotationMatchesTotal)
	prometheus.MustRegister(IndexEntries)
	prometheus.MustRegister(IndexClusters)
	prometheus.MustRegister(IndexBuildDuration)
}

// ObserveMatch records one annotation outcome.
func ObserveMatch(source, matchType string) {
	if source == "" {
		source = "none"
	}
	AnnotationMatchesTotal.WithLabelValues(source, matchType).Inc()
}

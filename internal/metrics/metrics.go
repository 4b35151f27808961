package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store Metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movielikes_store_query_duration_seconds",
			Help:    "Duration of remote store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielikes_store_query_errors_total",
			Help: "Total number of failed remote store queries",
		},
		[]string{"operation", "table"},
	)

	// Metadata API Metrics
	MetadataRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielikes_metadata_requests_total",
			Help: "Metadata API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	MetadataDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movielikes_metadata_request_duration_seconds",
			Help:    "Duration of metadata API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	MetadataCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielikes_metadata_cache_total",
			Help: "Metadata cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "movielikes_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Like Metrics
	LikeToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movielikes_like_toggles_total",
			Help: "Like/unlike attempts by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	// Search Metrics
	StaleSearchResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movielikes_stale_search_responses_total",
			Help: "Search responses dropped because a newer search was issued",
		},
	)

	PageSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movielikes_page_sessions",
			Help: "Live page sessions held in memory",
		},
	)

	PageEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movielikes_page_evictions_total",
			Help: "Page sessions evicted because the registry was full",
		},
	)
)

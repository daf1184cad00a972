package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AdmissionDecisions tracks admission control outcomes per route
	AdmissionDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipefetch_admission_total",
			Help: "Total number of fetch admission decisions",
		},
		[]string{"route", "decision"}, // admitted, throttled, debounced, lease_denied
	)

	// FetchesTotal tracks completed fetches by outcome
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipefetch_fetches_total",
			Help: "Total number of admitted fetches by outcome",
		},
		[]string{"route", "outcome"},
	)

	// AttemptsTotal tracks individual transport attempts
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipefetch_attempts_total",
			Help: "Total number of transport attempts",
		},
		[]string{"route", "result"},
	)

	// AttemptLatency tracks transport attempt latency
	AttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipefetch_attempt_latency_seconds",
			Help:    "Transport attempt latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// BackoffSeconds tracks the sleeps between attempts
	BackoffSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipefetch_backoff_seconds",
			Help:    "Backoff delay applied before a retry",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"route"},
	)

	// RecipesDecoded tracks the size of the last decoded collection
	RecipesDecoded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "recipefetch_recipes_decoded",
			Help: "Number of recipes in the last successful fetch",
		},
		[]string{"route"},
	)

	// ImageCacheRequests tracks photo cache lookups
	ImageCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipefetch_image_cache_requests_total",
			Help: "Photo cache lookups by result",
		},
		[]string{"result"}, // hit, miss, error
	)

	// JournalWrites tracks fetch-run journal writes
	JournalWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipefetch_journal_writes_total",
			Help: "Fetch run journal writes by backend and result",
		},
		[]string{"backend", "result"},
	)

	// DBConnectionPoolUsage tracks database connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "recipefetch_db_connection_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)

	// PreviewRequests tracks source page preview scrapes
	PreviewRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipefetch_preview_requests_total",
			Help: "Source page preview scrapes by result",
		},
		[]string{"result"}, // success, error
	)
)

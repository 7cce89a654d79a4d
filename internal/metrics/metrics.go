package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepsTotal tracks completed runner sweeps by outcome
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "innkeeper_sweeps_total",
			Help: "Total number of validation sweeps",
		},
		[]string{"outcome"},
	)

	// ValidationsTotal tracks finalized quest validations by criteria and status
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "innkeeper_validations_total",
			Help: "Total number of quest validations",
		},
		[]string{"criteria", "status"},
	)

	// ValidationDuration tracks per-quest validation wall-clock time
	ValidationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "innkeeper_validation_duration_seconds",
			Help:    "Quest validation processing time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"criteria"},
	)

	// MatchedAddresses tracks addresses matched per validation
	MatchedAddresses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "innkeeper_matched_addresses_total",
			Help: "Total number of addresses matched by validations",
		},
		[]string{"criteria"},
	)

	// APICallsTotal tracks upstream indexing API calls
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "innkeeper_api_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"endpoint"},
	)

	// APIErrorsTotal tracks upstream API failures after retry exhaustion
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "innkeeper_api_errors_total",
			Help: "Total number of upstream API errors",
		},
		[]string{"endpoint"},
	)

	// APILatency tracks upstream API call latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "innkeeper_api_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// ActiveQuests tracks the number of active quests seen by the last sweep
	ActiveQuests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "innkeeper_active_quests",
			Help: "Number of active quests in the last sweep",
		},
	)

	// DBConnectionPoolUsage tracks database pool utilization
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "innkeeper_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)

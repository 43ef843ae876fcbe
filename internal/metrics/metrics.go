// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Geo lookup outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomePrivate = "private"
	OutcomeFailure = "failure"
)

var (
	GeoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geotrace_geo_lookups_total",
			Help: "Geo resolutions by outcome (success, skipped, private, failure)",
		},
		[]string{"outcome"},
	)

	GeoLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geotrace_geo_lookup_duration_seconds",
			Help:    "Duration of external geo provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GeoBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geotrace_geo_breaker_state",
			Help: "Geo provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	HistoryPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geotrace_history_persist_failures_total",
			Help: "History rows that could not be stored after a successful lookup",
		},
	)
)

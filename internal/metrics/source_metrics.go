package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Source-specific metrics
var (
	SourceFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_fetch_duration_seconds",
		Help:      "Latency of record and catalog fetches by source",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	SourceFetchErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetch_errors_total",
		Help:      "Total number of failed fetches by source",
	}, []string{"source"})

	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of HTTP client circuit breaker trips",
	})

	CatalogMaps = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_maps",
		Help:      "Number of catalog maps by legality",
	}, []string{"status"})

	RecordsPersistedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_persisted_total",
		Help:      "Total number of records inserted into the database",
	})
)

// RecordSourceFetch records the latency and outcome of a fetch.
func RecordSourceFetch(source string, duration time.Duration, err error) {
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		SourceFetchErrorsTotal.WithLabelValues(source).Inc()
	}
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdateCatalogMaps updates the catalog size gauges.
func UpdateCatalogMaps(legal, illegal int) {
	CatalogMaps.WithLabelValues("legal").Set(float64(legal))
	CatalogMaps.WithLabelValues("illegal").Set(float64(illegal))
}

// RecordRecordsPersisted records rows inserted into the database.
func RecordRecordsPersisted(n int64) {
	RecordsPersistedTotal.Add(float64(n))
}

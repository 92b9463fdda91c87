// Package metrics provides the centralized Prometheus registry for the records service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gltp_records"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	AggregationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "aggregations_total",
		Help:      "Total number of leaderboard aggregations computed",
	})
	RecordsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_processed_total",
		Help:      "Total number of records seen by the aggregator by outcome",
	}, []string{"outcome"})
	SkippedRecordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "skipped_records_total",
		Help:      "Total number of malformed records skipped by reason code",
	}, []string{"code"})
	WorldRecordChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "world_record_changes_total",
		Help:      "Total number of world records that changed hands between refreshes",
	}, []string{"scope"})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_hits_total",
		Help:      "Total number of aggregations served from the result cache",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "result_cache_misses_total",
		Help:      "Total number of aggregations that missed the result cache",
	})
)

// Gauge metrics
var (
	LeaderboardEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "leaderboard_entries",
		Help:      "Number of ranked players on each leaderboard",
	}, []string{"kind"})
	MapsWithRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "maps_with_records",
		Help:      "Number of maps with at least one valid record",
	})
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "result_cache_hit_ratio",
		Help:      "Hit ratio of the aggregation result cache",
	})
	LastRefreshTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix time of the last successful leaderboard refresh",
	})
)

// Histogram metrics
var (
	AggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "aggregation_duration_seconds",
		Help:      "Duration of leaderboard aggregation in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(AggregationsTotal)
		registry.MustRegister(RecordsProcessedTotal)
		registry.MustRegister(SkippedRecordsTotal)
		registry.MustRegister(WorldRecordChangesTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)

		registry.MustRegister(LeaderboardEntries)
		registry.MustRegister(MapsWithRecords)
		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(LastRefreshTimestamp)

		registry.MustRegister(AggregationDuration)

		registry.MustRegister(SourceFetchDuration)
		registry.MustRegister(SourceFetchErrorsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(CatalogMaps)
		registry.MustRegister(RecordsPersistedTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordAggregation records one aggregation run and its record outcomes.
func RecordAggregation(duration time.Duration, valid, skipped, maps int) {
	AggregationsTotal.Inc()
	AggregationDuration.Observe(duration.Seconds())
	RecordsProcessedTotal.WithLabelValues("valid").Add(float64(valid))
	RecordsProcessedTotal.WithLabelValues("skipped").Add(float64(skipped))
	MapsWithRecords.Set(float64(maps))
}

// RecordSkippedRecord records a malformed record by reason code.
func RecordSkippedRecord(code string) {
	SkippedRecordsTotal.WithLabelValues(code).Inc()
}

// RecordWorldRecordChange records a world record changing hands.
func RecordWorldRecordChange(scope string) {
	WorldRecordChangesTotal.WithLabelValues(scope).Inc()
}

// UpdateLeaderboardEntries updates the ranked player count of a leaderboard.
func UpdateLeaderboardEntries(kind string, count int) {
	LeaderboardEntries.WithLabelValues(kind).Set(float64(count))
}

// RecordCacheLookup records a result cache hit or miss and the running hit ratio.
func RecordCacheLookup(hit bool, hitRatio float64) {
	if hit {
		CacheHitsTotal.Inc()
	} else {
		CacheMissesTotal.Inc()
	}
	CacheHitRatio.Set(hitRatio)
}

// MarkRefreshed records the time of a successful refresh.
func MarkRefreshed(at time.Time) {
	LastRefreshTimestamp.Set(float64(at.Unix()))
}

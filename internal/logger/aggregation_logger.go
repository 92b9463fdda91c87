package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AggregationLogger provides dedicated logging for leaderboard aggregation.
type AggregationLogger struct {
	*logrus.Entry
}

// NewAggregationLogger creates a new aggregation logger.
func NewAggregationLogger(baseLogger *logrus.Logger) *AggregationLogger {
	return &AggregationLogger{
		Entry: baseLogger.WithField("component", "aggregation"),
	}
}

// LogAggregation logs a completed aggregation run.
func (al *AggregationLogger) LogAggregation(total, valid, skipped, maps int, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"records_total":   total,
		"records_valid":   valid,
		"records_skipped": skipped,
		"maps":            maps,
		"duration_ms":     duration.Milliseconds(),
	}).Info("Leaderboard aggregation completed")
}

// LogSkippedRecord logs a record rejected before ranking.
func (al *AggregationLogger) LogSkippedRecord(index int, recordID, mapID, code, reason string) {
	al.WithFields(logrus.Fields{
		"index":     index,
		"record_id": recordID,
		"map_id":    mapID,
		"code":      code,
		"reason":    reason,
	}).Warn("Record skipped")
}

// LogCacheHit logs an aggregation served from the result cache.
func (al *AggregationLogger) LogCacheHit(fingerprint string, records int) {
	al.WithFields(logrus.Fields{
		"fingerprint": fingerprint,
		"records":     records,
	}).Debug("Aggregation served from cache")
}

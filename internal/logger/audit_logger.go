package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogRecordsIngested logs a batch of records accepted from a source.
func (al *AuditLogger) LogRecordsIngested(source string, fetched, normalized, rejected int) {
	al.WithFields(logrus.Fields{
		"source":     source,
		"fetched":    fetched,
		"normalized": normalized,
		"rejected":   rejected,
	}).Info("Records ingested")
}

// LogWorldRecordChange logs a map whose best record changed between refreshes.
func (al *AuditLogger) LogWorldRecordChange(scope, mapID, previousHolder, newHolder string, previousTime, newTime time.Duration) {
	al.WithFields(logrus.Fields{
		"scope":           scope,
		"map_id":          mapID,
		"previous_holder": previousHolder,
		"new_holder":      newHolder,
		"previous_ms":     previousTime.Milliseconds(),
		"new_ms":          newTime.Milliseconds(),
	}).Info("World record changed")
}

// LogCatalogRefresh logs a map catalog reload.
func (al *AuditLogger) LogCatalogRefresh(source string, legal, illegal int) {
	entry := al.WithFields(logrus.Fields{
		"source":       source,
		"maps":         legal,
		"illegal_maps": illegal,
	})
	if illegal > 0 {
		entry.Warn("Map catalog refreshed with illegal maps")
		return
	}
	entry.Info("Map catalog refreshed")
}

// LogRecordsPersisted logs records mirrored into the database.
func (al *AuditLogger) LogRecordsPersisted(inserted int64, duration time.Duration) {
	al.WithFields(logrus.Fields{
		"inserted":    inserted,
		"duration_ms": duration.Milliseconds(),
	}).Info("Records persisted")
}

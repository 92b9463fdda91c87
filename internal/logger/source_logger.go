package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// SourceLogger provides dedicated logging for record and catalog sources.
type SourceLogger struct {
	*logrus.Entry
}

// NewSourceLogger creates a new source logger.
func NewSourceLogger(baseLogger *logrus.Logger) *SourceLogger {
	return &SourceLogger{
		Entry: baseLogger.WithField("component", "source"),
	}
}

// LogFetch logs a successful fetch.
func (sl *SourceLogger) LogFetch(source string, items int, latency time.Duration) {
	sl.WithFields(logrus.Fields{
		"source":     source,
		"items":      items,
		"latency_ms": latency.Milliseconds(),
	}).Debug("Source fetch completed")
}

// LogFetchError logs a failed fetch.
func (sl *SourceLogger) LogFetchError(source string, err error) {
	sl.WithFields(logrus.Fields{
		"source": source,
		"error":  err.Error(),
	}).Error("Source fetch failed")
}

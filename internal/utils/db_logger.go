package utils

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// SweepFilterLogger wraps a GORM logger and drops the trace lines produced
// by the scheduler's periodic sweep queries, which would otherwise flood the
// log every few minutes.
type SweepFilterLogger struct {
	logger.Interface
	ignoredPatterns []string
}

// NewSweepFilterLogger creates a logger that suppresses any SQL trace
// containing one of the given substrings.
func NewSweepFilterLogger(l logger.Interface, ignoredPatterns ...string) *SweepFilterLogger {
	return &SweepFilterLogger{
		Interface:       l,
		ignoredPatterns: ignoredPatterns,
	}
}

// LogMode implements logger.Interface
func (l *SweepFilterLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &SweepFilterLogger{
		Interface:       l.Interface.LogMode(level),
		ignoredPatterns: l.ignoredPatterns,
	}
}

// Trace implements logger.Interface
func (l *SweepFilterLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if err == nil {
		sql, _ := fc()
		for _, pattern := range l.ignoredPatterns {
			if strings.Contains(sql, pattern) {
				return
			}
		}
	}
	l.Interface.Trace(ctx, begin, fc, err)
}

package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/locmirror"
)

var _ locmirror.AttemptObserver = (*AttemptLogger)(nil)

// AttemptLogger logs gate attempts. Successes are logged at Info and
// every failed attempt at Warn. Dropping a Target is reported once by
// the caller, not here.
type AttemptLogger struct {
	logger *slog.Logger
}

// NewAttemptLogger creates a new AttemptLogger.
func NewAttemptLogger(logger *slog.Logger) *AttemptLogger {
	return &AttemptLogger{logger: logger}
}

// ObserveAttempt logs a.
func (l *AttemptLogger) ObserveAttempt(a locmirror.Attempt) {
	level := slog.LevelWarn
	if a.Outcome == locmirror.OutcomeSuccess {
		level = slog.LevelInfo
	}

	attrs := []any{
		"url", a.Target.URL,
		"kind", a.Target.Kind.String(),
		"attempt", a.Number,
		"outcome", a.Outcome.String(),
		"duration", a.Duration,
	}
	if a.StatusCode != 0 {
		attrs = append(attrs, "status", a.StatusCode)
	}
	if a.Outcome == locmirror.OutcomeSuccess {
		attrs = append(attrs, "bytes", len(a.Body))
	}
	if a.Err != nil {
		attrs = append(attrs, "err", a.Err)
	}

	l.logger.Log(context.Background(), level, "attempt", attrs...)
}

package vecdex

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with vecdex-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, count, total int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"count", count,
			"total", total,
			"duration", duration,
		)
	}
}

// LogTrain logs a train operation.
func (l *Logger) LogTrain(ctx context.Context, count int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "train failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "train completed",
			"count", count,
			"duration", duration,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, op string, k, resultsFound int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"op", op,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"op", op,
			"k", k,
			"results", resultsFound,
			"duration", duration,
		)
	}
}

// LogMerge logs a merge operation.
func (l *Logger) LogMerge(ctx context.Context, added, total, sourceRemaining int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "merge completed",
			"added", added,
			"total", total,
			"source_remaining", sourceRemaining,
			"duration", duration,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, op, target string, bytes int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"op", op,
			"target", target,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot completed",
			"op", op,
			"target", target,
			"bytes", bytes,
			"duration", duration,
		)
	}
}

// LogDispose logs handle disposal. leaked reports whether disposal was
// forced by the cleanup because the handle was never closed.
func (l *Logger) LogDispose(ctx context.Context, leaked bool) {
	if leaked {
		l.WarnContext(ctx, "handle disposed by cleanup without explicit close")
	} else {
		l.DebugContext(ctx, "handle closed")
	}
}

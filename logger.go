package joingo

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/joingo/search"
)

// Logger wraps slog.Logger with joingo-specific context.
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

// WithCore adds a core name field to the logger.
func (l *Logger) WithCore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("core", name),
	}
}

// LogRefresh logs a searcher reopen.
func (l *Logger) LogRefresh(ctx context.Context, core string, maxDoc, numDeleted int) {
	l.InfoContext(ctx, "searcher refreshed",
		"core", core,
		"max_doc", maxDoc,
		"num_deleted", numDeleted,
	)
}

// LogJoin logs a join invocation.
func (l *Logger) LogJoin(ctx context.Context, stats search.JoinStats, err error) {
	if err != nil {
		l.ErrorContext(ctx, "join failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "join completed",
			"from_set_size", stats.FromSetSize,
			"to_set_size", stats.ToSetSize,
			"from_term_count", stats.FromTermCount,
			"elapsed", stats.Elapsed,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, core, dir string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"core", core,
			"dir", dir,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"core", core,
			"dir", dir,
			"elapsed", elapsed,
		)
	}
}

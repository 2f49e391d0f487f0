package fieldmap

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fieldmap-specific context.
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

// WithField adds a field name to the logger (useful for tagging operations).
func (l *Logger) WithField(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", name),
	}
}

// WithDocID adds a document id field to the logger.
func (l *Logger) WithDocID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("doc_id", id),
	}
}

// LogApplyMapping logs a mapping update.
func (l *Logger) LogApplyMapping(ctx context.Context, fields, conflicts int, simulate bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mapping update failed",
			"fields", fields,
			"conflicts", conflicts,
			"simulate", simulate,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "mapping update completed",
			"fields", fields,
			"simulate", simulate,
		)
	}
}

// LogParseDocument logs a document parse.
func (l *Logger) LogParseDocument(ctx context.Context, id string, entries, ignored int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "document parse failed",
			"doc_id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "document parse completed",
			"doc_id", id,
			"entries", entries,
			"ignored", ignored,
		)
	}
}

// LogExportMapping logs a mapping export.
func (l *Logger) LogExportMapping(ctx context.Context, bytes int, includeDefaults bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "mapping export failed",
			"include_defaults", includeDefaults,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "mapping export completed",
			"bytes", bytes,
			"include_defaults", includeDefaults,
		)
	}
}

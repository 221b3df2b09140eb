package phonodist

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with phonodist-specific context.
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
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithMethod adds a distance method field to the logger.
func (l *Logger) WithMethod(method string) *Logger {
	return &Logger{
		Logger: l.Logger.With("method", method),
	}
}

// WithSystem adds a feature system field to the logger.
func (l *Logger) WithSystem(system string) *Logger {
	return &Logger{
		Logger: l.Logger.With("system", system),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogDistance logs a single distance computation.
func (l *Logger) LogDistance(ctx context.Context, a, b, method string, d float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "distance failed",
			"a", a,
			"b", b,
			"method", method,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "distance computed",
			"a", a,
			"b", b,
			"method", method,
			"distance", d,
		)
	}
}

// LogMatrix logs a distance matrix build.
func (l *Logger) LogMatrix(ctx context.Context, size, missing int, method string, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "distance matrix failed",
			"size", size,
			"method", method,
			"error", err,
		)
	case missing > 0:
		l.WarnContext(ctx, "distance matrix built with missing phonemes",
			"size", size,
			"method", method,
			"missing", missing,
		)
	default:
		l.InfoContext(ctx, "distance matrix built",
			"size", size,
			"method", method,
		)
	}
}

// LogAlignment logs a sequence alignment.
func (l *Logger) LogAlignment(ctx context.Context, len1, len2 int, score float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "alignment failed",
			"len1", len1,
			"len2", len2,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "alignment completed",
			"len1", len1,
			"len2", len2,
			"normalized_score", score,
		)
	}
}

// LogOptimize logs a threshold optimization over cognate sets.
func (l *Logger) LogOptimize(ctx context.Context, sets, intra, inter int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cognate optimization failed",
			"sets", sets,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cognate optimization completed",
			"sets", sets,
			"intra_pairs", intra,
			"inter_pairs", inter,
		)
	}
}

// LogSystemLoad logs loading a custom feature system.
func (l *Logger) LogSystemLoad(ctx context.Context, name, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "feature system load failed",
			"system", name,
			"path", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "feature system loaded",
			"system", name,
			"path", path,
		)
	}
}

// LogMethodRegistered logs a distance method registration.
func (l *Logger) LogMethodRegistered(ctx context.Context, name string, replaced bool, invalidated int) {
	l.InfoContext(ctx, "distance method registered",
		"method", name,
		"replaced", replaced,
		"invalidated", invalidated,
	)
}

// LogPersist logs a save or load against a blob store.
func (l *Logger) LogPersist(ctx context.Context, op, name, format string, err error) {
	if err != nil {
		l.ErrorContext(ctx, op+" failed",
			"blob", name,
			"format", format,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, op,
			"blob", name,
			"format", format,
		)
	}
}

package logger

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog so call sites can carry request-scoped fields without
// threading slog.Attr plumbing everywhere.
type Logger struct {
	*slog.Logger
}

// New creates a JSON logger at the given level ("debug", "info", "warn",
// "error"; anything else falls back to info).
func New(level string) *Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	return &Logger{Logger: slog.New(handler)}
}

type ctxKey string

// RequestIDKey is the context key under which the request-ID middleware
// stores the per-request identifier.
const RequestIDKey ctxKey = "request_id"

// WithContext returns a logger annotated with the request ID from ctx,
// when one is present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return &Logger{Logger: l.With("request_id", requestID)}
	}
	return l
}

// WithFields returns a logger annotated with the given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...)}
}

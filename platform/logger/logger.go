// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// CommandKey is the context key for the CLI command being executed
	CommandKey contextKey = "command"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment.
// Output goes to stderr so stdout stays free for command output.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stderr)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger with context values extracted.
// Supports request_id and command from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if command, ok := ctx.Value(CommandKey).(string); ok && command != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("command", command)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// APIRequest logs a completed call to the QR backend.
func (l *Logger) APIRequest(method, path string, status int, latencyMs float64) {
	l.Debug("api_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
	)
}

// APIError logs a failed call to the QR backend.
func (l *Logger) APIError(method, path string, status int, err error) {
	l.Error("api_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	)
}

// Notification logs a user-facing notification.
func (l *Logger) Notification(kind, message string) {
	if kind == "error" {
		l.Warn("notification",
			slog.String("kind", kind),
			slog.String("message", message),
		)
		return
	}
	l.Debug("notification",
		slog.String("kind", kind),
		slog.String("message", message),
	)
}

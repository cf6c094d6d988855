package log

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	// Return default logger if not found
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogRPCCall logs a completed remote procedure call. Server errors are
// logged at error level and client errors at warn.
func (sl *StructuredLogger) LogRPCCall(ctx context.Context, procedure string, statusCode int, elapsed time.Duration, err error) {
	level := slog.LevelDebug
	switch {
	case statusCode >= 500 || (statusCode == 0 && err != nil):
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithRPCCall(procedure, statusCode, elapsed.Milliseconds()).
		WithError(err).
		WithComponent(ComponentRPC)

	sl.logger.Logger.Log(ctx, level, "RPC call completed", fields.ToSlice()...)
}

// LogMutation logs a successful mutation and the keys it invalidated
func (sl *StructuredLogger) LogMutation(ctx context.Context, operation, entityID string, keys []string) {
	fields := NewFields().
		WithOperation(operation).
		WithEntity(entityID).
		WithKeys(keys).
		WithComponent(ComponentTracker)

	sl.logger.Logger.InfoContext(ctx, "Mutation applied", fields.ToSlice()...)
}

// LogInvalidation logs keys applied to the cache from another session
func (sl *StructuredLogger) LogInvalidation(ctx context.Context, origin string, keys []string, removed int) {
	fields := NewFields().
		WithOperation(OpInvalidate).
		WithKeys(keys).
		WithComponent(ComponentWorker)
	fields[FieldOrigin] = origin
	fields[FieldStale] = removed

	sl.logger.Logger.InfoContext(ctx, "Remote invalidation applied", fields.ToSlice()...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation).
		WithComponent(component)

	sl.logger.Logger.ErrorContext(ctx, msg, allFields.ToSlice()...)
}

package logger

import (
	"context"
	"log/slog"
)

// ctxKey is an unexported type for context keys defined by this package,
// preventing collisions with keys defined elsewhere.
type ctxKey int

const (
	loggerKey ctxKey = iota
	traceIDKey
)

// WithLogger returns a new context carrying the provided logger.
// Handlers and middleware use this to pass request-scoped loggers
// (e.g. with trace or user attributes already attached) down the stack.
// Panics if log is nil: storing a nil logger would silently disable
// the FromContext fallback for every caller downstream.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if log == nil {
		panic("logger.WithLogger: nil logger")
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext retrieves the logger stored in the context, falling back to
// slog.Default() when none is present. The returned logger is never nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger stored in the context, falling
// back to the provided default. Components hold their own component-scoped
// logger and prefer the request-scoped one when a request is in flight.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerKey).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	if def != nil {
		return def
	}
	return slog.Default()
}

// WithTraceID returns a new context carrying the request trace ID.
// The ContextHandler attaches this ID to every log record, and API error
// responses echo it so a client report can be matched to server logs.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext retrieves the trace ID stored in the context.
// Returns an empty string when none is present.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		return id
	}
	return ""
}

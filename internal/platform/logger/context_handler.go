// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package.
package logger

import (
	"context"
	"log/slog"
)

// ContextHandler is a slog.Handler that decorates log records with values
// carried in the context, currently the request trace ID. Wrapping the
// handler rather than the logger means the enrichment applies no matter
// which logger instance emits the record.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a ContextHandler wrapping the provided handler.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{handler: inner}
}

// Enabled implements the slog.Handler interface.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs implements the slog.Handler interface.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup implements the slog.Handler interface.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}

// Handle implements the slog.Handler interface. It clones the record and
// attaches the context trace ID before forwarding to the wrapped handler,
// so the original record is never mutated.
func (h *ContextHandler) Handle(ctx context.Context, record slog.Record) error {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return h.handler.Handle(ctx, record)
	}

	enhanced := record.Clone()
	enhanced.AddAttrs(slog.String("trace_id", traceID))
	return h.handler.Handle(ctx, enhanced)
}

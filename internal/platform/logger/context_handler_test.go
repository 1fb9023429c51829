package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturingLogger(t *testing.T) (*slog.Logger, *logger.TestLogBuffer) {
	t.Helper()

	buf := &logger.TestLogBuffer{}
	handler := logger.NewContextHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return slog.New(handler), buf
}

func TestContextHandlerAddsTraceID(t *testing.T) {
	log, buf := newCapturingLogger(t)

	ctx := logger.WithTraceID(context.Background(), "trace-42")
	log.InfoContext(ctx, "handling request")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "trace-42", entries[0]["trace_id"])
	assert.Equal(t, "handling request", entries[0]["msg"])
}

func TestContextHandlerWithoutTraceID(t *testing.T) {
	log, buf := newCapturingLogger(t)

	log.InfoContext(context.Background(), "no trace")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, present := entries[0]["trace_id"]
	assert.False(t, present, "records without a context trace ID should not carry the field")
}

func TestContextHandlerPreservesAttrsAndGroups(t *testing.T) {
	log, buf := newCapturingLogger(t)

	ctx := logger.WithTraceID(context.Background(), "trace-7")
	log.With(slog.String("component", "store")).
		WithGroup("query").
		InfoContext(ctx, "executed", slog.Int("rows", 3))

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "store", entry["component"])

	group, ok := entry["query"].(map[string]interface{})
	require.True(t, ok, "expected query group in record: %v", entry)
	assert.Equal(t, float64(3), group["rows"])

	// The trace ID lands inside the open group, the same way any
	// record-time attribute would.
	assert.Equal(t, "trace-7", group["trace_id"])
}

func TestContextHandlerRespectsLevel(t *testing.T) {
	buf := &logger.TestLogBuffer{}
	handler := logger.NewContextHandler(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	log := slog.New(handler)

	log.Debug("should be filtered")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

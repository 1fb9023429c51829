// Package logger provides structured logging functionality for the application
// using Go's standard library log/slog package.
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer is a thread-safe buffer for capturing log output in tests.
type TestLogBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

// Write implements io.Writer for TestLogBuffer.
func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns the buffer contents as a string.
func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Reset clears the buffer contents.
func (b *TestLogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// GetLogEntries parses the buffer contents as JSON log entries.
// Each line is assumed to be a separate JSON log entry.
func (b *TestLogBuffer) GetLogEntries() ([]map[string]interface{}, error) {
	b.mu.Lock()
	logs := b.buf.String()
	b.mu.Unlock()

	lines := strings.Split(logs, "\n")
	entries := make([]map[string]interface{}, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetTestLogger creates a logger for use in tests.
// The logger is configured to capture all logs at debug level.
func GetTestLogger(t *testing.T) (*slog.Logger, *TestLogBuffer) {
	t.Helper()

	logBuf := &TestLogBuffer{}
	handler := slog.NewJSONHandler(logBuf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler), logBuf
}

// CaptureLogs runs the provided function and captures all logs.
// It returns the captured logs as a string.
func CaptureLogs(t *testing.T, fn func(*slog.Logger)) string {
	t.Helper()

	logger, logBuf := GetTestLogger(t)
	fn(logger)
	return logBuf.String()
}

// AssertLogContains checks if the log buffer contains specific content.
// If the content is not found, it fails the test with a useful message.
func AssertLogContains(t *testing.T, logBuf *TestLogBuffer, content string) {
	t.Helper()

	logs := logBuf.String()
	if !strings.Contains(logs, content) {
		t.Errorf("Expected log to contain %q, but it doesn't.\nLogs:\n%s", content, logs)
	}
}

// AssertLogField checks if the log entries contain a specific field with a specific value.
// It fails the test if the field is not found or doesn't match the expected value.
func AssertLogField(t *testing.T, logBuf *TestLogBuffer, field string, expected interface{}) {
	t.Helper()

	entries, err := logBuf.GetLogEntries()
	if err != nil {
		t.Fatalf("Failed to parse log entries: %v", err)
	}

	if len(entries) == 0 {
		t.Fatalf("No log entries found")
	}

	found := false
	for _, entry := range entries {
		if value, ok := entry[field]; ok {
			if value == expected {
				found = true
				break
			}
		}
	}

	if !found {
		t.Errorf("Expected log entries to contain field %q with value %v, but it wasn't found", field, expected)
	}
}

// LogCaptureContext provides a context and logger for capturing logs in tests.
// This is particularly useful for testing structured logging with context.
type LogCaptureContext struct {
	Context context.Context
	Logger  *slog.Logger
	Buffer  *TestLogBuffer
}

// NewLogCaptureContext creates a new context with a logger for capturing logs.
// The logger is stored in the context, so code under test that calls
// FromContext picks it up transparently.
func NewLogCaptureContext(t *testing.T) *LogCaptureContext {
	t.Helper()

	logBuf := &TestLogBuffer{}
	handler := NewContextHandler(slog.NewJSONHandler(logBuf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	logger := slog.New(handler)

	ctx := WithLogger(context.Background(), logger)

	return &LogCaptureContext{
		Context: ctx,
		Logger:  logger,
		Buffer:  logBuf,
	}
}

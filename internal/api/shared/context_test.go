package shared

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctxWithTrace := SetTraceID(ctx)
	traceID := GetTraceID(ctxWithTrace)
	assert.NotEmpty(t, traceID)
	assert.Len(t, traceID, 32, "trace ID should be 32 hex characters")

	// The original context stays untouched.
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWithInvalidContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123) // not a string
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceID(t *testing.T) {
	traceID := generateTraceID()
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)

	// Uniqueness is probabilistic but 1000 collisions of 16 random bytes
	// would mean the random source is broken.
	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		assert.Len(t, id, 32)
		assert.False(t, seen[id], "trace IDs should be unique")
		seen[id] = true
	}
}

func TestFallbackTraceIDUniqueness(t *testing.T) {
	const iterations = 100
	seen := make(map[string]bool, iterations)

	for i := 0; i < iterations; i++ {
		id := generateFallbackTraceID()
		assert.Len(t, id, 32)
		_, err := hex.DecodeString(id)
		require.NoError(t, err, "fallback ID must be valid hex")

		// Let the time-based components advance between IDs.
		time.Sleep(time.Millisecond)

		assert.False(t, seen[id], "fallback trace IDs should be unique")
		seen[id] = true
	}
}

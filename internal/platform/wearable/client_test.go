package wearable

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowiq/flowiq-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// newTestClient builds a client pointed at a test server with a
// millisecond retry interval so retry tests stay fast.
func newTestClient(serverURL string, maxRetries int) *Client {
	return &Client{
		baseURL:    serverURL,
		apiKey:     "test-key",
		httpClient: &http.Client{Timeout: 2 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: maxRetries,
		retryBase:  time.Millisecond,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	client := NewClient(config.WearableConfig{BaseURL: "https://provider.example"}, nil)

	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, rate.Limit(defaultRequestsPerSec), client.limiter.Limit())
	assert.Equal(t, defaultBurst, client.limiter.Burst())
	assert.Equal(t, defaultRetryBase, client.retryBase)
	assert.NotNil(t, client.logger)
}

func TestFetchDailyMetrics(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	t.Run("maps and sorts provider days", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/metrics/daily", r.URL.Path)
			assert.Equal(t, "2025-03-01", r.URL.Query().Get("start"))
			assert.Equal(t, "2025-03-03", r.URL.Query().Get("end"))
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"days": [
				{"date": "2025-03-02", "sleep_hours": 6.2, "active_minutes": 18, "resting_hrv": 48.5},
				{"date": "2025-03-01", "sleep_hours": 7.5, "active_minutes": 42, "resting_hrv": 55.2}
			]}`))
		}))
		defer server.Close()

		metrics, err := newTestClient(server.URL, 0).FetchDailyMetrics(context.Background(), start, end)
		require.NoError(t, err)
		require.Len(t, metrics, 2)

		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), metrics[0].Date)
		assert.Equal(t, 7.5, metrics[0].SleepHours)
		assert.Equal(t, 42, metrics[0].ActiveMinutes)
		assert.Equal(t, 55.2, metrics[0].RestingHRV)
		assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), metrics[1].Date)
	})

	t.Run("empty range yields empty slice", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"days": []}`))
		}))
		defer server.Close()

		metrics, err := newTestClient(server.URL, 0).FetchDailyMetrics(context.Background(), start, end)
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.Empty(t, metrics)
	})

	t.Run("server errors retry then succeed", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"days": [{"date": "2025-03-01", "sleep_hours": 8, "active_minutes": 30, "resting_hrv": 60}]}`))
		}))
		defer server.Close()

		metrics, err := newTestClient(server.URL, 2).FetchDailyMetrics(context.Background(), start, end)
		require.NoError(t, err)
		assert.Len(t, metrics, 1)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client errors do not retry", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 3).FetchDailyMetrics(context.Background(), start, end)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("exhausted retries surface upstream error", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 1).FetchDailyMetrics(context.Background(), start, end)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("malformed payload is permanent", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 3).FetchDailyMetrics(context.Background(), start, end)
		assert.ErrorIs(t, err, ErrUpstream)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("unparseable provider date fails", func(t *testing.T) {
		t.Parallel()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"days": [{"date": "03/01/2025"}]}`))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 0).FetchDailyMetrics(context.Background(), start, end)
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("inverted range is rejected before any request", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, 0).FetchDailyMetrics(context.Background(), end, start)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUpstream)
		assert.Contains(t, err.Error(), "before start date")
		assert.Equal(t, int32(0), calls.Load())
	})
}

func TestStatusErrorTemporary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   bool
	}{
		{status: http.StatusInternalServerError, want: true},
		{status: http.StatusBadGateway, want: true},
		{status: http.StatusTooManyRequests, want: true},
		{status: http.StatusNotFound, want: false},
		{status: http.StatusUnauthorized, want: false},
	}

	for _, tt := range tests {
		err := &StatusError{StatusCode: tt.status}
		assert.Equal(t, tt.want, err.Temporary(), "status %d", tt.status)
	}
}

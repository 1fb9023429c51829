// Package wearable wraps the wearable provider's REST API behind a
// rate-limited, retrying client that yields per-day wellness metrics.
package wearable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/flowiq/flowiq-api/internal/config"
	"github.com/flowiq/flowiq-api/internal/metrics"
	"golang.org/x/time/rate"
)

// SourceName labels samples imported through this client.
const SourceName = "wearable"

const (
	dateLayout = "2006-01-02"

	defaultTimeout        = 10 * time.Second
	defaultRequestsPerSec = 5
	defaultBurst          = 5
	defaultRetryBase      = 500 * time.Millisecond
)

// ErrUpstream is returned for any provider-side failure: unreachable
// host, non-200 status, or an unparseable payload. Handlers map it to
// 502 Bad Gateway.
var ErrUpstream = errors.New("wearable provider request failed")

// StatusError reports a non-200 provider response.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DailyMetric is one day of provider wellness data.
type DailyMetric struct {
	Date          time.Time
	SleepHours    float64
	ActiveMinutes int
	RestingHRV    float64
}

// metricsResponse mirrors the provider's JSON payload.
type metricsResponse struct {
	Days []dayPayload `json:"days"`
}

type dayPayload struct {
	Date          string  `json:"date"`
	SleepHours    float64 `json:"sleep_hours"`
	ActiveMinutes int     `json:"active_minutes"`
	RestingHRV    float64 `json:"resting_hrv"`
}

// Client fetches daily wellness metrics from the wearable provider with
// rate limiting and retries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryBase  time.Duration
	logger     *slog.Logger
}

// NewClient creates a provider client from configuration. Zero-valued
// limits fall back to package defaults; a nil logger falls back to
// slog.Default().
func NewClient(cfg config.WearableConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	requestsPerSec := cfg.RequestsPerSecond
	if requestsPerSec <= 0 {
		requestsPerSec = defaultRequestsPerSec
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), burst),
		maxRetries: cfg.MaxRetries,
		retryBase:  defaultRetryBase,
		logger:     logger.With(slog.String("component", "wearable_client")),
	}
}

// FetchDailyMetrics pulls the provider's per-day metrics for the
// inclusive date range [start, end], sorted by date ascending. Provider
// failures come back wrapped in ErrUpstream.
func (c *Client) FetchDailyMetrics(ctx context.Context, start, end time.Time) ([]DailyMetric, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s before start date %s",
			end.Format(dateLayout), start.Format(dateLayout))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/metrics/daily?start=%s&end=%s",
		c.baseURL, start.Format(dateLayout), end.Format(dateLayout))

	c.logger.DebugContext(ctx, "fetching provider metrics",
		slog.String("start", start.Format(dateLayout)),
		slog.String("end", end.Format(dateLayout)))

	var payload metricsResponse
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		body, readErr := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "failed to close provider response body",
				slog.String("error", closeErr.Error()))
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{StatusCode: resp.StatusCode}
			if statusErr.Temporary() {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if readErr != nil {
			return readErr
		}

		var decoded metricsResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("parsing provider response: %w", err))
		}

		payload = decoded
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryBase

	startedAt := time.Now()
	err := backoff.RetryNotify(
		operation,
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(c.maxRetries)), ctx),
		func(err error, next time.Duration) {
			c.logger.WarnContext(ctx, "provider request failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		metrics.ObserveWearableRequest(time.Since(startedAt), metrics.OutcomeError)
		c.logger.ErrorContext(ctx, "provider request failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	metrics.ObserveWearableRequest(time.Since(startedAt), metrics.OutcomeSuccess)

	days := make([]DailyMetric, 0, len(payload.Days))
	for _, day := range payload.Days {
		date, err := time.Parse(dateLayout, day.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: bad date %q in provider response", ErrUpstream, day.Date)
		}
		days = append(days, DailyMetric{
			Date:          date.UTC(),
			SleepHours:    day.SleepHours,
			ActiveMinutes: day.ActiveMinutes,
			RestingHRV:    day.RestingHRV,
		})
	}

	// Providers replay ranges in arbitrary order.
	sort.Slice(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	c.logger.DebugContext(ctx, "fetched provider metrics",
		slog.Int("days", len(days)))

	return days, nil
}

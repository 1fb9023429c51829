// Package metrics holds the Prometheus collectors for the API server.
// Collectors are package-level and attached to a registry once at
// startup via Register; the Observe helpers are safe to call whether or
// not registration has happened, which keeps tests free of registry
// plumbing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels operations that completed normally.
	OutcomeSuccess = "success"
	// OutcomeError labels operations that failed.
	OutcomeError = "error"

	// CacheHit labels prediction lookups served from the cache.
	CacheHit = "hit"
	// CacheMiss labels prediction lookups that had to recompute.
	CacheMiss = "miss"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowiq",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled, partitioned by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowiq",
			Name:      "http_request_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowiq",
			Name:      "predictions_total",
			Help:      "Total number of cycle predictions computed, partitioned by basis.",
		},
		[]string{"basis"},
	)

	predictionCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowiq",
			Name:      "prediction_cache_total",
			Help:      "Prediction cache lookups, partitioned by hit or miss.",
		},
		[]string{"result"},
	)

	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowiq",
			Name:      "tasks_total",
			Help:      "Background tasks processed, partitioned by task type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	taskSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowiq",
			Name:      "task_seconds",
			Help:      "Background task execution time in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"type"},
	)

	wearableRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowiq",
			Name:      "wearable_requests_total",
			Help:      "Requests made to the wearable vendor API, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	wearableRequestSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flowiq",
			Name:      "wearable_request_seconds",
			Help:      "Wearable vendor API call latency in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)
)

// Register attaches all collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		httpRequestsTotal,
		httpRequestSeconds,
		predictionsTotal,
		predictionCacheTotal,
		tasksTotal,
		taskSeconds,
		wearableRequestsTotal,
		wearableRequestSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRequest records a finished HTTP request.
func ObserveRequest(method, route string, status int, duration time.Duration) {
	if duration < 0 {
		duration = 0
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObservePrediction counts a computed prediction. Any basis other than
// "default" is recorded as "history".
func ObservePrediction(basis string) {
	label := basis
	if label != "default" {
		label = "history"
	}
	predictionsTotal.WithLabelValues(label).Inc()
}

// ObservePredictionCache counts a prediction cache lookup.
func ObservePredictionCache(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	predictionCacheTotal.WithLabelValues(result).Inc()
}

// ObserveTask records a background task execution and its outcome label.
func ObserveTask(taskType string, duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	if duration < 0 {
		duration = 0
	}
	tasksTotal.WithLabelValues(taskType, label).Inc()
	taskSeconds.WithLabelValues(taskType).Observe(duration.Seconds())
}

// ObserveWearableRequest records a call to the wearable vendor API.
func ObserveWearableRequest(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	if duration < 0 {
		duration = 0
	}
	wearableRequestsTotal.WithLabelValues(label).Inc()
	wearableRequestSeconds.Observe(duration.Seconds())
}

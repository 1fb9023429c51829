package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/forecast"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/generation"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/flowiq/flowiq-api/internal/task"
	"github.com/google/uuid"
)

const (
	// symptomDigestWindow bounds how far back symptom observations feed
	// the insight prompt.
	symptomDigestWindow = 90 * 24 * time.Hour

	// topSymptomCount caps how many symptom frequencies the prompt lists.
	topSymptomCount = 5
)

// HistoryDigest condenses a user's stored history into the summary the
// insight generator writes from. It implements task.HistoryDigester.
type HistoryDigest struct {
	cycleStore   store.CycleStore
	symptomStore store.SymptomStore
	moodStore    store.MoodStore
	predictor    prediction.Service
	forecaster   forecast.Service
	logger       *slog.Logger
	now          func() time.Time
}

// NewHistoryDigest creates a new HistoryDigest.
// It returns an error if any of the required dependencies are nil.
func NewHistoryDigest(
	cycleStore store.CycleStore,
	symptomStore store.SymptomStore,
	moodStore store.MoodStore,
	predictor prediction.Service,
	forecaster forecast.Service,
	logger *slog.Logger,
) (*HistoryDigest, error) {
	if cycleStore == nil {
		return nil, errors.New("cycleStore cannot be nil")
	}
	if symptomStore == nil {
		return nil, errors.New("symptomStore cannot be nil")
	}
	if moodStore == nil {
		return nil, errors.New("moodStore cannot be nil")
	}
	if predictor == nil {
		return nil, errors.New("predictor cannot be nil")
	}
	if forecaster == nil {
		return nil, errors.New("forecaster cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HistoryDigest{
		cycleStore:   cycleStore,
		symptomStore: symptomStore,
		moodStore:    moodStore,
		predictor:    predictor,
		forecaster:   forecaster,
		logger:       logger.With(slog.String("component", "history_digest")),
		now:          time.Now,
	}, nil
}

// BuildInsightRequest implements task.HistoryDigester. A user with no
// recorded cycles still gets a request; the prediction fields stay zero
// and the generator writes from whatever symptom and mood context exists.
func (d *HistoryDigest) BuildInsightRequest(
	ctx context.Context,
	userID uuid.UUID,
) (generation.InsightRequest, error) {
	history, err := d.cycleStore.ListHistory(ctx, userID)
	if err != nil {
		return generation.InsightRequest{}, fmt.Errorf("failed to load cycle history: %w", err)
	}

	stats := d.predictor.Stats(history)
	req := generation.InsightRequest{
		CycleCount:      stats.Count,
		MeanCycleLength: stats.MeanLength,
		MinCycleLength:  stats.MinLength,
		MaxCycleLength:  stats.MaxLength,
		LastStartDate:   stats.LatestStartAt,
	}

	result, err := d.predictor.PredictNext(history, d.now())
	switch {
	case err == nil:
		req.PredictedStart = result.NextStartDate
		req.Confidence = result.Confidence
	case errors.Is(err, domain.ErrInsufficientHistory):
		// Leave the prediction fields zero.
	default:
		return generation.InsightRequest{}, fmt.Errorf("failed to compute prediction: %w", err)
	}

	topSymptoms, err := d.topSymptoms(ctx, userID)
	if err != nil {
		return generation.InsightRequest{}, err
	}
	req.TopSymptoms = topSymptoms

	moods, err := d.moodStore.ListRecent(ctx, userID, moodFetchLimit)
	if err != nil {
		return generation.InsightRequest{}, fmt.Errorf("failed to load mood entries: %w", err)
	}
	trend, err := d.forecaster.MoodTrend(moods)
	if err != nil {
		return generation.InsightRequest{}, fmt.Errorf("failed to compute mood trend: %w", err)
	}
	req.MoodTrend = string(trend.Bucket)

	d.logger.Debug("built insight request",
		slog.String("user_id", userID.String()),
		slog.Int("cycle_count", req.CycleCount),
		slog.Int("top_symptoms", len(req.TopSymptoms)))

	return req, nil
}

// topSymptoms counts recent observations per symptom name and returns the
// most frequent ones, ties broken alphabetically.
func (d *HistoryDigest) topSymptoms(
	ctx context.Context,
	userID uuid.UUID,
) ([]generation.SymptomFrequency, error) {
	now := d.now()
	observations, err := d.symptomStore.ListByUserBetween(ctx, userID, now.Add(-symptomDigestWindow), now)
	if err != nil {
		return nil, fmt.Errorf("failed to load symptom observations: %w", err)
	}
	if len(observations) == 0 {
		return nil, nil
	}

	counts := make(map[string]int)
	for _, obs := range observations {
		counts[obs.Symptom]++
	}

	frequencies := make([]generation.SymptomFrequency, 0, len(counts))
	for name, count := range counts {
		frequencies = append(frequencies, generation.SymptomFrequency{Name: name, Count: count})
	}
	sort.Slice(frequencies, func(i, j int) bool {
		if frequencies[i].Count != frequencies[j].Count {
			return frequencies[i].Count > frequencies[j].Count
		}
		return frequencies[i].Name < frequencies[j].Name
	})

	if len(frequencies) > topSymptomCount {
		frequencies = frequencies[:topSymptomCount]
	}
	return frequencies, nil
}

var _ task.HistoryDigester = (*HistoryDigest)(nil)

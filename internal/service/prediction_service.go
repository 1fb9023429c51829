package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowiq/flowiq-api/internal/cache"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/forecast"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/metrics"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
)

// moodFetchLimit bounds how many recent mood entries are loaded for trend
// computation; the trend itself windows further.
const moodFetchLimit = 30

// ForecastResult bundles the M-day symptom outlook with the current mood
// trend.
type ForecastResult struct {
	Days []forecast.DayForecast `json:"days"`
	Mood forecast.MoodSummary   `json:"mood"`
}

// PredictionService computes predictions, phase lookups and forecasts over
// the user's stored history. Results are pure functions of that history;
// the next-cycle prediction is additionally cached per user until the
// history changes or the TTL lapses.
type PredictionService interface {
	// NextPrediction returns the user's next-cycle prediction, from cache
	// when a fresh entry exists. Returns domain.ErrInsufficientHistory for
	// users with no recorded cycles.
	NextPrediction(ctx context.Context, userID uuid.UUID) (*domain.PredictionResult, error)

	// Phase resolves the cycle phase for the given date.
	Phase(ctx context.Context, userID uuid.UUID, date time.Time) (*prediction.PhaseResult, error)

	// Forecast estimates per-symptom probabilities for the coming days and
	// summarizes the current mood trend.
	Forecast(ctx context.Context, userID uuid.UUID, days int) (*ForecastResult, error)
}

// predictionServiceImpl implements the PredictionService interface
type predictionServiceImpl struct {
	cycleStore   store.CycleStore
	symptomStore store.SymptomStore
	moodStore    store.MoodStore
	cache        cache.Provider
	cacheTTL     time.Duration
	predictor    prediction.Service
	forecaster   forecast.Service
	logger       *slog.Logger
	now          func() time.Time
}

// NewPredictionService creates a new PredictionService.
// It returns an error if any of the required dependencies are nil.
func NewPredictionService(
	cycleStore store.CycleStore,
	symptomStore store.SymptomStore,
	moodStore store.MoodStore,
	cacheProvider cache.Provider,
	cacheTTL time.Duration,
	predictor prediction.Service,
	forecaster forecast.Service,
	logger *slog.Logger,
) (PredictionService, error) {
	if cycleStore == nil {
		return nil, errors.New("cycleStore cannot be nil")
	}
	if symptomStore == nil {
		return nil, errors.New("symptomStore cannot be nil")
	}
	if moodStore == nil {
		return nil, errors.New("moodStore cannot be nil")
	}
	if cacheProvider == nil {
		return nil, errors.New("cacheProvider cannot be nil")
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

	return &predictionServiceImpl{
		cycleStore:   cycleStore,
		symptomStore: symptomStore,
		moodStore:    moodStore,
		cache:        cacheProvider,
		cacheTTL:     cacheTTL,
		predictor:    predictor,
		forecaster:   forecaster,
		logger:       logger.With(slog.String("component", "prediction_service")),
		now:          time.Now,
	}, nil
}

// predictionCacheKey names the per-user cached next-cycle prediction.
func predictionCacheKey(userID uuid.UUID) string {
	return "prediction:next:" + userID.String()
}

// NextPrediction implements PredictionService.NextPrediction.
func (s *predictionServiceImpl) NextPrediction(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.PredictionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := predictionCacheKey(userID)

	if data, err := s.cache.Get(ctx, key); err == nil {
		var cached domain.PredictionResult
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.ObservePredictionCache(true)
			log.Debug("served prediction from cache",
				slog.String("user_id", userID.String()))
			return &cached, nil
		}
		// An undecodable entry is treated as a miss and overwritten below.
	}
	metrics.ObservePredictionCache(false)

	history, err := s.cycleStore.ListHistory(ctx, userID)
	if err != nil {
		log.Error("failed to load cycle history for prediction",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load cycle history: %w", err)
	}

	result, err := s.predictor.PredictNext(history, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHistory) {
			log.Debug("prediction refused for empty history",
				slog.String("user_id", userID.String()))
		} else {
			log.Error("failed to compute prediction",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, err
	}
	metrics.ObservePrediction(string(result.Basis))

	if payload, err := json.Marshal(result); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.cacheTTL); err != nil {
			log.Warn("failed to cache prediction",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
	}

	log.Debug("computed prediction",
		slog.String("user_id", userID.String()),
		slog.String("basis", string(result.Basis)),
		slog.Int("sample_count", result.SampleCount))

	return result, nil
}

// Phase implements PredictionService.Phase.
func (s *predictionServiceImpl) Phase(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
) (*prediction.PhaseResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	history, err := s.cycleStore.ListHistory(ctx, userID)
	if err != nil {
		log.Error("failed to load cycle history for phase lookup",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load cycle history: %w", err)
	}

	result, err := s.predictor.PhaseForDate(history, date)
	if err != nil {
		log.Debug("phase lookup failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("date", date.Format("2006-01-02")))
		return nil, err
	}

	return result, nil
}

// Forecast implements PredictionService.Forecast.
func (s *predictionServiceImpl) Forecast(
	ctx context.Context,
	userID uuid.UUID,
	days int,
) (*ForecastResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	history, err := s.cycleStore.ListHistory(ctx, userID)
	if err != nil {
		log.Error("failed to load cycle history for forecast",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load cycle history: %w", err)
	}

	observations, err := s.symptomStore.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to load symptom observations for forecast",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load symptom observations: %w", err)
	}

	dayForecasts, err := s.forecaster.ForecastSymptoms(history, observations, s.now(), days)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHistory) {
			log.Debug("forecast refused for empty history",
				slog.String("user_id", userID.String()))
		} else {
			log.Error("failed to compute symptom forecast",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, err
	}

	moods, err := s.moodStore.ListRecent(ctx, userID, moodFetchLimit)
	if err != nil {
		log.Error("failed to load mood entries for forecast",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load mood entries: %w", err)
	}

	mood, err := s.forecaster.MoodTrend(moods)
	if err != nil {
		log.Error("failed to compute mood trend",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to compute mood trend: %w", err)
	}

	return &ForecastResult{Days: dayForecasts, Mood: mood}, nil
}

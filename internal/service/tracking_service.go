package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
)

// TrackingService records day-to-day symptom and mood observations. These
// are lighter-weight than cycle records: they carry no ordering rule and
// do not invalidate cached predictions.
type TrackingService interface {
	// LogSymptom records a symptom observation for the given user.
	LogSymptom(ctx context.Context, userID uuid.UUID, date time.Time, symptom string, intensity int) (*domain.SymptomObservation, error)

	// ListSymptoms returns the user's symptom observations in ascending
	// date order. Zero-valued from and to mean the full history; otherwise
	// the inclusive [from, to] range.
	ListSymptoms(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.SymptomObservation, error)

	// LogMood records a mood entry for the given user.
	LogMood(ctx context.Context, userID uuid.UUID, date time.Time, score int) (*domain.MoodEntry, error)

	// ListMoods returns the most recent mood entries for the user, newest
	// first, up to limit.
	ListMoods(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.MoodEntry, error)
}

// trackingServiceImpl implements the TrackingService interface
type trackingServiceImpl struct {
	symptomStore store.SymptomStore
	moodStore    store.MoodStore
	db           *sql.DB
	logger       *slog.Logger
}

// NewTrackingService creates a new TrackingService.
// It returns an error if any of the required dependencies are nil.
func NewTrackingService(
	symptomStore store.SymptomStore,
	moodStore store.MoodStore,
	db *sql.DB,
	logger *slog.Logger,
) (TrackingService, error) {
	if symptomStore == nil {
		return nil, errors.New("symptomStore cannot be nil")
	}
	if moodStore == nil {
		return nil, errors.New("moodStore cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &trackingServiceImpl{
		symptomStore: symptomStore,
		moodStore:    moodStore,
		db:           db,
		logger:       logger.With(slog.String("component", "tracking_service")),
	}, nil
}

// LogSymptom implements TrackingService.LogSymptom.
func (s *trackingServiceImpl) LogSymptom(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
	symptom string,
	intensity int,
) (*domain.SymptomObservation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	obs, err := domain.NewSymptomObservation(userID, date, symptom, intensity)
	if err != nil {
		log.Debug("rejected invalid symptom observation",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.symptomStore.WithTx(tx).Create(ctx, obs)
	})
	if err != nil {
		log.Error("failed to save symptom observation",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to save symptom observation: %w", err)
	}

	log.Debug("symptom observation recorded",
		slog.String("observation_id", obs.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("symptom", obs.Symptom))

	return obs, nil
}

// ListSymptoms implements TrackingService.ListSymptoms.
func (s *trackingServiceImpl) ListSymptoms(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.SymptomObservation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var observations []*domain.SymptomObservation
	var err error
	if from.IsZero() && to.IsZero() {
		observations, err = s.symptomStore.ListByUser(ctx, userID)
	} else {
		observations, err = s.symptomStore.ListByUserBetween(ctx, userID, from, to)
	}
	if err != nil {
		log.Error("failed to list symptom observations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list symptom observations: %w", err)
	}

	return observations, nil
}

// LogMood implements TrackingService.LogMood.
func (s *trackingServiceImpl) LogMood(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
	score int,
) (*domain.MoodEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := domain.NewMoodEntry(userID, date, score)
	if err != nil {
		log.Debug("rejected invalid mood entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.moodStore.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		log.Error("failed to save mood entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to save mood entry: %w", err)
	}

	log.Debug("mood entry recorded",
		slog.String("entry_id", entry.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("score", entry.Score))

	return entry, nil
}

// ListMoods implements TrackingService.ListMoods.
func (s *trackingServiceImpl) ListMoods(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.MoodEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = moodFetchLimit
	}

	entries, err := s.moodStore.ListRecent(ctx, userID, limit)
	if err != nil {
		log.Error("failed to list mood entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list mood entries: %w", err)
	}

	return entries, nil
}

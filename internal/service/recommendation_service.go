package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/recommend"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
)

// RecommendationService scores recommendation templates for the user's
// current cycle phase and records their feedback on past suggestions.
type RecommendationService interface {
	// Recommendations returns scored suggestions for the user's current
	// phase, best first. Returns domain.ErrInsufficientHistory for users
	// with no recorded cycles.
	Recommendations(ctx context.Context, userID uuid.UUID) ([]recommend.Recommendation, error)

	// RecordFeedback stores whether the user found a recommendation
	// helpful. Returns ErrUnknownRecommendation for template IDs the
	// engine has never served.
	RecordFeedback(ctx context.Context, userID uuid.UUID, recommendationID string, helpful bool) (*domain.RecommendationFeedback, error)
}

// recommendationServiceImpl implements the RecommendationService interface
type recommendationServiceImpl struct {
	cycleStore    store.CycleStore
	feedbackStore store.FeedbackStore
	engine        *recommend.Engine
	predictor     prediction.Service
	db            *sql.DB
	logger        *slog.Logger
	now           func() time.Time
}

// NewRecommendationService creates a new RecommendationService.
// It returns an error if any of the required dependencies are nil.
func NewRecommendationService(
	cycleStore store.CycleStore,
	feedbackStore store.FeedbackStore,
	engine *recommend.Engine,
	predictor prediction.Service,
	db *sql.DB,
	logger *slog.Logger,
) (RecommendationService, error) {
	if cycleStore == nil {
		return nil, errors.New("cycleStore cannot be nil")
	}
	if feedbackStore == nil {
		return nil, errors.New("feedbackStore cannot be nil")
	}
	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if predictor == nil {
		return nil, errors.New("predictor cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &recommendationServiceImpl{
		cycleStore:    cycleStore,
		feedbackStore: feedbackStore,
		engine:        engine,
		predictor:     predictor,
		db:            db,
		logger:        logger.With(slog.String("component", "recommendation_service")),
		now:           time.Now,
	}, nil
}

// Recommendations implements RecommendationService.Recommendations.
func (s *recommendationServiceImpl) Recommendations(
	ctx context.Context,
	userID uuid.UUID,
) ([]recommend.Recommendation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	history, err := s.cycleStore.ListHistory(ctx, userID)
	if err != nil {
		log.Error("failed to load cycle history for recommendations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load cycle history: %w", err)
	}

	phase, err := s.predictor.PhaseForDate(history, now)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientHistory) {
			log.Debug("recommendations refused for empty history",
				slog.String("user_id", userID.String()))
		} else {
			log.Error("failed to resolve current phase",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, err
	}

	// Only feedback inside the engine's lookback window affects scores,
	// so older rows are not worth loading.
	feedback, err := s.feedbackStore.ListByUserSince(ctx, userID, now.Add(-s.engine.Lookback()))
	if err != nil {
		log.Error("failed to load recommendation feedback",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load recommendation feedback: %w", err)
	}

	recommendations := s.engine.Recommend(phase.Phase, feedback, now)

	log.Debug("recommendations scored",
		slog.String("user_id", userID.String()),
		slog.String("phase", string(phase.Phase)),
		slog.Int("count", len(recommendations)))

	return recommendations, nil
}

// RecordFeedback implements RecommendationService.RecordFeedback.
func (s *recommendationServiceImpl) RecordFeedback(
	ctx context.Context,
	userID uuid.UUID,
	recommendationID string,
	helpful bool,
) (*domain.RecommendationFeedback, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !s.engine.Known(recommendationID) {
		log.Debug("feedback for unknown recommendation",
			slog.String("recommendation_id", recommendationID),
			slog.String("user_id", userID.String()))
		return nil, ErrUnknownRecommendation
	}

	fb, err := domain.NewRecommendationFeedback(userID, recommendationID, helpful)
	if err != nil {
		log.Debug("rejected invalid recommendation feedback",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.feedbackStore.WithTx(tx).Create(ctx, fb)
	})
	if err != nil {
		log.Error("failed to save recommendation feedback",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to save recommendation feedback: %w", err)
	}

	log.Debug("recommendation feedback recorded",
		slog.String("feedback_id", fb.ID.String()),
		slog.String("recommendation_id", recommendationID),
		slog.String("user_id", userID.String()),
		slog.Bool("helpful", helpful))

	return fb, nil
}

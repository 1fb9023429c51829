package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/events"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/flowiq/flowiq-api/internal/task"
	"github.com/google/uuid"
)

// InsightService manages AI-written insights over a user's history.
// Creation is asynchronous: RequestInsight persists a pending row and
// emits a task-request event; a background worker fills in the content.
type InsightService interface {
	// RequestInsight creates a pending insight for the user and queues its
	// generation.
	RequestInsight(ctx context.Context, userID uuid.UUID) (*domain.Insight, error)

	// GetInsight retrieves one of the user's insights by ID. Returns
	// ErrInsightNotFound when no such insight exists and ErrNotOwned when
	// it belongs to another user.
	GetInsight(ctx context.Context, userID, insightID uuid.UUID) (*domain.Insight, error)

	// ListInsights returns the user's insights, newest first.
	ListInsights(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Insight, error)
}

// insightServiceImpl implements the InsightService interface
type insightServiceImpl struct {
	insightStore store.InsightStore
	eventEmitter events.EventEmitter
	db           *sql.DB
	logger       *slog.Logger
}

// NewInsightService creates a new InsightService.
// It returns an error if any of the required dependencies are nil.
func NewInsightService(
	insightStore store.InsightStore,
	eventEmitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) (InsightService, error) {
	if insightStore == nil {
		return nil, errors.New("insightStore cannot be nil")
	}
	if eventEmitter == nil {
		return nil, errors.New("eventEmitter cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &insightServiceImpl{
		insightStore: insightStore,
		eventEmitter: eventEmitter,
		db:           db,
		logger:       logger.With(slog.String("component", "insight_service")),
	}, nil
}

// RequestInsight implements InsightService.RequestInsight.
func (s *insightServiceImpl) RequestInsight(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	insight, err := domain.NewInsight(userID)
	if err != nil {
		log.Debug("rejected invalid insight request",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.insightStore.WithTx(tx).Create(ctx, insight)
	})
	if err != nil {
		log.Error("failed to create insight",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to create insight: %w", err)
	}

	// The event goes out only after the row is committed so a fast worker
	// cannot look up an insight that is not visible yet.
	event, err := task.NewInsightGenerationEvent(insight.ID)
	if err != nil {
		log.Error("failed to build insight generation event",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return nil, fmt.Errorf("failed to build insight generation event: %w", err)
	}
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit insight generation event",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return nil, fmt.Errorf("failed to emit insight generation event: %w", err)
	}

	log.Info("insight requested",
		slog.String("insight_id", insight.ID.String()),
		slog.String("user_id", userID.String()))

	return insight, nil
}

// GetInsight implements InsightService.GetInsight.
func (s *insightServiceImpl) GetInsight(
	ctx context.Context,
	userID, insightID uuid.UUID,
) (*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	insight, err := s.insightStore.GetByID(ctx, insightID)
	if err != nil {
		if errors.Is(err, store.ErrInsightNotFound) {
			log.Debug("insight not found",
				slog.String("insight_id", insightID.String()))
			return nil, ErrInsightNotFound
		}
		log.Error("failed to retrieve insight",
			slog.String("error", err.Error()),
			slog.String("insight_id", insightID.String()))
		return nil, fmt.Errorf("failed to retrieve insight: %w", err)
	}

	if insight.UserID != userID {
		log.Warn("insight access denied",
			slog.String("insight_id", insightID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}

	return insight, nil
}

// ListInsights implements InsightService.ListInsights.
func (s *insightServiceImpl) ListInsights(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	insights, err := s.insightStore.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		log.Error("failed to list insights",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}

	return insights, nil
}

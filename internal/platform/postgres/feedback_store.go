package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
)

// PostgresFeedbackStore implements the store.FeedbackStore interface
// using a PostgreSQL database as the storage backend.
// Feedback is append-only; the recency weighting in the recommendation
// engine decides how much old entries still matter.
type PostgresFeedbackStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFeedbackStore creates a new PostgreSQL implementation of the FeedbackStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFeedbackStore(db store.DBTX, logger *slog.Logger) *PostgresFeedbackStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFeedbackStore{
		db:     db,
		logger: logger.With(slog.String("component", "feedback_store")),
	}
}

// Ensure PostgresFeedbackStore implements store.FeedbackStore interface
var _ store.FeedbackStore = (*PostgresFeedbackStore)(nil)

// Create implements store.FeedbackStore.Create
// It saves a new feedback entry, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresFeedbackStore) Create(ctx context.Context, fb *domain.RecommendationFeedback) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := fb.Validate(); err != nil {
		log.Warn("feedback validation failed during create",
			slog.String("error", err.Error()),
			slog.String("feedback_id", fb.ID.String()))
		return err
	}

	query := `
		INSERT INTO recommendation_feedback (id, user_id, recommendation_id, helpful, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		fb.ID,
		fb.UserID,
		fb.RecommendationID,
		fb.Helpful,
		fb.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during feedback creation",
				slog.String("feedback_id", fb.ID.String()),
				slog.String("user_id", fb.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, fb.UserID)
		}

		log.Error("failed to create feedback",
			slog.String("error", err.Error()),
			slog.String("feedback_id", fb.ID.String()),
			slog.String("user_id", fb.UserID.String()))
		return fmt.Errorf("failed to create feedback: %w", MapError(err))
	}

	log.Info("feedback created successfully",
		slog.String("feedback_id", fb.ID.String()),
		slog.String("user_id", fb.UserID.String()),
		slog.String("recommendation_id", fb.RecommendationID),
		slog.Bool("helpful", fb.Helpful))
	return nil
}

// ListByUserSince implements store.FeedbackStore.ListByUserSince
// It retrieves the user's feedback entries created at or after the given
// time, ordered by creation time descending.
func (s *PostgresFeedbackStore) ListByUserSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]*domain.RecommendationFeedback, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing feedback since",
		slog.String("user_id", userID.String()),
		slog.Time("since", since))

	query := `
		SELECT id, user_id, recommendation_id, helpful, created_at
		FROM recommendation_feedback
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		log.Error("failed to list feedback",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list feedback: %w", MapError(err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.RecommendationFeedback
	for rows.Next() {
		fb := &domain.RecommendationFeedback{}
		var createdAt time.Time

		err := rows.Scan(
			&fb.ID,
			&fb.UserID,
			&fb.RecommendationID,
			&fb.Helpful,
			&createdAt,
		)
		if err != nil {
			log.Error("failed to scan feedback row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}

		fb.CreatedAt = createdAt.UTC()
		entries = append(entries, fb)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating feedback rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating feedback rows: %w", err)
	}

	if entries == nil {
		entries = []*domain.RecommendationFeedback{}
	}

	return entries, nil
}

// WithTx implements store.FeedbackStore.WithTx
// It returns a new FeedbackStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore {
	return &PostgresFeedbackStore{
		db:     tx,
		logger: s.logger,
	}
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
)

// PostgresInsightStore implements the store.InsightStore interface
// using a PostgreSQL database as the storage backend.
type PostgresInsightStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresInsightStore creates a new PostgreSQL implementation of the InsightStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresInsightStore(db store.DBTX, logger *slog.Logger) *PostgresInsightStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresInsightStore{
		db:     db,
		logger: logger.With(slog.String("component", "insight_store")),
	}
}

// Ensure PostgresInsightStore implements store.InsightStore interface
var _ store.InsightStore = (*PostgresInsightStore)(nil)

// Create implements store.InsightStore.Create
// It saves a new insight to the database, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresInsightStore) Create(ctx context.Context, insight *domain.Insight) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := insight.Validate(); err != nil {
		log.Warn("insight validation failed during create",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return err
	}

	query := `
		INSERT INTO insights (id, user_id, status, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		insight.ID,
		insight.UserID,
		insight.Status,
		insight.Content,
		insight.CreatedAt,
		insight.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during insight creation",
				slog.String("insight_id", insight.ID.String()),
				slog.String("user_id", insight.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, insight.UserID)
		}

		log.Error("failed to create insight",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()),
			slog.String("user_id", insight.UserID.String()))
		return fmt.Errorf("failed to create insight: %w", MapError(err))
	}

	log.Info("insight created successfully",
		slog.String("insight_id", insight.ID.String()),
		slog.String("user_id", insight.UserID.String()),
		slog.String("status", string(insight.Status)))
	return nil
}

// GetByID implements store.InsightStore.GetByID
// It retrieves an insight by its unique ID.
// Returns store.ErrInsightNotFound if the insight does not exist.
func (s *PostgresInsightStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving insight by ID", slog.String("insight_id", id.String()))

	query := `
		SELECT id, user_id, status, content, created_at, updated_at
		FROM insights
		WHERE id = $1
	`

	insight, err := scanInsight(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("insight not found", slog.String("insight_id", id.String()))
			return nil, store.ErrInsightNotFound
		}

		log.Error("failed to get insight by ID",
			slog.String("error", err.Error()),
			slog.String("insight_id", id.String()))
		return nil, fmt.Errorf("failed to get insight by ID: %w", MapError(err))
	}

	return insight, nil
}

// ListByUser implements store.InsightStore.ListByUser
// It retrieves a page of the user's insights ordered by creation time
// descending (newest first).
func (s *PostgresInsightStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	log.Debug("listing insights for user",
		slog.String("user_id", userID.String()),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT id, user_id, status, content, created_at, updated_at
		FROM insights
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list insights",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list insights: %w", MapError(err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var insights []*domain.Insight
	for rows.Next() {
		insight, err := scanInsight(rows)
		if err != nil {
			log.Error("failed to scan insight row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan insight row: %w", err)
		}
		insights = append(insights, insight)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating insight rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating insight rows: %w", err)
	}

	if insights == nil {
		insights = []*domain.Insight{}
	}

	return insights, nil
}

// Update implements store.InsightStore.Update
// It saves changes to an existing insight, typically the generated content
// together with the resulting status.
// Returns store.ErrInsightNotFound if the insight does not exist.
func (s *PostgresInsightStore) Update(ctx context.Context, insight *domain.Insight) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := insight.Validate(); err != nil {
		log.Warn("insight validation failed during update",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return err
	}

	insight.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE insights
		SET status = $1, content = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		insight.Status,
		insight.Content,
		insight.UpdatedAt,
		insight.ID,
	)

	if err != nil {
		log.Error("failed to update insight",
			slog.String("error", err.Error()),
			slog.String("insight_id", insight.ID.String()))
		return fmt.Errorf("failed to update insight: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrInsightNotFound); err != nil {
		if errors.Is(err, store.ErrInsightNotFound) {
			log.Warn("insight not found during update",
				slog.String("insight_id", insight.ID.String()))
		}
		return err
	}

	log.Info("insight updated successfully",
		slog.String("insight_id", insight.ID.String()),
		slog.String("status", string(insight.Status)))
	return nil
}

// UpdateStatus implements store.InsightStore.UpdateStatus
// It updates only the status of an existing insight, as the background
// task does when claiming or abandoning work.
// Returns store.ErrInsightNotFound if the insight does not exist.
// Returns domain.ErrInvalidInsightStatus if the status is not valid.
func (s *PostgresInsightStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.InsightStatus,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Route the status through the domain's own transition check.
	tempInsight := &domain.Insight{}
	if err := tempInsight.UpdateStatus(status); err != nil {
		log.Warn("invalid insight status for update",
			slog.String("insight_id", id.String()),
			slog.String("status", string(status)))
		return err
	}

	query := `
		UPDATE insights
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)

	if err != nil {
		log.Error("failed to update insight status",
			slog.String("error", err.Error()),
			slog.String("insight_id", id.String()),
			slog.String("status", string(status)))
		return fmt.Errorf("failed to update insight status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrInsightNotFound); err != nil {
		if errors.Is(err, store.ErrInsightNotFound) {
			log.Warn("insight not found during status update",
				slog.String("insight_id", id.String()))
		}
		return err
	}

	log.Info("insight status updated successfully",
		slog.String("insight_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// WithTx implements store.InsightStore.WithTx
// It returns a new InsightStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresInsightStore) WithTx(tx *sql.Tx) store.InsightStore {
	return &PostgresInsightStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanInsight scans a single insights row into a domain Insight.
func scanInsight(row rowScanner) (*domain.Insight, error) {
	insight := &domain.Insight{}

	var content sql.NullString
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&insight.ID,
		&insight.UserID,
		&insight.Status,
		&content,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	insight.Content = content.String
	insight.CreatedAt = createdAt.UTC()
	insight.UpdatedAt = updatedAt.UTC()

	return insight, nil
}

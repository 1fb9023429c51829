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

// PostgresSymptomStore implements the store.SymptomStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSymptomStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSymptomStore creates a new PostgreSQL implementation of the SymptomStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSymptomStore(db store.DBTX, logger *slog.Logger) *PostgresSymptomStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSymptomStore{
		db:     db,
		logger: logger.With(slog.String("component", "symptom_store")),
	}
}

// Ensure PostgresSymptomStore implements store.SymptomStore interface
var _ store.SymptomStore = (*PostgresSymptomStore)(nil)

// Create implements store.SymptomStore.Create
// It saves a new symptom observation, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresSymptomStore) Create(ctx context.Context, obs *domain.SymptomObservation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := obs.Validate(); err != nil {
		log.Warn("symptom observation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("observation_id", obs.ID.String()))
		return err
	}

	query := `
		INSERT INTO symptom_observations (id, user_id, date, symptom, intensity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		obs.ID,
		obs.UserID,
		obs.Date,
		obs.Symptom,
		obs.Intensity,
		obs.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during symptom creation",
				slog.String("observation_id", obs.ID.String()),
				slog.String("user_id", obs.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, obs.UserID)
		}

		log.Error("failed to create symptom observation",
			slog.String("error", err.Error()),
			slog.String("observation_id", obs.ID.String()),
			slog.String("user_id", obs.UserID.String()))
		return fmt.Errorf("failed to create symptom observation: %w", MapError(err))
	}

	log.Info("symptom observation created successfully",
		slog.String("observation_id", obs.ID.String()),
		slog.String("user_id", obs.UserID.String()),
		slog.String("symptom", obs.Symptom))
	return nil
}

// ListByUser implements store.SymptomStore.ListByUser
// It retrieves all of the user's symptom observations ordered by date
// ascending, the shape the forecast heuristics consume.
func (s *PostgresSymptomStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.SymptomObservation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing symptom observations for user", slog.String("user_id", userID.String()))

	query := `
		SELECT id, user_id, date, symptom, intensity, created_at
		FROM symptom_observations
		WHERE user_id = $1
		ORDER BY date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list symptom observations",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list symptom observations: %w", MapError(err))
	}

	return collectSymptomObservations(log, rows)
}

// ListByUserBetween implements store.SymptomStore.ListByUserBetween
// It retrieves the user's symptom observations with from <= date <= to,
// ordered by date ascending.
func (s *PostgresSymptomStore) ListByUserBetween(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.SymptomObservation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing symptom observations in range",
		slog.String("user_id", userID.String()),
		slog.Time("from", from),
		slog.Time("to", to))

	query := `
		SELECT id, user_id, date, symptom, intensity, created_at
		FROM symptom_observations
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		log.Error("failed to list symptom observations in range",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list symptom observations in range: %w", MapError(err))
	}

	return collectSymptomObservations(log, rows)
}

// WithTx implements store.SymptomStore.WithTx
// It returns a new SymptomStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresSymptomStore) WithTx(tx *sql.Tx) store.SymptomStore {
	return &PostgresSymptomStore{
		db:     tx,
		logger: s.logger,
	}
}

// collectSymptomObservations drains a symptom_observations result set,
// returning an empty slice rather than nil when no rows matched.
func collectSymptomObservations(log *slog.Logger, rows *sql.Rows) ([]*domain.SymptomObservation, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var observations []*domain.SymptomObservation
	for rows.Next() {
		obs := &domain.SymptomObservation{}
		var date, createdAt time.Time

		err := rows.Scan(
			&obs.ID,
			&obs.UserID,
			&date,
			&obs.Symptom,
			&obs.Intensity,
			&createdAt,
		)
		if err != nil {
			log.Error("failed to scan symptom row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan symptom row: %w", err)
		}

		obs.Date = date.UTC()
		obs.CreatedAt = createdAt.UTC()
		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating symptom rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating symptom rows: %w", err)
	}

	if observations == nil {
		observations = []*domain.SymptomObservation{}
	}

	return observations, nil
}

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

// PostgresWellnessStore implements the store.WellnessStore interface
// using a PostgreSQL database as the storage backend.
type PostgresWellnessStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWellnessStore creates a new PostgreSQL implementation of the WellnessStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresWellnessStore(db store.DBTX, logger *slog.Logger) *PostgresWellnessStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWellnessStore{
		db:     db,
		logger: logger.With(slog.String("component", "wellness_store")),
	}
}

// Ensure PostgresWellnessStore implements store.WellnessStore interface
var _ store.WellnessStore = (*PostgresWellnessStore)(nil)

// Upsert implements store.WellnessStore.Upsert
// It saves a wellness sample, replacing the metrics of any existing sample
// for the same user, date, and source. Provider syncs replay date ranges,
// so the write must be idempotent. A replaced row keeps its original ID
// and creation time.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresWellnessStore) Upsert(ctx context.Context, sample *domain.WellnessSample) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := sample.Validate(); err != nil {
		log.Warn("wellness sample validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("sample_id", sample.ID.String()))
		return err
	}

	query := `
		INSERT INTO wellness_samples (id, user_id, date, sleep_hours, active_minutes, resting_hrv, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, date, source) DO UPDATE
		SET sleep_hours = EXCLUDED.sleep_hours,
		    active_minutes = EXCLUDED.active_minutes,
		    resting_hrv = EXCLUDED.resting_hrv
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		sample.ID,
		sample.UserID,
		sample.Date,
		sample.SleepHours,
		sample.ActiveMinutes,
		sample.RestingHRV,
		sample.Source,
		sample.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during wellness upsert",
				slog.String("sample_id", sample.ID.String()),
				slog.String("user_id", sample.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, sample.UserID)
		}

		log.Error("failed to upsert wellness sample",
			slog.String("error", err.Error()),
			slog.String("sample_id", sample.ID.String()),
			slog.String("user_id", sample.UserID.String()))
		return fmt.Errorf("failed to upsert wellness sample: %w", MapError(err))
	}

	log.Info("wellness sample upserted successfully",
		slog.String("sample_id", sample.ID.String()),
		slog.String("user_id", sample.UserID.String()),
		slog.Time("date", sample.Date),
		slog.String("source", sample.Source))
	return nil
}

// ListByUserBetween implements store.WellnessStore.ListByUserBetween
// It retrieves the user's wellness samples with from <= date <= to,
// ordered by date ascending.
func (s *PostgresWellnessStore) ListByUserBetween(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.WellnessSample, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing wellness samples in range",
		slog.String("user_id", userID.String()),
		slog.Time("from", from),
		slog.Time("to", to))

	query := `
		SELECT id, user_id, date, sleep_hours, active_minutes, resting_hrv, source, created_at
		FROM wellness_samples
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		log.Error("failed to list wellness samples",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list wellness samples: %w", MapError(err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var samples []*domain.WellnessSample
	for rows.Next() {
		sample := &domain.WellnessSample{}
		var date, createdAt time.Time

		err := rows.Scan(
			&sample.ID,
			&sample.UserID,
			&date,
			&sample.SleepHours,
			&sample.ActiveMinutes,
			&sample.RestingHRV,
			&sample.Source,
			&createdAt,
		)
		if err != nil {
			log.Error("failed to scan wellness row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan wellness row: %w", err)
		}

		sample.Date = date.UTC()
		sample.CreatedAt = createdAt.UTC()
		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating wellness rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating wellness rows: %w", err)
	}

	if samples == nil {
		samples = []*domain.WellnessSample{}
	}

	return samples, nil
}

// WithTx implements store.WellnessStore.WithTx
// It returns a new WellnessStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresWellnessStore) WithTx(tx *sql.Tx) store.WellnessStore {
	return &PostgresWellnessStore{
		db:     tx,
		logger: s.logger,
	}
}

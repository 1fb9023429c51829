package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
)

// defaultListLimit caps list queries when the caller does not provide a
// positive limit.
const defaultListLimit = 10

// PostgresCycleStore implements the store.CycleStore interface
// using a PostgreSQL database as the storage backend.
// Cycle history is append-only, so the store exposes no update or delete.
type PostgresCycleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCycleStore creates a new PostgreSQL implementation of the CycleStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCycleStore(db store.DBTX, logger *slog.Logger) *PostgresCycleStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCycleStore{
		db:     db,
		logger: logger.With(slog.String("component", "cycle_store")),
	}
}

// Ensure PostgresCycleStore implements store.CycleStore interface
var _ store.CycleStore = (*PostgresCycleStore)(nil)

// Create implements store.CycleStore.Create
// It appends a new cycle record to the user's history, handling domain validation.
// Returns store.ErrCycleExists if the user already logged a cycle with the
// same start date.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresCycleStore) Create(ctx context.Context, record *domain.CycleRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("cycle record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("cycle_id", record.ID.String()))
		return err
	}

	// Absent symptoms are stored as NULL rather than an empty JSON array.
	var symptomsJSON []byte
	if len(record.Symptoms) > 0 {
		var err error
		symptomsJSON, err = json.Marshal(record.Symptoms)
		if err != nil {
			return fmt.Errorf("failed to encode symptoms: %w", err)
		}
	}

	query := `
		INSERT INTO cycles (id, user_id, start_date, cycle_length, period_length, flow, symptoms, mood_tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		record.ID,
		record.UserID,
		record.StartDate,
		record.CycleLength,
		record.PeriodLength,
		record.Flow,
		symptomsJSON,
		record.MoodTag,
		record.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate start date during cycle creation",
				slog.String("cycle_id", record.ID.String()),
				slog.String("user_id", record.UserID.String()),
				slog.Time("start_date", record.StartDate))
			return MapUniqueViolation(err, store.ErrCycleExists)
		}

		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during cycle creation",
				slog.String("cycle_id", record.ID.String()),
				slog.String("user_id", record.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, record.UserID)
		}

		log.Error("failed to create cycle record",
			slog.String("error", err.Error()),
			slog.String("cycle_id", record.ID.String()),
			slog.String("user_id", record.UserID.String()))
		return fmt.Errorf("failed to create cycle record: %w", MapError(err))
	}

	log.Info("cycle record created successfully",
		slog.String("cycle_id", record.ID.String()),
		slog.String("user_id", record.UserID.String()),
		slog.Time("start_date", record.StartDate))
	return nil
}

// GetByID implements store.CycleStore.GetByID
// It retrieves a cycle record by its unique ID.
// Returns store.ErrCycleNotFound if the record does not exist.
func (s *PostgresCycleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.CycleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving cycle record by ID", slog.String("cycle_id", id.String()))

	query := `
		SELECT id, user_id, start_date, cycle_length, period_length, flow, symptoms, mood_tag, created_at
		FROM cycles
		WHERE id = $1
	`

	record, err := scanCycleRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("cycle record not found", slog.String("cycle_id", id.String()))
			return nil, store.ErrCycleNotFound
		}

		log.Error("failed to get cycle record by ID",
			slog.String("error", err.Error()),
			slog.String("cycle_id", id.String()))
		return nil, fmt.Errorf("failed to get cycle record by ID: %w", MapError(err))
	}

	return record, nil
}

// ListByUser implements store.CycleStore.ListByUser
// It retrieves a page of the user's cycle records ordered by start date
// descending (newest first).
func (s *PostgresCycleStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CycleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	log.Debug("listing cycle records for user",
		slog.String("user_id", userID.String()),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	query := `
		SELECT id, user_id, start_date, cycle_length, period_length, flow, symptoms, mood_tag, created_at
		FROM cycles
		WHERE user_id = $1
		ORDER BY start_date DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to list cycle records",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list cycle records: %w", MapError(err))
	}

	return collectCycleRecords(log, rows)
}

// ListHistory implements store.CycleStore.ListHistory
// It retrieves the user's complete cycle history ordered by start date
// ascending, the shape the prediction and forecast heuristics consume.
func (s *PostgresCycleStore) ListHistory(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.CycleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("loading cycle history for user", slog.String("user_id", userID.String()))

	query := `
		SELECT id, user_id, start_date, cycle_length, period_length, flow, symptoms, mood_tag, created_at
		FROM cycles
		WHERE user_id = $1
		ORDER BY start_date ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to load cycle history",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to load cycle history: %w", MapError(err))
	}

	return collectCycleRecords(log, rows)
}

// WithTx implements store.CycleStore.WithTx
// It returns a new CycleStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresCycleStore) WithTx(tx *sql.Tx) store.CycleStore {
	return &PostgresCycleStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows so single-row and multi-row
// reads share one scan path.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCycleRecord scans a single cycles row into a domain CycleRecord.
func scanCycleRecord(row rowScanner) (*domain.CycleRecord, error) {
	record := &domain.CycleRecord{}

	var symptomsJSON []byte
	var moodTag sql.NullString
	var startDate, createdAt time.Time

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&startDate,
		&record.CycleLength,
		&record.PeriodLength,
		&record.Flow,
		&symptomsJSON,
		&moodTag,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	record.StartDate = startDate.UTC()
	record.CreatedAt = createdAt.UTC()
	record.MoodTag = moodTag.String

	if len(symptomsJSON) > 0 {
		if err := json.Unmarshal(symptomsJSON, &record.Symptoms); err != nil {
			return nil, fmt.Errorf("failed to decode symptoms: %w", err)
		}
	}

	return record, nil
}

// collectCycleRecords drains a cycles result set, returning an empty slice
// rather than nil when no rows matched.
func collectCycleRecords(log *slog.Logger, rows *sql.Rows) ([]*domain.CycleRecord, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var records []*domain.CycleRecord
	for rows.Next() {
		record, err := scanCycleRecord(rows)
		if err != nil {
			log.Error("failed to scan cycle row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan cycle row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating cycle rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating cycle rows: %w", err)
	}

	if records == nil {
		records = []*domain.CycleRecord{}
	}

	return records, nil
}

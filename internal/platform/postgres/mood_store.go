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

// PostgresMoodStore implements the store.MoodStore interface
// using a PostgreSQL database as the storage backend.
type PostgresMoodStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresMoodStore creates a new PostgreSQL implementation of the MoodStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresMoodStore(db store.DBTX, logger *slog.Logger) *PostgresMoodStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresMoodStore{
		db:     db,
		logger: logger.With(slog.String("component", "mood_store")),
	}
}

// Ensure PostgresMoodStore implements store.MoodStore interface
var _ store.MoodStore = (*PostgresMoodStore)(nil)

// Create implements store.MoodStore.Create
// It saves a new mood entry, handling domain validation.
// Returns store.ErrInvalidEntity if the user ID doesn't exist (foreign key violation).
func (s *PostgresMoodStore) Create(ctx context.Context, entry *domain.MoodEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("mood entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO mood_entries (id, user_id, date, score, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Date,
		entry.Score,
		entry.CreatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during mood entry creation",
				slog.String("entry_id", entry.ID.String()),
				slog.String("user_id", entry.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, entry.UserID)
		}

		log.Error("failed to create mood entry",
			slog.String("error", err.Error()),
			slog.String("entry_id", entry.ID.String()),
			slog.String("user_id", entry.UserID.String()))
		return fmt.Errorf("failed to create mood entry: %w", MapError(err))
	}

	log.Info("mood entry created successfully",
		slog.String("entry_id", entry.ID.String()),
		slog.String("user_id", entry.UserID.String()),
		slog.Int("score", entry.Score))
	return nil
}

// ListRecent implements store.MoodStore.ListRecent
// It retrieves the user's most recent mood entries ordered by date
// descending, then creation time descending. A limit <= 0 returns the
// full history.
func (s *PostgresMoodStore) ListRecent(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.MoodEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing recent mood entries",
		slog.String("user_id", userID.String()),
		slog.Int("limit", limit))

	var query string
	var args []interface{}

	if limit > 0 {
		query = `
			SELECT id, user_id, date, score, created_at
			FROM mood_entries
			WHERE user_id = $1
			ORDER BY date DESC, created_at DESC
			LIMIT $2
		`
		args = []interface{}{userID, limit}
	} else {
		query = `
			SELECT id, user_id, date, score, created_at
			FROM mood_entries
			WHERE user_id = $1
			ORDER BY date DESC, created_at DESC
		`
		args = []interface{}{userID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list mood entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list mood entries: %w", MapError(err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var entries []*domain.MoodEntry
	for rows.Next() {
		entry := &domain.MoodEntry{}
		var date, createdAt time.Time

		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&date,
			&entry.Score,
			&createdAt,
		)
		if err != nil {
			log.Error("failed to scan mood row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan mood row: %w", err)
		}

		entry.Date = date.UTC()
		entry.CreatedAt = createdAt.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating mood rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating mood rows: %w", err)
	}

	if entries == nil {
		entries = []*domain.MoodEntry{}
	}

	return entries, nil
}

// WithTx implements store.MoodStore.WithTx
// It returns a new MoodStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresMoodStore) WithTx(tx *sql.Tx) store.MoodStore {
	return &PostgresMoodStore{
		db:     tx,
		logger: s.logger,
	}
}

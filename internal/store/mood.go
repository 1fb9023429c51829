package store

import (
	"context"
	"database/sql"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/google/uuid"
)

// MoodStore defines the interface for mood entry persistence.
type MoodStore interface {
	// Create saves a new mood entry.
	// It handles domain validation internally.
	// Returns validation errors from the domain MoodEntry if data is invalid.
	Create(ctx context.Context, entry *domain.MoodEntry) error

	// ListRecent retrieves the user's most recent mood entries ordered by
	// date descending, then creation time descending, limited to limit
	// entries. A limit <= 0 returns all entries.
	// Returns an empty slice if the user has no entries.
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.MoodEntry, error)

	// WithTx returns a new MoodStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) MoodStore
}

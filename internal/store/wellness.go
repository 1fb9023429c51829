package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/google/uuid"
)

// WellnessStore defines the interface for wellness sample persistence.
type WellnessStore interface {
	// Upsert saves a wellness sample, replacing any existing sample for the
	// same user, date, and source. Provider syncs are idempotent, so
	// re-syncing a date range overwrites rather than duplicates.
	// It handles domain validation internally.
	// Returns validation errors from the domain WellnessSample if data is invalid.
	Upsert(ctx context.Context, sample *domain.WellnessSample) error

	// ListByUserBetween retrieves the user's wellness samples with
	// from <= date <= to, ordered by date ascending.
	// Returns an empty slice if no samples fall in the range.
	ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.WellnessSample, error)

	// WithTx returns a new WellnessStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) WellnessStore
}

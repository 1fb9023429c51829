package store

import (
	"context"
	"database/sql"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/google/uuid"
)

// CycleStore defines the interface for cycle record persistence.
// Cycle history is append-only: records are created and read, never
// updated or deleted.
type CycleStore interface {
	// Create appends a new cycle record to the user's history.
	// It handles domain validation internally.
	// Returns ErrCycleExists if the user already has a record with the
	// same start date.
	// Returns validation errors from the domain CycleRecord if data is invalid.
	Create(ctx context.Context, record *domain.CycleRecord) error

	// GetByID retrieves a cycle record by its unique ID.
	// Returns ErrCycleNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CycleRecord, error)

	// ListByUser retrieves a page of the user's cycle records ordered by
	// start date descending (newest first).
	// Returns an empty slice if the user has no records.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.CycleRecord, error)

	// ListHistory retrieves the user's complete cycle history ordered by
	// start date ascending, as consumed by the prediction and forecast
	// algorithms.
	// Returns an empty slice if the user has no records.
	ListHistory(ctx context.Context, userID uuid.UUID) ([]*domain.CycleRecord, error)

	// WithTx returns a new CycleStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CycleStore
}

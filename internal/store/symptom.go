package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/google/uuid"
)

// SymptomStore defines the interface for symptom observation persistence.
type SymptomStore interface {
	// Create saves a new symptom observation.
	// It handles domain validation internally.
	// Returns validation errors from the domain SymptomObservation if data is invalid.
	Create(ctx context.Context, obs *domain.SymptomObservation) error

	// ListByUser retrieves all of the user's symptom observations ordered
	// by date ascending, as consumed by the forecast algorithm.
	// Returns an empty slice if the user has no observations.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.SymptomObservation, error)

	// ListByUserBetween retrieves the user's symptom observations with
	// from <= date <= to, ordered by date ascending.
	// Returns an empty slice if no observations fall in the range.
	ListByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.SymptomObservation, error)

	// WithTx returns a new SymptomStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) SymptomStore
}

package store

import (
	"context"
	"database/sql"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/google/uuid"
)

// InsightStore defines the interface for insight persistence.
type InsightStore interface {
	// Create saves a new insight to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Insight if data is invalid.
	Create(ctx context.Context, insight *domain.Insight) error

	// GetByID retrieves an insight by its unique ID.
	// Returns ErrInsightNotFound if the insight does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error)

	// ListByUser retrieves a page of the user's insights ordered by
	// creation time descending (newest first).
	// Returns an empty slice if the user has no insights.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Insight, error)

	// Update saves changes to an existing insight, typically the generated
	// content together with the resulting status.
	// Returns ErrInsightNotFound if the insight does not exist.
	// Returns validation errors if the insight data is invalid.
	Update(ctx context.Context, insight *domain.Insight) error

	// UpdateStatus updates the status of an existing insight.
	// Returns ErrInsightNotFound if the insight does not exist.
	// Returns validation errors if the status is invalid.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InsightStatus) error

	// WithTx returns a new InsightStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) InsightStore
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/google/uuid"
)

// FeedbackStore defines the interface for recommendation feedback persistence.
// Feedback is append-only: every submission is recorded, and the scoring
// engine decides how much weight recent entries carry.
type FeedbackStore interface {
	// Create saves a new feedback entry.
	// It handles domain validation internally.
	// Returns validation errors from the domain RecommendationFeedback if data is invalid.
	Create(ctx context.Context, fb *domain.RecommendationFeedback) error

	// ListByUserSince retrieves the user's feedback entries created at or
	// after the given time, ordered by creation time descending.
	// Returns an empty slice if no entries match.
	ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*domain.RecommendationFeedback, error)

	// WithTx returns a new FeedbackStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) FeedbackStore
}

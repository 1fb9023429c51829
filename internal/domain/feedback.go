package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for RecommendationFeedback
var (
	ErrEmptyFeedbackID       = errors.New("feedback ID cannot be empty")
	ErrEmptyFeedbackUserID   = errors.New("feedback user ID cannot be empty")
	ErrEmptyRecommendationID = errors.New("feedback recommendation ID cannot be empty")
)

// RecommendationFeedback records whether a user found a recommendation
// template helpful. Recent positive feedback boosts templates sharing a tag;
// negative feedback suppresses the template for a while.
type RecommendationFeedback struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	RecommendationID string    `json:"recommendation_id"`
	Helpful          bool      `json:"helpful"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewRecommendationFeedback creates feedback from the given user on a
// recommendation template. Returns an error if validation fails.
func NewRecommendationFeedback(userID uuid.UUID, recommendationID string, helpful bool) (*RecommendationFeedback, error) {
	fb := &RecommendationFeedback{
		ID:               uuid.New(),
		UserID:           userID,
		RecommendationID: recommendationID,
		Helpful:          helpful,
		CreatedAt:        time.Now().UTC(),
	}

	if err := fb.Validate(); err != nil {
		return nil, err
	}

	return fb, nil
}

// Validate checks if the RecommendationFeedback has valid data.
// Returns an error if any field fails validation.
func (f *RecommendationFeedback) Validate() error {
	if f.ID == uuid.Nil {
		return ErrEmptyFeedbackID
	}

	if f.UserID == uuid.Nil {
		return ErrEmptyFeedbackUserID
	}

	if f.RecommendationID == "" {
		return ErrEmptyRecommendationID
	}

	return nil
}

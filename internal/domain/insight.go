package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InsightStatus represents the processing state of an insight
type InsightStatus string

// Possible insight status values
const (
	InsightStatusPending    InsightStatus = "pending"
	InsightStatusProcessing InsightStatus = "processing"
	InsightStatusCompleted  InsightStatus = "completed"
	InsightStatusFailed     InsightStatus = "failed"
)

// Common validation errors for Insight
var (
	ErrEmptyInsightID     = errors.New("insight ID cannot be empty")
	ErrEmptyInsightUserID = errors.New("insight user ID cannot be empty")
)

// Insight represents an AI-written narrative over a user's recent cycle and
// symptom history. It is created pending, picked up by a background task,
// and completed (or failed) asynchronously.
type Insight struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Status    InsightStatus `json:"status"`
	Content   string        `json:"content,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewInsight creates a new Insight for the given user with pending status.
// The content stays empty until generation completes.
// Returns an error if validation fails.
func NewInsight(userID uuid.UUID) (*Insight, error) {
	insight := &Insight{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    InsightStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := insight.Validate(); err != nil {
		return nil, err
	}

	return insight, nil
}

// Validate checks if the Insight has valid data.
// Returns an error if any field fails validation.
func (i *Insight) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyInsightID
	}

	if i.UserID == uuid.Nil {
		return ErrEmptyInsightUserID
	}

	if !isValidInsightStatus(i.Status) {
		return ErrInvalidInsightStatus
	}

	return nil
}

// UpdateStatus updates the insight's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (i *Insight) UpdateStatus(status InsightStatus) error {
	if !isValidInsightStatus(status) {
		return ErrInvalidInsightStatus
	}

	i.Status = status
	i.UpdatedAt = time.Now().UTC()
	return nil
}

// SetContent stores the generated narrative and marks the insight completed.
func (i *Insight) SetContent(content string) {
	i.Content = content
	i.Status = InsightStatusCompleted
	i.UpdatedAt = time.Now().UTC()
}

// isValidInsightStatus checks if the given status is a valid InsightStatus.
func isValidInsightStatus(status InsightStatus) bool {
	switch status {
	case InsightStatusPending, InsightStatusProcessing, InsightStatusCompleted, InsightStatusFailed:
		return true
	default:
		return false
	}
}

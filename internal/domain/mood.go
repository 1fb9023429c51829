package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Mood score bounds. Scores run 1 (very low) to 5 (very good).
const (
	MinMoodScore = 1
	MaxMoodScore = 5
)

// MoodBucket is the categorical label the mood trend heuristic maps a
// moving-average score onto.
type MoodBucket string

// Possible mood bucket values
const (
	MoodPositive    MoodBucket = "positive"
	MoodNeutral     MoodBucket = "neutral"
	MoodChallenging MoodBucket = "challenging"
)

// Common validation errors for MoodEntry
var (
	ErrEmptyMoodID      = errors.New("mood entry ID cannot be empty")
	ErrEmptyMoodUserID  = errors.New("mood entry user ID cannot be empty")
	ErrEmptyMoodDate    = errors.New("mood entry date cannot be empty")
	ErrInvalidMoodScore = errors.New("mood score must be between 1 and 5")
)

// MoodEntry represents a dated mood score. Mood is tracked as its own stream
// rather than as a symptom because the trend heuristic averages scores
// instead of counting occurrences.
type MoodEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      time.Time `json:"date"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMoodEntry creates a new MoodEntry for the given user.
// Returns an error if validation fails.
func NewMoodEntry(userID uuid.UUID, date time.Time, score int) (*MoodEntry, error) {
	entry := &MoodEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      NormalizeDate(date),
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the MoodEntry has valid data.
// Returns an error if any field fails validation.
func (m *MoodEntry) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyMoodID
	}

	if m.UserID == uuid.Nil {
		return ErrEmptyMoodUserID
	}

	if m.Date.IsZero() {
		return ErrEmptyMoodDate
	}

	if m.Score < MinMoodScore || m.Score > MaxMoodScore {
		return ErrInvalidMoodScore
	}

	return nil
}

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Intensity bounds for a symptom observation. Zero means "noted but barely
// noticeable", three means severe.
const (
	MinSymptomIntensity = 0
	MaxSymptomIntensity = 3
)

// Common validation errors for SymptomObservation
var (
	ErrEmptySymptomID          = errors.New("symptom observation ID cannot be empty")
	ErrEmptySymptomUserID      = errors.New("symptom observation user ID cannot be empty")
	ErrEmptySymptomDate        = errors.New("symptom observation date cannot be empty")
	ErrEmptySymptomName        = errors.New("symptom name cannot be empty")
	ErrInvalidSymptomIntensity = errors.New("symptom intensity must be between 0 and 3")
)

// SymptomObservation represents a single dated symptom report. Observations
// accumulate into the per-user training set the symptom forecaster counts
// frequencies over.
type SymptomObservation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      time.Time `json:"date"`
	Symptom   string    `json:"symptom"`
	Intensity int       `json:"intensity"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSymptomObservation creates a new SymptomObservation for the given user.
// The symptom name is lowercased so "Cramps" and "cramps" count as the same
// symptom when forecasting. Returns an error if validation fails.
func NewSymptomObservation(userID uuid.UUID, date time.Time, symptom string, intensity int) (*SymptomObservation, error) {
	obs := &SymptomObservation{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      NormalizeDate(date),
		Symptom:   strings.ToLower(strings.TrimSpace(symptom)),
		Intensity: intensity,
		CreatedAt: time.Now().UTC(),
	}

	if err := obs.Validate(); err != nil {
		return nil, err
	}

	return obs, nil
}

// Validate checks if the SymptomObservation has valid data.
// Returns an error if any field fails validation.
func (s *SymptomObservation) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySymptomID
	}

	if s.UserID == uuid.Nil {
		return ErrEmptySymptomUserID
	}

	if s.Date.IsZero() {
		return ErrEmptySymptomDate
	}

	if s.Symptom == "" {
		return ErrEmptySymptomName
	}

	if s.Intensity < MinSymptomIntensity || s.Intensity > MaxSymptomIntensity {
		return ErrInvalidSymptomIntensity
	}

	return nil
}

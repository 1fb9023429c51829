package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for WellnessSample
var (
	ErrEmptyWellnessID      = errors.New("wellness sample ID cannot be empty")
	ErrEmptyWellnessUserID  = errors.New("wellness sample user ID cannot be empty")
	ErrEmptyWellnessDate    = errors.New("wellness sample date cannot be empty")
	ErrInvalidSleepHours    = errors.New("sleep hours must be between 0 and 24")
	ErrInvalidActiveMinutes = errors.New("active minutes must be between 0 and 1440")
	ErrInvalidRestingHRV    = errors.New("resting HRV cannot be negative")
	ErrEmptyWellnessSource  = errors.New("wellness sample source cannot be empty")
)

// WellnessSample holds one day of wearable metrics for a user: sleep, activity
// and heart-rate variability. Samples are imported from the provider as-is;
// the wellness score is computed from them on read, never stored.
type WellnessSample struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	Date          time.Time `json:"date"`
	SleepHours    float64   `json:"sleep_hours"`
	ActiveMinutes int       `json:"active_minutes"`
	RestingHRV    float64   `json:"resting_hrv_ms"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewWellnessSample creates a new WellnessSample for the given user.
// Returns an error if validation fails.
func NewWellnessSample(userID uuid.UUID, date time.Time, sleepHours float64, activeMinutes int, restingHRV float64, source string) (*WellnessSample, error) {
	sample := &WellnessSample{
		ID:            uuid.New(),
		UserID:        userID,
		Date:          NormalizeDate(date),
		SleepHours:    sleepHours,
		ActiveMinutes: activeMinutes,
		RestingHRV:    restingHRV,
		Source:        source,
		CreatedAt:     time.Now().UTC(),
	}

	if err := sample.Validate(); err != nil {
		return nil, err
	}

	return sample, nil
}

// Validate checks if the WellnessSample has valid data.
// Returns an error if any field fails validation.
func (w *WellnessSample) Validate() error {
	if w.ID == uuid.Nil {
		return ErrEmptyWellnessID
	}

	if w.UserID == uuid.Nil {
		return ErrEmptyWellnessUserID
	}

	if w.Date.IsZero() {
		return ErrEmptyWellnessDate
	}

	if w.SleepHours < 0 || w.SleepHours > 24 {
		return ErrInvalidSleepHours
	}

	if w.ActiveMinutes < 0 || w.ActiveMinutes > 1440 {
		return ErrInvalidActiveMinutes
	}

	if w.RestingHRV < 0 {
		return ErrInvalidRestingHRV
	}

	if w.Source == "" {
		return ErrEmptyWellnessSource
	}

	return nil
}

// Wellness score targets and weights. A day that hits every target scores
// 100; sub-scores past their target are clamped rather than rewarded.
const (
	SleepTargetHours    = 8.0
	ActiveTargetMinutes = 30.0
	HRVTargetMs         = 60.0

	sleepWeight    = 0.4
	activityWeight = 0.3
	hrvWeight      = 0.3
)

// Score computes the day's wellness score on a 0-100 scale: sleep, activity
// and HRV normalized against their targets, clamped to 1, and weighted
// 0.4/0.3/0.3. The score is display-only and recomputed on every read.
func (w *WellnessSample) Score() float64 {
	sleep := clampUnit(w.SleepHours / SleepTargetHours)
	activity := clampUnit(float64(w.ActiveMinutes) / ActiveTargetMinutes)
	hrv := clampUnit(w.RestingHRV / HRVTargetMs)

	return (sleepWeight*sleep + activityWeight*activity + hrvWeight*hrv) * 100
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

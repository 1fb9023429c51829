package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// FlowIntensity represents the self-reported bleeding intensity for a cycle.
type FlowIntensity string

// Possible flow intensity values
const (
	FlowNone   FlowIntensity = "none"
	FlowLight  FlowIntensity = "light"
	FlowMedium FlowIntensity = "medium"
	FlowHeavy  FlowIntensity = "heavy"
)

// Bounds for plausible cycle data. Values outside these ranges are treated
// as logging mistakes rather than clinical outliers.
const (
	MinCycleLengthDays  = 15
	MaxCycleLengthDays  = 90
	MinPeriodLengthDays = 1
	MaxPeriodLengthDays = 14
)

// Common validation errors for CycleRecord
var (
	ErrEmptyCycleID         = errors.New("cycle ID cannot be empty")
	ErrEmptyCycleUserID     = errors.New("cycle user ID cannot be empty")
	ErrEmptyCycleStartDate  = errors.New("cycle start date cannot be empty")
	ErrInvalidCycleLength   = errors.New("cycle length must be between 15 and 90 days")
	ErrInvalidPeriodLength  = errors.New("period length must be between 1 and 14 days")
	ErrInvalidFlowIntensity = errors.New("invalid flow intensity")
	ErrCycleStartDateNotUTC = errors.New("cycle start date must be normalized to UTC midnight")
)

// CycleRecord represents one completed menstrual cycle in a user's history.
// Records are immutable once logged and form an append-only, chronologically
// ordered set; every prediction is derived from this set alone.
type CycleRecord struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	StartDate    time.Time     `json:"start_date"`
	CycleLength  int           `json:"cycle_length"`
	PeriodLength int           `json:"period_length"`
	Flow         FlowIntensity `json:"flow"`
	Symptoms     []string      `json:"symptoms,omitempty"`
	MoodTag      string        `json:"mood_tag,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewCycleRecord creates a new CycleRecord for the given user.
// The start date is normalized to UTC midnight so day arithmetic in the
// prediction heuristics never crosses timezone boundaries.
// Returns an error if validation fails.
func NewCycleRecord(userID uuid.UUID, startDate time.Time, cycleLength, periodLength int, flow FlowIntensity, symptoms []string, moodTag string) (*CycleRecord, error) {
	record := &CycleRecord{
		ID:           uuid.New(),
		UserID:       userID,
		StartDate:    NormalizeDate(startDate),
		CycleLength:  cycleLength,
		PeriodLength: periodLength,
		Flow:         flow,
		Symptoms:     symptoms,
		MoodTag:      moodTag,
		CreatedAt:    time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the CycleRecord has valid data.
// Returns an error if any field fails validation.
func (c *CycleRecord) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCycleID
	}

	if c.UserID == uuid.Nil {
		return ErrEmptyCycleUserID
	}

	if c.StartDate.IsZero() {
		return ErrEmptyCycleStartDate
	}

	if !c.StartDate.Equal(NormalizeDate(c.StartDate)) {
		return ErrCycleStartDateNotUTC
	}

	if c.CycleLength < MinCycleLengthDays || c.CycleLength > MaxCycleLengthDays {
		return ErrInvalidCycleLength
	}

	if c.PeriodLength < MinPeriodLengthDays || c.PeriodLength > MaxPeriodLengthDays {
		return ErrInvalidPeriodLength
	}

	if !isValidFlowIntensity(c.Flow) {
		return ErrInvalidFlowIntensity
	}

	return nil
}

// EndDate returns the day after the last day of the cycle, i.e. the start
// date of the following cycle implied by this record's length.
func (c *CycleRecord) EndDate() time.Time {
	return c.StartDate.AddDate(0, 0, c.CycleLength)
}

// isValidFlowIntensity checks if the given intensity is a valid FlowIntensity.
func isValidFlowIntensity(flow FlowIntensity) bool {
	switch flow {
	case FlowNone, FlowLight, FlowMedium, FlowHeavy:
		return true
	default:
		return false
	}
}

// NormalizeDate truncates a timestamp to UTC midnight. All calendar dates in
// the domain (cycle starts, observation dates, sample dates) are stored this
// way.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// CycleStats summarizes a user's recorded cycle lengths.
// All fields are zero when the user has no history.
type CycleStats struct {
	Count         int       `json:"count"`
	MeanLength    float64   `json:"mean_length"`
	StdDevLength  float64   `json:"std_dev_length"`
	MinLength     int       `json:"min_length"`
	MaxLength     int       `json:"max_length"`
	LatestStartAt time.Time `json:"latest_start_at"`
}

package prediction

import (
	"errors"
	"sort"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
)

// Common errors
var (
	ErrNilRecord         = errors.New("cycle record cannot be nil")
	ErrDateBeforeHistory = errors.New("date precedes the recorded cycle history")
)

// PhaseResult describes where a given date falls within a cycle.
type PhaseResult struct {
	Phase       domain.CyclePhase `json:"phase"`
	DayInCycle  int               `json:"day_in_cycle"`
	CycleLength int               `json:"cycle_length"`
}

// Service defines the interface for cycle prediction operations.
// All methods are pure functions of the supplied history; nothing is read
// from or written to storage.
type Service interface {
	// PredictNext computes the next-cycle prediction from the user's
	// recorded cycles. Returns domain.ErrInsufficientHistory when the
	// history is empty, since there is no anchor date to predict from.
	PredictNext(history []*domain.CycleRecord, now time.Time) (*domain.PredictionResult, error)

	// PhaseForDate resolves which cycle phase the given date falls in.
	// Dates inside a recorded cycle use that cycle's actual length; dates
	// after the latest recorded start use the predicted length.
	PhaseForDate(history []*domain.CycleRecord, date time.Time) (*PhaseResult, error)

	// Stats summarizes the recorded cycle lengths.
	Stats(history []*domain.CycleRecord) domain.CycleStats
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new prediction service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new prediction service with custom parameters
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// PredictNext implements the Service interface.
func (s *defaultService) PredictNext(history []*domain.CycleRecord, now time.Time) (*domain.PredictionResult, error) {
	ordered, err := sortHistory(history)
	if err != nil {
		return nil, err
	}

	if len(ordered) == 0 {
		return nil, domain.ErrInsufficientHistory
	}

	latest := ordered[len(ordered)-1]
	lengths := make([]int, len(ordered))
	for i, record := range ordered {
		lengths[i] = record.CycleLength
	}

	return calculateNext(latest.StartDate, lengths, now, s.params), nil
}

// PhaseForDate implements the Service interface.
func (s *defaultService) PhaseForDate(history []*domain.CycleRecord, date time.Time) (*PhaseResult, error) {
	ordered, err := sortHistory(history)
	if err != nil {
		return nil, err
	}

	if len(ordered) == 0 {
		return nil, domain.ErrInsufficientHistory
	}

	day := domain.NormalizeDate(date)
	if day.Before(ordered[0].StartDate) {
		return nil, ErrDateBeforeHistory
	}

	// Find the last recorded cycle starting on or before the date.
	anchor := ordered[0]
	for _, record := range ordered[1:] {
		if record.StartDate.After(day) {
			break
		}
		anchor = record
	}

	cycleLength := anchor.CycleLength
	if anchor == ordered[len(ordered)-1] {
		// The date falls in the still-open cycle, whose length is not
		// known yet; use the predicted length instead.
		lengths := make([]int, len(ordered))
		for i, record := range ordered {
			lengths[i] = record.CycleLength
		}
		cycleLength = predictedLength(lengths, s.params)
	}

	dayInCycle := int(day.Sub(anchor.StartDate).Hours()/24) + 1
	phase := phaseForDay(dayInCycle, cycleLength, anchor.PeriodLength, s.params)

	return &PhaseResult{
		Phase:       phase,
		DayInCycle:  dayInCycle,
		CycleLength: cycleLength,
	}, nil
}

// Stats implements the Service interface.
func (s *defaultService) Stats(history []*domain.CycleRecord) domain.CycleStats {
	ordered, err := sortHistory(history)
	if err != nil || len(ordered) == 0 {
		return domain.CycleStats{}
	}

	lengths := make([]int, len(ordered))
	minLength, maxLength := ordered[0].CycleLength, ordered[0].CycleLength
	for i, record := range ordered {
		lengths[i] = record.CycleLength
		if record.CycleLength < minLength {
			minLength = record.CycleLength
		}
		if record.CycleLength > maxLength {
			maxLength = record.CycleLength
		}
	}

	mean := meanLength(lengths)

	return domain.CycleStats{
		Count:         len(ordered),
		MeanLength:    mean,
		StdDevLength:  sampleStdDev(lengths, mean),
		MinLength:     minLength,
		MaxLength:     maxLength,
		LatestStartAt: ordered[len(ordered)-1].StartDate,
	}
}

// sortHistory returns a copy of the history ordered by start date ascending.
// Rejects nil entries rather than skipping them; a nil record in a history
// slice is a programming error upstream.
func sortHistory(history []*domain.CycleRecord) ([]*domain.CycleRecord, error) {
	ordered := make([]*domain.CycleRecord, len(history))
	for i, record := range history {
		if record == nil {
			return nil, ErrNilRecord
		}
		ordered[i] = record
	}

	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartDate.Before(ordered[j].StartDate)
	})

	return ordered, nil
}

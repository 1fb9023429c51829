package forecast

import (
	"errors"
	"sort"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
)

// Common errors
var (
	ErrNilObservation = errors.New("symptom observation cannot be nil")
	ErrNilMoodEntry   = errors.New("mood entry cannot be nil")
)

// DayForecast holds the per-symptom probabilities for one future day.
// Symptoms with no recorded occurrence at the day's cycle offset are absent
// from the map.
type DayForecast struct {
	Date          time.Time          `json:"date"`
	DayInCycle    int                `json:"day_in_cycle"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// MoodSummary is the current mood trend: the moving average of the most
// recent scores and the bucket it falls in.
type MoodSummary struct {
	Bucket      domain.MoodBucket `json:"bucket"`
	Average     float64           `json:"average"`
	SampleCount int               `json:"sample_count"`
}

// Service defines the interface for forecasting operations. Like the
// prediction service, every method is a pure function of its inputs.
type Service interface {
	// ForecastSymptoms estimates per-symptom probabilities for each of the
	// given number of days starting at from. The horizon falls back to the
	// default when days is zero or negative and is capped at the maximum.
	// Returns domain.ErrInsufficientHistory when no cycles are recorded.
	ForecastSymptoms(history []*domain.CycleRecord, observations []*domain.SymptomObservation, from time.Time, days int) ([]DayForecast, error)

	// MoodTrend computes the moving-average mood summary over the most
	// recent entries. An empty stream reads neutral with zero samples.
	MoodTrend(entries []*domain.MoodEntry) (MoodSummary, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params    *Params
	predictor prediction.Service
}

// NewDefaultService creates a new forecast service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params:    NewDefaultParams(),
		predictor: prediction.NewDefaultService(),
	}
}

// NewService creates a new forecast service with custom parameters and the
// given prediction service for cycle anchoring
func NewService(params *Params, predictor prediction.Service) Service {
	return &defaultService{
		params:    params,
		predictor: predictor,
	}
}

// ForecastSymptoms implements the Service interface.
func (s *defaultService) ForecastSymptoms(history []*domain.CycleRecord, observations []*domain.SymptomObservation, from time.Time, days int) ([]DayForecast, error) {
	for _, obs := range observations {
		if obs == nil {
			return nil, ErrNilObservation
		}
	}

	// PredictNext validates the history and yields the anchor for
	// day-in-cycle arithmetic on future dates.
	next, err := s.predictor.PredictNext(history, from)
	if err != nil {
		return nil, err
	}

	if days <= 0 {
		days = s.params.DefaultHorizonDays
	}
	if days > s.params.MaxHorizonDays {
		days = s.params.MaxHorizonDays
	}

	ordered := make([]*domain.CycleRecord, len(history))
	copy(ordered, history)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartDate.Before(ordered[j].StartDate)
	})

	counts := countOccurrences(ordered, observations)
	latestStart := next.NextStartDate.AddDate(0, 0, -next.PredictedLength)
	start := domain.NormalizeDate(from)

	forecasts := make([]DayForecast, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)

		// Future days wrap into the next predicted cycle.
		offset := daysBetween(latestStart, date) % next.PredictedLength
		if offset < 0 {
			offset += next.PredictedLength
		}
		offset++

		forecasts = append(forecasts, DayForecast{
			Date:          date,
			DayInCycle:    offset,
			Probabilities: probabilitiesAt(counts, cyclesReaching(ordered, offset), offset),
		})
	}

	return forecasts, nil
}

// MoodTrend implements the Service interface.
func (s *defaultService) MoodTrend(entries []*domain.MoodEntry) (MoodSummary, error) {
	for _, entry := range entries {
		if entry == nil {
			return MoodSummary{}, ErrNilMoodEntry
		}
	}

	if len(entries) == 0 {
		return MoodSummary{Bucket: domain.MoodNeutral}, nil
	}

	recent := make([]*domain.MoodEntry, len(entries))
	copy(recent, entries)
	sort.SliceStable(recent, func(i, j int) bool {
		if recent[i].Date.Equal(recent[j].Date) {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		}
		return recent[i].Date.After(recent[j].Date)
	})

	window := s.params.MoodWindow
	if window > len(recent) {
		window = len(recent)
	}

	var sum int
	for _, entry := range recent[:window] {
		sum += entry.Score
	}
	average := float64(sum) / float64(window)

	return MoodSummary{
		Bucket:      bucketFor(average, s.params),
		Average:     average,
		SampleCount: window,
	}, nil
}

package forecast

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
)

func makeRecord(t *testing.T, userID uuid.UUID, start time.Time, cycleLength, periodLength int) *domain.CycleRecord {
	t.Helper()
	record, err := domain.NewCycleRecord(userID, start, cycleLength, periodLength, domain.FlowMedium, nil, "")
	if err != nil {
		t.Fatalf("Failed to build cycle record: %v", err)
	}
	return record
}

func makeObservation(t *testing.T, userID uuid.UUID, date time.Time, symptom string) *domain.SymptomObservation {
	t.Helper()
	obs, err := domain.NewSymptomObservation(userID, date, symptom, 1)
	if err != nil {
		t.Fatalf("Failed to build observation: %v", err)
	}
	return obs
}

func TestCountOccurrences(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	history := []*domain.CycleRecord{
		makeRecord(t, userID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 28, 5),
		makeRecord(t, userID, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), 28, 5),
		makeRecord(t, userID, time.Date(2025, 2, 26, 0, 0, 0, 0, time.UTC), 26, 4),
	}

	observations := []*domain.SymptomObservation{
		// Cramps on day 1 of all three cycles
		makeObservation(t, userID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "cramps"),
		makeObservation(t, userID, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), "cramps"),
		makeObservation(t, userID, time.Date(2025, 2, 26, 0, 0, 0, 0, time.UTC), "cramps"),
		// Duplicate log on the same day counts once
		makeObservation(t, userID, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), "cramps"),
		// Headache on day 14 of the first cycle only
		makeObservation(t, userID, time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), "headache"),
		// Outside every recorded cycle: skipped
		makeObservation(t, userID, time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), "cramps"),
		makeObservation(t, userID, time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC), "cramps"),
	}

	counts := countOccurrences(history, observations)

	if got := counts["cramps"][1]; got != 3 {
		t.Errorf("Expected cramps on day 1 in 3 cycles, got %d", got)
	}

	if got := counts["headache"][14]; got != 1 {
		t.Errorf("Expected headache on day 14 in 1 cycle, got %d", got)
	}

	if got := len(counts["cramps"]); got != 1 {
		t.Errorf("Expected cramps at one offset only, got %d", got)
	}
}

func TestLocateOffset(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	history := []*domain.CycleRecord{
		makeRecord(t, userID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 28, 5),
		makeRecord(t, userID, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), 26, 5),
	}

	testCases := []struct {
		name       string
		date       time.Time
		wantCycle  int
		wantOffset int
	}{
		{"first day of first cycle", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 0, 1},
		{"mid first cycle", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 0, 15},
		{"last day of first cycle", time.Date(2025, 1, 28, 0, 0, 0, 0, time.UTC), 0, 28},
		{"first day of second cycle", time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), 1, 1},
		{"before any cycle", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), -1, 0},
		{"past the last cycle", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), -1, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cycle, offset := locateOffset(history, tc.date)
			if cycle != tc.wantCycle || offset != tc.wantOffset {
				t.Errorf("Expected (%d, %d), got (%d, %d)", tc.wantCycle, tc.wantOffset, cycle, offset)
			}
		})
	}
}

func TestCyclesReaching(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	history := []*domain.CycleRecord{
		makeRecord(t, userID, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 28, 5),
		makeRecord(t, userID, time.Date(2025, 1, 29, 0, 0, 0, 0, time.UTC), 26, 5),
		makeRecord(t, userID, time.Date(2025, 2, 24, 0, 0, 0, 0, time.UTC), 30, 5),
	}

	if got := cyclesReaching(history, 1); got != 3 {
		t.Errorf("Expected all cycles to reach day 1, got %d", got)
	}

	if got := cyclesReaching(history, 27); got != 2 {
		t.Errorf("Expected 2 cycles to reach day 27, got %d", got)
	}

	if got := cyclesReaching(history, 29); got != 1 {
		t.Errorf("Expected 1 cycle to reach day 29, got %d", got)
	}

	if got := cyclesReaching(history, 31); got != 0 {
		t.Errorf("Expected no cycle to reach day 31, got %d", got)
	}
}

func TestBucketFor(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		average  float64
		expected domain.MoodBucket
	}{
		{5, domain.MoodPositive},
		{3.5, domain.MoodPositive},
		{3.4, domain.MoodNeutral},
		{2.5, domain.MoodNeutral},
		{2.4, domain.MoodChallenging},
		{1, domain.MoodChallenging},
	}

	for _, tc := range testCases {
		if got := bucketFor(tc.average, params); got != tc.expected {
			t.Errorf("Expected bucket %s for average %f, got %s", tc.expected, tc.average, got)
		}
	}
}

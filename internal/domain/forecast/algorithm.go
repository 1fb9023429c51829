package forecast

import (
	"sort"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
)

// offsetKey identifies one (cycle, day-offset, symptom) cell when counting
// occurrences. Logging the same symptom twice on the same day of the same
// cycle still counts as one occurrence.
type offsetKey struct {
	cycle   int
	offset  int
	symptom string
}

// countOccurrences maps each symptom to, per cycle day-offset, the number of
// distinct recorded cycles in which the symptom was observed at that offset.
// Observations that fall outside every recorded cycle (before the history
// began, in a logging gap, or in the still-open cycle) carry no completed
// cycle to count against and are skipped.
//
// The history must be sorted by start date ascending.
func countOccurrences(history []*domain.CycleRecord, observations []*domain.SymptomObservation) map[string]map[int]int {
	seen := make(map[offsetKey]struct{})
	counts := make(map[string]map[int]int)

	for _, obs := range observations {
		cycleIndex, offset := locateOffset(history, obs.Date)
		if cycleIndex < 0 {
			continue
		}

		key := offsetKey{cycle: cycleIndex, offset: offset, symptom: obs.Symptom}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if counts[obs.Symptom] == nil {
			counts[obs.Symptom] = make(map[int]int)
		}
		counts[obs.Symptom][offset]++
	}

	return counts
}

// locateOffset finds the recorded cycle containing the given date and the
// 1-based day-offset of the date within it. Returns (-1, 0) when the date
// falls outside every recorded cycle.
func locateOffset(history []*domain.CycleRecord, date time.Time) (int, int) {
	// Last cycle starting on or before the date.
	idx := sort.Search(len(history), func(i int) bool {
		return history[i].StartDate.After(date)
	}) - 1
	if idx < 0 {
		return -1, 0
	}

	record := history[idx]
	offset := daysBetween(record.StartDate, date) + 1
	if offset > record.CycleLength {
		return -1, 0
	}

	return idx, offset
}

// cyclesReaching counts the recorded cycles that lasted at least the given
// day-offset. This is the denominator of the frequency estimate; a symptom
// seen on day 30 in the single cycle that got that far is a certainty, not
// a 1-in-N event.
func cyclesReaching(history []*domain.CycleRecord, offset int) int {
	var n int
	for _, record := range history {
		if record.CycleLength >= offset {
			n++
		}
	}
	return n
}

// probabilitiesAt builds the symptom→probability map for one day-offset.
// Symptoms never observed at the offset are omitted entirely.
func probabilitiesAt(counts map[string]map[int]int, reach int, offset int) map[string]float64 {
	probabilities := make(map[string]float64)
	if reach == 0 {
		return probabilities
	}

	for symptom, byOffset := range counts {
		occurrences := byOffset[offset]
		if occurrences == 0 {
			continue
		}

		p := float64(occurrences) / float64(reach)
		if p > 1 {
			p = 1
		}
		probabilities[symptom] = p
	}

	return probabilities
}

// bucketFor maps a mood moving average onto its categorical bucket.
func bucketFor(average float64, params *Params) domain.MoodBucket {
	switch {
	case average >= params.PositiveThreshold:
		return domain.MoodPositive
	case average >= params.NeutralThreshold:
		return domain.MoodNeutral
	default:
		return domain.MoodChallenging
	}
}

// daysBetween returns the whole days from a to b; both are expected to be
// UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

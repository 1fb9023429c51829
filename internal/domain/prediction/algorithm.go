package prediction

import (
	"math"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
)

// meanLength computes the arithmetic mean of the given cycle lengths.
// Returns 0 for an empty slice.
func meanLength(lengths []int) float64 {
	if len(lengths) == 0 {
		return 0
	}

	var sum int
	for _, l := range lengths {
		sum += l
	}

	return float64(sum) / float64(len(lengths))
}

// sampleStdDev computes the sample standard deviation of the given cycle
// lengths around the supplied mean. Fewer than two samples have no spread,
// so the function returns 0 for them.
func sampleStdDev(lengths []int, mean float64) float64 {
	if len(lengths) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, l := range lengths {
		diff := float64(l) - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(lengths)-1))
}

// calculateConfidence maps a sample count and a length spread onto a
// confidence value.
//
// The shape is the product of two terms scaled into
// [params.FloorConfidence, params.MaxConfidence]:
//
//   - a sample term n/(n+SampleHalfPoint), which grows monotonically with the
//     number of recorded cycles and approaches 1 as history accumulates;
//   - a regularity term 1/(1+spread/SpreadScaleDays), which shrinks as the
//     standard deviation of past lengths grows.
//
// Holding spread fixed, more samples never lower the confidence; holding the
// sample count fixed, a wider spread always lowers it. The result is clamped
// into [0, 1] as a final guard.
func calculateConfidence(sampleCount int, spread float64, params *Params) float64 {
	if sampleCount < params.MinHistory {
		return params.FloorConfidence
	}

	n := float64(sampleCount)
	sampleTerm := n / (n + params.SampleHalfPoint)
	regularityTerm := 1 / (1 + spread/params.SpreadScaleDays)

	confidence := params.FloorConfidence +
		(params.MaxConfidence-params.FloorConfidence)*sampleTerm*regularityTerm

	return clamp(confidence, 0, 1)
}

// predictedLength returns the cycle length the heuristic expects next: the
// rounded mean of the recorded lengths once at least params.MinHistory cycles
// exist, the default length otherwise.
func predictedLength(lengths []int, params *Params) int {
	if len(lengths) >= params.MinHistory {
		return int(math.Round(meanLength(lengths)))
	}
	return params.DefaultCycleLength
}

// calculateNext derives the full prediction from a user's cycle history.
//
// Parameters:
//   - latestStart: start date of the most recent recorded cycle, the anchor
//     every forward date is computed from
//   - lengths: the recorded cycle lengths, one per completed cycle
//   - now: the computation timestamp recorded on the result
//   - params: heuristic configuration
//
// Behavior:
//   - with at least params.MinHistory recorded cycles, the predicted length
//     is the arithmetic mean of the recorded lengths rounded to the nearest
//     day and the basis is BasisHistory;
//   - with fewer, the predicted length falls back to
//     params.DefaultCycleLength, the basis is BasisDefault, and confidence
//     sits at the floor;
//   - ovulation is always params.LutealPhaseDays before the predicted start,
//     and the fertile window is the params.FertileWindowDays-day span ending
//     on the ovulation day.
//
// The function is pure: same inputs, same prediction.
func calculateNext(latestStart time.Time, lengths []int, now time.Time, params *Params) *domain.PredictionResult {
	length := predictedLength(lengths, params)

	basis := domain.BasisDefault
	confidence := params.FloorConfidence
	if len(lengths) >= params.MinHistory {
		mean := meanLength(lengths)
		spread := sampleStdDev(lengths, mean)
		basis = domain.BasisHistory
		confidence = calculateConfidence(len(lengths), spread, params)
	}

	nextStart := latestStart.AddDate(0, 0, length)
	ovulation := nextStart.AddDate(0, 0, -params.LutealPhaseDays)
	windowStart := ovulation.AddDate(0, 0, -(params.FertileWindowDays - 1))

	return &domain.PredictionResult{
		NextStartDate:      nextStart,
		PredictedLength:    length,
		OvulationDate:      ovulation,
		FertileWindowStart: windowStart,
		FertileWindowEnd:   ovulation,
		Confidence:         confidence,
		SampleCount:        len(lengths),
		Basis:              basis,
		ComputedAt:         now.UTC(),
	}
}

// phaseForDay maps a day-in-cycle onto one of the four cycle phases.
//
// The ovulation day sits params.LutealPhaseDays before the end of the cycle.
// Days up to the period length are menstrual, days within
// params.OvulatorySpreadDays of the ovulation day are ovulatory, days between
// the period and the ovulatory span are follicular, and everything after is
// luteal. Days past the cycle length clamp to luteal; a cycle that runs long
// is by definition still waiting for the next period.
//
// Overlap on short cycles resolves in listed order: menstrual wins over
// ovulatory, ovulatory over follicular.
//
// The function is pure and idempotent; given the same triple it always
// returns the same phase.
func phaseForDay(dayInCycle, cycleLength, periodLength int, params *Params) domain.CyclePhase {
	if dayInCycle < 1 {
		dayInCycle = 1
	}

	if dayInCycle > cycleLength {
		return domain.PhaseLuteal
	}

	if dayInCycle <= periodLength {
		return domain.PhaseMenstrual
	}

	ovulationDay := cycleLength - params.LutealPhaseDays
	distance := dayInCycle - ovulationDay
	if distance < 0 {
		distance = -distance
	}
	if distance <= params.OvulatorySpreadDays {
		return domain.PhaseOvulatory
	}

	if dayInCycle < ovulationDay {
		return domain.PhaseFollicular
	}

	return domain.PhaseLuteal
}

// clamp bounds v into [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

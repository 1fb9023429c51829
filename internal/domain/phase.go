package domain

// CyclePhase represents one of the four phases of a menstrual cycle.
// Phase is always derived from day arithmetic over a cycle record; there is
// no stored phase state and no transition logic.
type CyclePhase string

// The four cycle phases, in chronological order within a cycle.
const (
	PhaseMenstrual  CyclePhase = "menstrual"
	PhaseFollicular CyclePhase = "follicular"
	PhaseOvulatory  CyclePhase = "ovulatory"
	PhaseLuteal     CyclePhase = "luteal"
)

// IsValid reports whether the phase is one of the four known values.
func (p CyclePhase) IsValid() bool {
	switch p {
	case PhaseMenstrual, PhaseFollicular, PhaseOvulatory, PhaseLuteal:
		return true
	default:
		return false
	}
}

package prediction

// Params defines all configurable parameters for the cycle prediction heuristic
type Params struct {
	// Baseline cycle assumptions
	DefaultCycleLength  int // assumed length when history is too thin
	LutealPhaseDays     int // ovulation precedes the next start by this many days
	FertileWindowDays   int // total span of the fertile window, ending on ovulation day
	OvulatorySpreadDays int // ovulatory phase covers ovulation day plus/minus this

	// History requirements
	MinHistory int // cycles needed before the historical mean is trusted

	// Confidence shaping
	FloorConfidence float64 // confidence assigned to default-basis predictions
	MaxConfidence   float64 // ceiling; never report certainty
	SampleHalfPoint float64 // sample count at which the sample term reaches one half
	SpreadScaleDays float64 // spread in days that halves the regularity term
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	DefaultCycleLength  int
	LutealPhaseDays     int
	FertileWindowDays   int
	OvulatorySpreadDays int

	MinHistory int

	FloorConfidence float64
	MaxConfidence   float64
	SampleHalfPoint float64
	SpreadScaleDays float64
}

// NewDefaultParams creates a new Params instance with default values.
// The defaults encode the standard clinical assumptions: a 28-day cycle,
// a fixed 14-day luteal phase, and a 6-day fertile window ending at ovulation.
func NewDefaultParams() *Params {
	return &Params{
		DefaultCycleLength:  28,
		LutealPhaseDays:     14,
		FertileWindowDays:   6,
		OvulatorySpreadDays: 1,

		// Below two recorded cycles the mean is meaningless
		MinHistory: 2,

		FloorConfidence: 0.2,
		MaxConfidence:   0.95,
		SampleHalfPoint: 5,
		SpreadScaleDays: 7,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.DefaultCycleLength > 0 {
		params.DefaultCycleLength = config.DefaultCycleLength
	}
	if config.LutealPhaseDays > 0 {
		params.LutealPhaseDays = config.LutealPhaseDays
	}
	if config.FertileWindowDays > 0 {
		params.FertileWindowDays = config.FertileWindowDays
	}
	if config.OvulatorySpreadDays > 0 {
		params.OvulatorySpreadDays = config.OvulatorySpreadDays
	}

	if config.MinHistory > 0 {
		params.MinHistory = config.MinHistory
	}

	if config.FloorConfidence > 0 {
		params.FloorConfidence = config.FloorConfidence
	}
	if config.MaxConfidence > 0 {
		params.MaxConfidence = config.MaxConfidence
	}
	if config.SampleHalfPoint > 0 {
		params.SampleHalfPoint = config.SampleHalfPoint
	}
	if config.SpreadScaleDays > 0 {
		params.SpreadScaleDays = config.SpreadScaleDays
	}

	return params
}

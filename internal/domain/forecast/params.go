package forecast

// Params defines all configurable parameters for symptom and mood forecasting
type Params struct {
	// Horizon limits
	DefaultHorizonDays int // days forecast when the caller does not say
	MaxHorizonDays     int // hard cap on the forecast horizon

	// Mood trend shaping
	MoodWindow        int     // how many recent scores the moving average covers
	PositiveThreshold float64 // average at or above this reads positive
	NeutralThreshold  float64 // average at or above this reads neutral
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	DefaultHorizonDays int
	MaxHorizonDays     int

	MoodWindow        int
	PositiveThreshold float64
	NeutralThreshold  float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		DefaultHorizonDays: 7,
		MaxHorizonDays:     35,

		MoodWindow:        5,
		PositiveThreshold: 3.5,
		NeutralThreshold:  2.5,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.DefaultHorizonDays > 0 {
		params.DefaultHorizonDays = config.DefaultHorizonDays
	}
	if config.MaxHorizonDays > 0 {
		params.MaxHorizonDays = config.MaxHorizonDays
	}

	if config.MoodWindow > 0 {
		params.MoodWindow = config.MoodWindow
	}
	if config.PositiveThreshold > 0 {
		params.PositiveThreshold = config.PositiveThreshold
	}
	if config.NeutralThreshold > 0 {
		params.NeutralThreshold = config.NeutralThreshold
	}

	return params
}

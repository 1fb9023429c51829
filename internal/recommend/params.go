package recommend

// Params defines the tunables for relevance scoring
type Params struct {
	LookbackDays  int     // feedback older than this no longer moves scores
	FeedbackBonus float64 // bonus contributed by one same-day positive feedback
	MaxBonus      float64 // cap on the summed recency bonus per template
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	LookbackDays  int
	FeedbackBonus float64
	MaxBonus      float64
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		LookbackDays:  28,
		FeedbackBonus: 0.15,
		MaxBonus:      0.45,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.LookbackDays > 0 {
		params.LookbackDays = config.LookbackDays
	}
	if config.FeedbackBonus > 0 {
		params.FeedbackBonus = config.FeedbackBonus
	}
	if config.MaxBonus > 0 {
		params.MaxBonus = config.MaxBonus
	}

	return params
}

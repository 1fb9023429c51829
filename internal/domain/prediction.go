package domain

import "time"

// PredictionBasis says what a prediction was computed from.
type PredictionBasis string

// Possible prediction basis values
const (
	// BasisHistory means the prediction was derived from the user's own
	// recorded cycles.
	BasisHistory PredictionBasis = "history"

	// BasisDefault means the user had too little history and the standard
	// 28-day cycle assumption was used instead.
	BasisDefault PredictionBasis = "default"
)

// PredictionResult is the derived output of the cycle prediction heuristic.
// It is never stored as a row; it is recomputed from the historical record
// set on demand and at most cached until the next cycle is appended.
type PredictionResult struct {
	NextStartDate      time.Time       `json:"next_start_date"`
	PredictedLength    int             `json:"predicted_length"`
	OvulationDate      time.Time       `json:"ovulation_date"`
	FertileWindowStart time.Time       `json:"fertile_window_start"`
	FertileWindowEnd   time.Time       `json:"fertile_window_end"`
	Confidence         float64         `json:"confidence"`
	SampleCount        int             `json:"sample_count"`
	Basis              PredictionBasis `json:"basis"`
	ComputedAt         time.Time       `json:"computed_at"`
}

package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SymptomFrequency is one symptom with its occurrence count inside the
// summarized history window.
type SymptomFrequency struct {
	Name  string
	Count int
}

// InsightRequest carries the condensed cycle history an insight narrative
// is written from. The caller assembles it from the user's stored records;
// the generator turns it into a prompt. Zero-valued date fields mean the
// corresponding figure is unknown (insufficient history).
type InsightRequest struct {
	// Cycle history summary.
	CycleCount      int
	MeanCycleLength float64
	MinCycleLength  int
	MaxCycleLength  int
	LastStartDate   time.Time

	// Prediction summary, zero when history is too thin to predict.
	PredictedStart time.Time
	Confidence     float64

	// Recent symptom and mood context.
	TopSymptoms []SymptomFrequency
	MoodTrend   string
}

// Empty reports whether the request carries nothing worth narrating.
func (r InsightRequest) Empty() bool {
	return r.CycleCount == 0 && len(r.TopSymptoms) == 0 && r.MoodTrend == ""
}

// Generator defines the interface for generating insight narratives from
// a user's cycle history. This interface serves as a boundary between the
// application core and external AI/LLM services, following the hexagonal
// architecture pattern.
type Generator interface {
	// GenerateInsight writes a narrative over the provided history summary.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - req: The condensed history the narrative should cover
	//   - userID: The UUID of the user the insight belongs to
	//
	// Returns:
	//   - The generated narrative text
	//   - An error if the generation fails for any reason (see errors.go for specific types)
	GenerateInsight(ctx context.Context, req InsightRequest, userID uuid.UUID) (string, error)
}

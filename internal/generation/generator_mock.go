package generation

import (
	"context"

	"github.com/google/uuid"
)

// MockGenerator is a mock implementation of the Generator interface for
// testing. Set GenerateInsightFunc for custom behavior, or the fixed
// fields for simple cases.
type MockGenerator struct {
	GenerateInsightFunc func(ctx context.Context, req InsightRequest, userID uuid.UUID) (string, error)

	Narrative string // Default narrative to return
	Err       error  // Default error to return

	// Calls records every request the mock received, in order.
	Calls []InsightRequest
}

var _ Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock that returns a canned narrative.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Narrative: "Your cycles have been steady lately.",
	}
}

// GenerateInsight implements the Generator interface.
func (m *MockGenerator) GenerateInsight(
	ctx context.Context,
	req InsightRequest,
	userID uuid.UUID,
) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.GenerateInsightFunc != nil {
		return m.GenerateInsightFunc(ctx, req, userID)
	}
	return m.Narrative, m.Err
}

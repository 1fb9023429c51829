package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/store"
)

// InsightStoreAdapter implements InsightService directly over an insight
// store. It lets the generation pipeline be wired without pulling the full
// service layer into the task package.
type InsightStoreAdapter struct {
	insights store.InsightStore
}

// NewInsightStoreAdapter creates a new adapter around the given store
func NewInsightStoreAdapter(insights store.InsightStore) *InsightStoreAdapter {
	return &InsightStoreAdapter{insights: insights}
}

// GetInsight retrieves an insight by its ID
func (a *InsightStoreAdapter) GetInsight(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error) {
	return a.insights.GetByID(ctx, insightID)
}

// UpdateInsightStatus records an insight's lifecycle transition
func (a *InsightStoreAdapter) UpdateInsightStatus(
	ctx context.Context,
	insightID uuid.UUID,
	status domain.InsightStatus,
) error {
	return a.insights.UpdateStatus(ctx, insightID, status)
}

// CompleteInsight stores the generated narrative and marks the insight
// completed in a single update
func (a *InsightStoreAdapter) CompleteInsight(ctx context.Context, insightID uuid.UUID, content string) error {
	insight, err := a.insights.GetByID(ctx, insightID)
	if err != nil {
		return err
	}

	insight.SetContent(content)
	return a.insights.Update(ctx, insight)
}

// Ensure InsightStoreAdapter implements InsightService
var _ InsightService = (*InsightStoreAdapter)(nil)

package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/events"
	"github.com/flowiq/flowiq-api/internal/generation"
)

// Common errors
var (
	ErrNilInsightService  = errors.New("insight service cannot be nil")
	ErrNilHistoryDigester = errors.New("history digester cannot be nil")
	ErrNilGenerator       = errors.New("generator cannot be nil")
	ErrNilLogger          = errors.New("logger cannot be nil")
	ErrEmptyInsightID     = errors.New("insight ID cannot be empty")
)

// InsightService defines the insight lifecycle operations the generation
// task drives. Implementations persist the status transitions and the
// finished narrative.
type InsightService interface {
	// GetInsight retrieves an insight by its ID
	GetInsight(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error)

	// UpdateInsightStatus records an insight's lifecycle transition
	UpdateInsightStatus(ctx context.Context, insightID uuid.UUID, status domain.InsightStatus) error

	// CompleteInsight stores the generated narrative and marks the insight completed
	CompleteInsight(ctx context.Context, insightID uuid.UUID, content string) error
}

// HistoryDigester condenses a user's recorded cycles, symptoms, and moods
// into the request handed to the narrative generator.
type HistoryDigester interface {
	BuildInsightRequest(ctx context.Context, userID uuid.UUID) (generation.InsightRequest, error)
}

// insightGenerationPayload represents the serialized data stored in the task
type insightGenerationPayload struct {
	InsightID uuid.UUID `json:"insight_id"`
}

// NewInsightGenerationEvent builds the event that requests background
// generation for the given insight. Emitting it after the pending row is
// committed keeps the payload schema next to the code that parses it.
func NewInsightGenerationEvent(insightID uuid.UUID) (*events.TaskRequestEvent, error) {
	return events.NewTaskRequestEvent(
		TaskTypeInsightGeneration,
		insightGenerationPayload{InsightID: insightID},
	)
}

// InsightGenerationTask implements the Task interface for writing an AI
// narrative over a user's recorded history
type InsightGenerationTask struct {
	id        uuid.UUID
	insightID uuid.UUID
	insights  InsightService
	digester  HistoryDigester
	generator generation.Generator
	logger    *slog.Logger
	status    TaskStatus
}

// NewInsightGenerationTask creates a new insight generation task
func NewInsightGenerationTask(
	insightID uuid.UUID,
	insights InsightService,
	digester HistoryDigester,
	generator generation.Generator,
	logger *slog.Logger,
) (*InsightGenerationTask, error) {
	if insights == nil {
		return nil, ErrNilInsightService
	}
	if digester == nil {
		return nil, ErrNilHistoryDigester
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	if insightID == uuid.Nil {
		return nil, ErrEmptyInsightID
	}

	return &InsightGenerationTask{
		id:        uuid.New(),
		insightID: insightID,
		insights:  insights,
		digester:  digester,
		generator: generator,
		logger:    logger.With("task_type", TaskTypeInsightGeneration, "insight_id", insightID),
		status:    TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *InsightGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *InsightGenerationTask) Type() string {
	return TaskTypeInsightGeneration
}

// Payload returns the task data as a byte slice
func (t *InsightGenerationTask) Payload() []byte {
	payload := insightGenerationPayload{
		InsightID: t.insightID,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// If marshal fails, return an empty payload with error logged
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *InsightGenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the insight generation task: it loads the insight, marks it
// processing, digests the owner's history into a generation request, asks
// the generator for the narrative, and stores the result. Every failure
// path marks both the task and the insight failed so the API reports an
// honest state.
func (t *InsightGenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting insight generation task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	// 1. Retrieve the insight to learn who it belongs to
	insight, err := t.insights.GetInsight(ctx, t.insightID)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to retrieve insight", "error", err)
		return fmt.Errorf("failed to retrieve insight: %w", err)
	}

	t.logger.Info("retrieved insight", "user_id", insight.UserID, "insight_status", insight.Status)

	// 2. Update insight status to processing
	err = t.insights.UpdateInsightStatus(ctx, t.insightID, domain.InsightStatusProcessing)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("failed to update insight status to processing", "error", err)
		return fmt.Errorf("failed to update insight status to processing: %w", err)
	}

	// 3. Digest the user's recorded history
	request, err := t.digester.BuildInsightRequest(ctx, insight.UserID)
	if err != nil {
		t.failInsight(ctx)
		t.logger.Error("failed to digest user history", "error", err)
		return fmt.Errorf("failed to digest user history: %w", err)
	}

	// 4. Generate the narrative
	t.logger.Info("generating insight narrative",
		"cycle_count", request.CycleCount,
		"symptom_count", len(request.TopSymptoms))
	narrative, err := t.generator.GenerateInsight(ctx, request, insight.UserID)
	if err != nil {
		t.failInsight(ctx)
		t.logger.Error("failed to generate narrative", "error", err)
		return fmt.Errorf("failed to generate narrative: %w", err)
	}

	// 5. Store the narrative and mark the insight completed
	err = t.insights.CompleteInsight(ctx, t.insightID, narrative)
	if err != nil {
		t.failInsight(ctx)
		t.logger.Error("failed to store generated narrative", "error", err)
		return fmt.Errorf("failed to store generated narrative: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("insight generation task completed successfully")
	return nil
}

// failInsight marks the task and its insight failed. The insight update is
// best effort; the task error already carries the cause.
func (t *InsightGenerationTask) failInsight(ctx context.Context) {
	t.status = TaskStatusFailed
	if err := t.insights.UpdateInsightStatus(ctx, t.insightID, domain.InsightStatusFailed); err != nil {
		t.logger.Error("failed to mark insight as failed", "error", err)
	}
}

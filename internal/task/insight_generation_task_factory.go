package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/generation"
)

// InsightGenerationTaskFactory creates InsightGenerationTask instances,
// both for fresh requests arriving through events and for persisted rows
// being rebuilt during crash recovery.
type InsightGenerationTaskFactory struct {
	insights  InsightService
	digester  HistoryDigester
	generator generation.Generator
	logger    *slog.Logger
}

// NewInsightGenerationTaskFactory creates a new factory for InsightGenerationTasks
func NewInsightGenerationTaskFactory(
	insights InsightService,
	digester HistoryDigester,
	generator generation.Generator,
	logger *slog.Logger,
) *InsightGenerationTaskFactory {
	return &InsightGenerationTaskFactory{
		insights:  insights,
		digester:  digester,
		generator: generator,
		logger:    logger.With("component", "insight_generation_task_factory"),
	}
}

// CreateTask creates a new InsightGenerationTask for the specified insight
func (f *InsightGenerationTaskFactory) CreateTask(insightID uuid.UUID) (Task, error) {
	task, err := NewInsightGenerationTask(
		insightID,
		f.insights,
		f.digester,
		f.generator,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// RebuildTask reconstructs an executable task from a persisted row,
// keeping the stored task ID so status updates land on the original row.
func (f *InsightGenerationTaskFactory) RebuildTask(taskID uuid.UUID, payload []byte) (Task, error) {
	var p insightGenerationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode insight generation payload: %w", err)
	}

	task, err := NewInsightGenerationTask(
		p.InsightID,
		f.insights,
		f.digester,
		f.generator,
		f.logger,
	)
	if err != nil {
		return nil, err
	}

	task.id = taskID
	return task, nil
}

// Interface conformance for event handling and crash recovery
var (
	_ TaskCreator = (*InsightGenerationTaskFactory)(nil)
	_ TaskFactory = (*InsightGenerationTaskFactory)(nil)
)

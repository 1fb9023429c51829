package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/events"
)

// TaskCreator builds a new executable task for the insight named in an
// event payload.
type TaskCreator interface {
	CreateTask(insightID uuid.UUID) (Task, error)
}

// TaskSubmitter persists and enqueues tasks for execution. The TaskRunner
// is the production implementation.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface to
// turn insight generation request events into queued background tasks.
type TaskFactoryEventHandler struct {
	taskFactory TaskCreator
	taskRunner  TaskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory TaskCreator,
	taskRunner TaskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent processes events by creating and submitting tasks.
// It extracts the insight ID from the event payload, creates the
// generation task, and submits it to the runner for execution. Events of
// other types are ignored so additional handlers can claim them.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != TaskTypeInsightGeneration {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		InsightID string `json:"insight_id"`
	}

	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	insightID, err := uuid.Parse(payload.InsightID)
	if err != nil {
		h.logger.Error("invalid insight ID",
			"error", err,
			"insight_id", payload.InsightID,
			"event_id", event.ID)
		return fmt.Errorf("invalid insight ID: %w", err)
	}

	h.logger.Debug("creating task for insight", "insight_id", insightID, "event_id", event.ID)
	task, err := h.taskFactory.CreateTask(insightID)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"insight_id", insightID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	h.logger.Debug("submitting task to runner",
		"task_id", task.ID(),
		"insight_id", insightID,
		"event_id", event.ID)
	if err := h.taskRunner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"insight_id", insightID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"insight_id", insightID,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)

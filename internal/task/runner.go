package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flowiq/flowiq-api/internal/metrics"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner manages background task processing. It persists submitted
// tasks, feeds them through an in-memory queue to a worker pool, and
// recovers unfinished work after a restart by rebuilding persisted rows
// into executable tasks via registered factories.
type TaskRunner struct {
	store      TaskStore
	queue      *TaskQueue
	pool       *WorkerPool
	factories  map[string]TaskFactory
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	runner := &TaskRunner{
		store:      store,
		queue:      queue,
		pool:       pool,
		factories:  make(map[string]TaskFactory),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
	}

	// Workers run tasks through the runner so every execution is
	// bracketed by status updates in the store.
	pool.SetProcessor(runner.processTask)

	return runner
}

// RegisterFactory associates the factory with a task type for crash
// recovery. Recovered rows of an unregistered type are requeued as loaded;
// rows from the database cannot execute without rebinding and fail with a
// descriptive error.
func (r *TaskRunner) RegisterFactory(taskType string, factory TaskFactory) {
	r.factories[taskType] = factory
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.pool.SetErrorHandler(handler)
}

// Submit persists a new task and adds it to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	// Save task to database first so it survives a crash before execution
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Start recovers unfinished tasks, launches the worker pool, and begins
// the stuck task monitor
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.pool.Stop()
	r.queue.Close()
	r.wg.Wait()
}

// Recover loads any unfinished tasks from the database and requeues them
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Processing tasks were interrupted by a crash; age zero returns all
	// of them.
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, t := range pendingTasks {
		r.requeueRecovered(ctx, t)
	}

	for _, t := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending, "reset after interrupted run"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
			continue
		}

		r.requeueRecovered(ctx, t)
	}

	return nil
}

// requeueRecovered rebuilds a recovered task through its registered
// factory and puts it back on the queue. An unbuildable task is marked
// failed rather than retried forever.
func (r *TaskRunner) requeueRecovered(ctx context.Context, t Task) {
	executable := t
	if factory, ok := r.factories[t.Type()]; ok {
		rebuilt, err := factory.RebuildTask(t.ID(), t.Payload())
		if err != nil {
			r.logger.Error("failed to rebuild recovered task",
				"task_id", t.ID(),
				"task_type", t.Type(),
				"error", err)
			if updateErr := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
				r.logger.Error("failed to mark unbuildable task as failed",
					"task_id", t.ID(),
					"error", updateErr)
			}
			return
		}
		executable = rebuilt
	}

	if err := r.queue.Enqueue(executable); err != nil {
		r.logger.Error("failed to requeue recovered task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
	}
}

// processTask handles execution of a single task, bracketing it with
// status updates so progress is observable and recoverable
func (r *TaskRunner) processTask(ctx context.Context, task Task) error {
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
	)

	// Status updates use a background context: a shutdown that cancels
	// the worker context must not prevent recording the final state.
	updateCtx := context.Background()

	if err := r.store.UpdateTaskStatus(updateCtx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
		return fmt.Errorf("failed to update task status to processing: %w", err)
	}

	logger.Info("processing task")

	start := time.Now()
	if err := task.Execute(ctx); err != nil {
		metrics.ObserveTask(task.Type(), time.Since(start), metrics.OutcomeError)
		if updateErr := r.store.UpdateTaskStatus(updateCtx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}
		return err
	}
	metrics.ObserveTask(task.Type(), time.Since(start), metrics.OutcomeSuccess)

	logger.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(updateCtx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update task status to completed", "error", updateErr)
	}

	return nil
}

// stuckTaskMonitor periodically checks for tasks that have been in
// "processing" state for too long and resets them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, t := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, t.ID(), TaskStatusPending,
					"reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", t.ID(),
						"task_type", t.Type(),
						"error", err)
					continue
				}

				r.requeueRecovered(ctx, t)
			}
		}
	}
}

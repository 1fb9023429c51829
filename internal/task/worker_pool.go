package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the tasks to be processed
	taskQueue TaskQueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// errorHandler is called when a task execution fails
	// If nil, errors are only logged
	errorHandler func(task Task, err error)

	// processor runs a single task. The default simply calls Execute;
	// the task runner replaces it to wrap execution with persistence
	// bookkeeping.
	processor func(ctx context.Context, task Task) error
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		wg:          sync.WaitGroup{},
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
		processor: func(ctx context.Context, task Task) error {
			return task.Execute(ctx)
		},
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// SetProcessor replaces the function used to run each task. Must be called
// before Start.
func (p *WorkerPool) SetProcessor(processor func(ctx context.Context, task Task) error) {
	if processor != nil {
		p.processor = processor
	}
}

// Start launches the worker goroutines. Workers consume tasks from the
// queue until the pool is stopped or the queue channel is closed and
// drained.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the pool context and blocks until all workers have exited.
// Tasks already executing observe the cancellation through their context.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker is the processing loop for a single worker goroutine
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			p.runTask(task, id)
		}
	}
}

// runTask executes a single task through the processor, converting panics
// into errors so a misbehaving task cannot kill the worker goroutine. A
// task that panics after its row was marked processing is picked up again
// by the runner's stuck task monitor.
func (p *WorkerPool) runTask(task Task, workerID int) {
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic during task execution: %v", r)
			}
		}()

		err = p.processor(p.ctx, task)
	}()

	if err != nil {
		p.logger.Error("task execution failed",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"worker_id", workerID,
			"error", err)

		if p.errorHandler != nil {
			p.errorHandler(task, err)
		}
	}
}

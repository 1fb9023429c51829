package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFactory implements TaskFactory with a configurable rebuild function
type mockFactory struct {
	RebuildFn   func(taskID uuid.UUID, payload []byte) (Task, error)
	mu          sync.Mutex
	rebuiltIDs  []uuid.UUID
	rebuiltData [][]byte
}

func (f *mockFactory) RebuildTask(taskID uuid.UUID, payload []byte) (Task, error) {
	f.mu.Lock()
	f.rebuiltIDs = append(f.rebuiltIDs, taskID)
	f.rebuiltData = append(f.rebuiltData, payload)
	f.mu.Unlock()
	return f.RebuildFn(taskID, payload)
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	config := DefaultTaskRunnerConfig()
	config.QueueSize = 2

	runner := NewTaskRunner(store, config, logger)

	t.Run("successful submission", func(t *testing.T) {
		task := CreateMockTaskWithPayload("test task")
		err := runner.Submit(context.Background(), task)

		assert.NoError(t, err)

		// Verify task was saved to store
		pendingTasks, _ := store.GetPendingTasks(context.Background())
		assert.Contains(t, extractTaskIDs(pendingTasks), task.ID())
	})

	t.Run("queue full", func(t *testing.T) {
		smallStore := NewMockTaskStore()
		smallConfig := DefaultTaskRunnerConfig()
		smallConfig.QueueSize = 1

		smallRunner := NewTaskRunner(smallStore, smallConfig, logger)

		// Fill the queue
		err := smallRunner.Submit(context.Background(), CreateMockTaskWithPayload("task 1"))
		require.NoError(t, err)

		// The next submission finds the queue full
		err = smallRunner.Submit(context.Background(), CreateMockTaskWithPayload("task 2"))

		assert.Error(t, err)
		assert.ErrorIs(t, err, ErrQueueFull)
	})

	t.Run("store error", func(t *testing.T) {
		errorStore := NewMockTaskStore()
		errorStore.SaveFn = func(ctx context.Context, task Task) error {
			return errors.New("mock store error")
		}

		errorRunner := NewTaskRunner(errorStore, config, logger)

		err := errorRunner.Submit(context.Background(), CreateMockTaskWithPayload("error task"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to save task")
	})
}

func TestTaskRunner_Start_and_Processing(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	config := DefaultTaskRunnerConfig()
	config.WorkerCount = 2
	config.QueueSize = 10

	runner := NewTaskRunner(store, config, logger)

	taskCompletedChan := make(chan uuid.UUID, 5)
	taskIDs := make([]uuid.UUID, 0, 3)

	for i := 0; i < 3; i++ {
		task := CreateMockTaskWithPayload("test task")
		taskIDs = append(taskIDs, task.ID())

		id := task.ID()
		task.ExecuteFn = func(ctx context.Context) error {
			taskCompletedChan <- id
			return nil
		}

		err := runner.Submit(context.Background(), task)
		require.NoError(t, err)
	}

	err := runner.Start()
	require.NoError(t, err)

	completedTasks := make(map[uuid.UUID]bool)
	timeout := time.After(2 * time.Second)

taskWaitLoop:
	for len(completedTasks) < 3 {
		select {
		case taskID := <-taskCompletedChan:
			completedTasks[taskID] = true
		case <-timeout:
			break taskWaitLoop
		}
	}

	runner.Stop()

	for _, id := range taskIDs {
		assert.True(t, completedTasks[id], "Task %s should have been completed", id)
		assert.Equal(t, TaskStatusCompleted, store.StatusFor(id))
	}
	assert.Len(t, completedTasks, 3, "All 3 tasks should have been completed")
}

func TestTaskRunner_TaskFailure(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	config := DefaultTaskRunnerConfig()
	runner := NewTaskRunner(store, config, logger)

	errorChan := make(chan struct{}, 1)

	runner.SetErrorHandler(func(task Task, err error) {
		errorChan <- struct{}{}
	})

	task := CreateMockTaskWithPayload("failing task")
	task.ExecuteFn = func(ctx context.Context) error {
		return errors.New("intentional test failure")
	}

	err := runner.Submit(context.Background(), task)
	require.NoError(t, err)

	err = runner.Start()
	require.NoError(t, err)

	// The failed status is recorded before the error handler fires
	select {
	case <-errorChan:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for error handler to be called")
	}

	runner.Stop()

	assert.Equal(t, TaskStatusFailed, store.StatusFor(task.ID()))
	assert.Contains(t, store.ErrorMessageFor(task.ID()), "intentional test failure")
}

func TestTaskRunner_Recover(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	taskCompletedChan := make(chan uuid.UUID, 5)

	// One task was pending and one was mid-flight when the previous run
	// stopped
	pendingTask := CreateMockTaskWithPayload("pending task")
	pendingID := pendingTask.ID()
	pendingTask.ExecuteFn = func(ctx context.Context) error {
		taskCompletedChan <- pendingID
		return nil
	}

	processingTask := CreateMockTaskWithPayload("processing task")
	processingID := processingTask.ID()
	processingTask.ExecuteFn = func(ctx context.Context) error {
		taskCompletedChan <- processingID
		return nil
	}

	require.NoError(t, store.SaveTask(context.Background(), pendingTask))
	require.NoError(t, store.SaveTask(context.Background(), processingTask))
	require.NoError(t, store.UpdateTaskStatus(context.Background(), processingID, TaskStatusProcessing, ""))

	config := DefaultTaskRunnerConfig()
	runner := NewTaskRunner(store, config, logger)

	err := runner.Start()
	require.NoError(t, err)

	expectedTasks := map[uuid.UUID]bool{
		pendingID:    false,
		processingID: false,
	}

	timeout := time.After(2 * time.Second)

taskWaitLoop:
	for {
		allCompleted := true
		for _, completed := range expectedTasks {
			if !completed {
				allCompleted = false
				break
			}
		}

		if allCompleted {
			break taskWaitLoop
		}

		select {
		case taskID := <-taskCompletedChan:
			expectedTasks[taskID] = true
		case <-timeout:
			break taskWaitLoop
		}
	}

	runner.Stop()

	assert.True(t, expectedTasks[pendingID], "Pending task should have been completed")
	assert.True(t, expectedTasks[processingID], "Processing task should have been completed")
}

func TestTaskRunner_Recover_RebuildsThroughFactory(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	// Simulate a row loaded from the database: right type and payload but
	// no executable logic bound
	payload := []byte(`{"insight_id":"a2e8d7c0-0b57-4a39-9f20-3d9f62c1a111"}`)
	recovered := NewMockTask(uuid.New(), TaskTypeInsightGeneration, payload)
	recovered.ExecuteFn = func(ctx context.Context) error {
		return errors.New("recovered row executed without rebinding")
	}
	require.NoError(t, store.SaveTask(context.Background(), recovered))

	rebuiltRan := make(chan uuid.UUID, 1)
	factory := &mockFactory{
		RebuildFn: func(taskID uuid.UUID, data []byte) (Task, error) {
			rebuilt := NewMockTask(taskID, TaskTypeInsightGeneration, data)
			rebuilt.ExecuteFn = func(ctx context.Context) error {
				rebuiltRan <- taskID
				return nil
			}
			return rebuilt, nil
		},
	}

	config := DefaultTaskRunnerConfig()
	runner := NewTaskRunner(store, config, logger)
	runner.RegisterFactory(TaskTypeInsightGeneration, factory)

	err := runner.Start()
	require.NoError(t, err)

	select {
	case taskID := <-rebuiltRan:
		assert.Equal(t, recovered.ID(), taskID, "Rebuilt task keeps the persisted ID")
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for rebuilt task to run")
	}

	runner.Stop()

	factory.mu.Lock()
	defer factory.mu.Unlock()
	require.Len(t, factory.rebuiltIDs, 1)
	assert.Equal(t, recovered.ID(), factory.rebuiltIDs[0])
	assert.JSONEq(t, string(payload), string(factory.rebuiltData[0]))

	assert.Equal(t, TaskStatusCompleted, store.StatusFor(recovered.ID()))
}

func TestTaskRunner_Recover_UnbuildablePayload(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	recovered := NewMockTask(uuid.New(), TaskTypeInsightGeneration, []byte("not json"))
	require.NoError(t, store.SaveTask(context.Background(), recovered))

	factory := &mockFactory{
		RebuildFn: func(taskID uuid.UUID, data []byte) (Task, error) {
			return nil, errors.New("failed to decode insight generation payload")
		},
	}

	config := DefaultTaskRunnerConfig()
	runner := NewTaskRunner(store, config, logger)
	runner.RegisterFactory(TaskTypeInsightGeneration, factory)

	err := runner.Start()
	require.NoError(t, err)
	runner.Stop()

	assert.Equal(t, TaskStatusFailed, store.StatusFor(recovered.ID()))
	assert.Contains(t, store.ErrorMessageFor(recovered.ID()), "failed to decode")
}

func TestTaskRunner_StuckTasks(t *testing.T) {
	t.Parallel()

	store := NewMockTaskStore()
	logger := setupTestLogger()

	taskCompletedChan := make(chan uuid.UUID, 5)

	// A task stuck in processing for half an hour
	stuckTask := CreateMockTaskWithPayload("stuck task")
	stuckID := stuckTask.ID()
	stuckTask.ExecuteFn = func(ctx context.Context) error {
		taskCompletedChan <- stuckID
		return nil
	}

	require.NoError(t, store.SaveTask(context.Background(), stuckTask))
	require.NoError(t, store.UpdateTaskStatus(context.Background(), stuckID, TaskStatusProcessing, ""))
	store.SetStatusTime(stuckID, time.Now().Add(-30*time.Minute))

	config := DefaultTaskRunnerConfig()
	config.StuckTaskAge = 15 * time.Minute
	config.StuckTaskCheckInterval = 100 * time.Millisecond

	runner := NewTaskRunner(store, config, logger)

	err := runner.Start()
	require.NoError(t, err)

	select {
	case taskID := <-taskCompletedChan:
		assert.Equal(t, stuckID, taskID, "Stuck task should have been executed")
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for stuck task to be executed")
	}

	runner.Stop()
}

// Helper function to extract task IDs from a slice of tasks
func extractTaskIDs(tasks []Task) []uuid.UUID {
	ids := make([]uuid.UUID, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID()
	}
	return ids
}

package task

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTaskStore implements the TaskStore interface for testing. Statuses
// are tracked in a side map rather than mutating the stored tasks, so any
// Task implementation can be saved.
type MockTaskStore struct {
	mutex           sync.RWMutex
	tasks           map[uuid.UUID]Task
	statuses        map[uuid.UUID]TaskStatus
	errorMessages   map[uuid.UUID]string
	taskStatusTimes map[uuid.UUID]time.Time
	SaveFn          func(ctx context.Context, task Task) error
	UpdateStatusFn  func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	store := &MockTaskStore{
		tasks:           make(map[uuid.UUID]Task),
		statuses:        make(map[uuid.UUID]TaskStatus),
		errorMessages:   make(map[uuid.UUID]string),
		taskStatusTimes: make(map[uuid.UUID]time.Time),
	}

	store.SaveFn = func(ctx context.Context, task Task) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		store.tasks[task.ID()] = task
		store.statuses[task.ID()] = task.Status()
		store.taskStatusTimes[task.ID()] = time.Now()
		return nil
	}

	store.UpdateStatusFn = func(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
		store.mutex.Lock()
		defer store.mutex.Unlock()

		if _, exists := store.tasks[taskID]; !exists {
			return nil // Missing tasks are a no-op, matching the production store
		}

		store.statuses[taskID] = status
		store.errorMessages[taskID] = errorMsg
		store.taskStatusTimes[taskID] = time.Now()
		return nil
	}

	return store
}

// SaveTask persists a task to the mock store
func (s *MockTaskStore) SaveTask(ctx context.Context, task Task) error {
	return s.SaveFn(ctx, task)
}

// UpdateTaskStatus updates the status of a task in the mock store
func (s *MockTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	return s.UpdateStatusFn(ctx, taskID, status, errorMsg)
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *MockTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var pendingTasks []Task
	for id, task := range s.tasks {
		if s.statuses[id] == TaskStatusPending {
			pendingTasks = append(pendingTasks, task)
		}
	}

	return pendingTasks, nil
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *MockTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var processingTasks []Task
	now := time.Now()

	for id, task := range s.tasks {
		if s.statuses[id] != TaskStatusProcessing {
			continue
		}

		// A zero olderThan matches every processing task
		statusTime, exists := s.taskStatusTimes[id]
		if olderThan == 0 || (exists && now.Sub(statusTime) > olderThan) {
			processingTasks = append(processingTasks, task)
		}
	}

	return processingTasks, nil
}

// StatusFor reports the tracked status of a task, defaulting to pending
// for unknown IDs
func (s *MockTaskStore) StatusFor(taskID uuid.UUID) TaskStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if status, ok := s.statuses[taskID]; ok {
		return status
	}
	return TaskStatusPending
}

// ErrorMessageFor reports the last error message recorded for a task
func (s *MockTaskStore) ErrorMessageFor(taskID uuid.UUID) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.errorMessages[taskID]
}

// SetStatusTime backdates a task's last status change, letting tests age
// tasks into stuck territory
func (s *MockTaskStore) SetStatusTime(taskID uuid.UUID, at time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.taskStatusTimes[taskID] = at
}

// WithTx implements TaskStore.WithTx for the mock store
// In the mock implementation, we just return the same store instance
func (s *MockTaskStore) WithTx(tx *sql.Tx) TaskStore {
	return s
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/flowiq/flowiq-api/internal/task"
)

// PostgresTaskStore implements the task.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements task.TaskStore interface
var _ task.TaskStore = (*PostgresTaskStore)(nil)

// SaveTask implements task.TaskStore.SaveTask
// It persists a task so it survives process restarts. Saving usually
// happens in the same transaction as the domain write that requested the
// task, via WithTx.
func (s *PostgresTaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)

	if err != nil {
		log.Error("failed to save task",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to save task: %w", MapError(err))
	}

	log.Debug("task saved",
		slog.String("task_id", t.ID().String()),
		slog.String("task_type", t.Type()))
	return nil
}

// UpdateTaskStatus implements task.TaskStore.UpdateTaskStatus
// It records a task's lifecycle transition along with any error message
// from a failed run. A missing task is treated as a no-op so workers can
// report on tasks that were pruned underneath them.
func (s *PostgresTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", taskID.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Warn("no task found to update status",
				slog.String("task_id", taskID.String()),
				slog.String("status", string(status)))
			return nil
		}
		return err
	}

	log.Debug("task status updated",
		slog.String("task_id", taskID.String()),
		slog.String("status", string(status)))
	return nil
}

// GetPendingTasks implements task.TaskStore.GetPendingTasks
// It retrieves all tasks waiting to run, oldest first, for requeueing at
// startup.
func (s *PostgresTaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks implements task.TaskStore.GetProcessingTasks
// It retrieves tasks stuck in the processing state for longer than
// olderThan, so the runner can recover work abandoned by a crashed
// worker. An olderThan of zero returns every processing task.
func (s *PostgresTaskStore) GetProcessingTasks(
	ctx context.Context,
	olderThan time.Duration,
) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

// getTasksByStatus retrieves tasks in the given status, optionally only
// those whose last update is older than the supplied age.
func (s *PostgresTaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{status}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to query tasks by status: %w", MapError(err))
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []task.Task
	for rows.Next() {
		var (
			id           uuid.UUID
			taskType     string
			payload      []byte
			taskStatus   task.TaskStatus
			errorMessage sql.NullString
			createdAt    time.Time
			updatedAt    time.Time
		)

		if err := rows.Scan(&id, &taskType, &payload, &taskStatus, &errorMessage, &createdAt, &updatedAt); err != nil {
			log.Error("failed to scan task row",
				slog.String("status", string(status)),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		tasks = append(tasks, &databaseTask{
			id:           id,
			taskType:     taskType,
			payload:      payload,
			status:       taskStatus,
			errorMessage: errorMessage.String,
			createdAt:    createdAt.UTC(),
			updatedAt:    updatedAt.UTC(),
		})
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// WithTx implements task.TaskStore.WithTx
// It returns a new TaskStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// databaseTask carries a task row loaded from the database. Rows come back
// as bare payloads; the runner rebuilds an executable task from the type
// and payload before dispatching, so Execute here only guards against a
// recovered task being run without that rebinding.
type databaseTask struct {
	id           uuid.UUID
	taskType     string
	payload      []byte
	status       task.TaskStatus
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// ID returns the task's unique identifier.
func (t *databaseTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *databaseTask) Type() string {
	return t.taskType
}

// Payload returns the task data as a byte slice.
func (t *databaseTask) Payload() []byte {
	return t.payload
}

// Status returns the current task status.
func (t *databaseTask) Status() task.TaskStatus {
	return t.status
}

// Execute fails: recovered rows must be rebuilt into concrete tasks by the
// runner's factory before they can run.
func (t *databaseTask) Execute(ctx context.Context) error {
	return errors.New("no execution function defined for recovered task")
}

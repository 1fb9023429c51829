package task

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/generation"
)

// mockInsightService is a configurable InsightService for testing that
// records every status transition it sees
type mockInsightService struct {
	GetInsightFn   func(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error)
	UpdateStatusFn func(ctx context.Context, insightID uuid.UUID, status domain.InsightStatus) error
	CompleteFn     func(ctx context.Context, insightID uuid.UUID, content string) error

	statuses         []domain.InsightStatus
	completedContent string
}

func (m *mockInsightService) GetInsight(ctx context.Context, insightID uuid.UUID) (*domain.Insight, error) {
	if m.GetInsightFn != nil {
		return m.GetInsightFn(ctx, insightID)
	}
	return &domain.Insight{
		ID:     insightID,
		UserID: uuid.New(),
		Status: domain.InsightStatusPending,
	}, nil
}

func (m *mockInsightService) UpdateInsightStatus(ctx context.Context, insightID uuid.UUID, status domain.InsightStatus) error {
	m.statuses = append(m.statuses, status)
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, insightID, status)
	}
	return nil
}

func (m *mockInsightService) CompleteInsight(ctx context.Context, insightID uuid.UUID, content string) error {
	m.completedContent = content
	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, insightID, content)
	}
	return nil
}

// mockDigester is a configurable HistoryDigester for testing
type mockDigester struct {
	BuildFn    func(ctx context.Context, userID uuid.UUID) (generation.InsightRequest, error)
	LastUserID uuid.UUID
}

func (m *mockDigester) BuildInsightRequest(ctx context.Context, userID uuid.UUID) (generation.InsightRequest, error) {
	m.LastUserID = userID
	if m.BuildFn != nil {
		return m.BuildFn(ctx, userID)
	}
	return generation.InsightRequest{CycleCount: 3, MoodTrend: "neutral"}, nil
}

func TestNewInsightGenerationTask(t *testing.T) {
	t.Parallel()

	logger := setupTestLogger()
	validInsightID := uuid.New()

	t.Run("creates task with valid parameters", func(t *testing.T) {
		task, err := NewInsightGenerationTask(
			validInsightID,
			&mockInsightService{},
			&mockDigester{},
			generation.NewMockGenerator(),
			logger,
		)

		require.NoError(t, err)
		assert.NotNil(t, task)
		assert.Equal(t, validInsightID, task.insightID)
		assert.Equal(t, TaskStatusPending, task.Status())
		assert.Equal(t, TaskTypeInsightGeneration, task.Type())
		assert.NotEqual(t, uuid.Nil, task.ID())
	})

	t.Run("fails with nil insight service", func(t *testing.T) {
		task, err := NewInsightGenerationTask(validInsightID, nil, &mockDigester{}, generation.NewMockGenerator(), logger)

		assert.Error(t, err)
		assert.Equal(t, ErrNilInsightService, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil digester", func(t *testing.T) {
		task, err := NewInsightGenerationTask(validInsightID, &mockInsightService{}, nil, generation.NewMockGenerator(), logger)

		assert.Error(t, err)
		assert.Equal(t, ErrNilHistoryDigester, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil generator", func(t *testing.T) {
		task, err := NewInsightGenerationTask(validInsightID, &mockInsightService{}, &mockDigester{}, nil, logger)

		assert.Error(t, err)
		assert.Equal(t, ErrNilGenerator, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil logger", func(t *testing.T) {
		task, err := NewInsightGenerationTask(validInsightID, &mockInsightService{}, &mockDigester{}, generation.NewMockGenerator(), nil)

		assert.Error(t, err)
		assert.Equal(t, ErrNilLogger, err)
		assert.Nil(t, task)
	})

	t.Run("fails with nil insight ID", func(t *testing.T) {
		task, err := NewInsightGenerationTask(uuid.Nil, &mockInsightService{}, &mockDigester{}, generation.NewMockGenerator(), logger)

		assert.Error(t, err)
		assert.Equal(t, ErrEmptyInsightID, err)
		assert.Nil(t, task)
	})
}

func TestInsightGenerationTaskPayload(t *testing.T) {
	t.Parallel()

	logger := setupTestLogger()
	validInsightID := uuid.New()

	task, err := NewInsightGenerationTask(
		validInsightID,
		&mockInsightService{},
		&mockDigester{},
		generation.NewMockGenerator(),
		logger,
	)
	require.NoError(t, err)

	payload := task.Payload()
	assert.NotEmpty(t, payload)

	var data insightGenerationPayload
	err = json.Unmarshal(payload, &data)
	require.NoError(t, err)
	assert.Equal(t, validInsightID, data.InsightID)
}

func TestInsightGenerationTask_Execute(t *testing.T) {
	logger := setupTestLogger()

	t.Run("successfully generates narrative", func(t *testing.T) {
		insightID := uuid.New()
		userID := uuid.New()

		insights := &mockInsightService{
			GetInsightFn: func(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
				return &domain.Insight{ID: id, UserID: userID, Status: domain.InsightStatusPending}, nil
			},
		}

		request := generation.InsightRequest{CycleCount: 5, MoodTrend: "positive"}
		digester := &mockDigester{
			BuildFn: func(ctx context.Context, id uuid.UUID) (generation.InsightRequest, error) {
				return request, nil
			},
		}

		generator := generation.NewMockGenerator()
		generator.Narrative = "Your last five cycles kept a steady rhythm."

		task, err := NewInsightGenerationTask(insightID, insights, digester, generator, logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, TaskStatusCompleted, task.Status())
		assert.Equal(t, userID, digester.LastUserID)
		require.Len(t, generator.Calls, 1)
		assert.Equal(t, request, generator.Calls[0])
		assert.Equal(t, []domain.InsightStatus{domain.InsightStatusProcessing}, insights.statuses)
		assert.Equal(t, "Your last five cycles kept a steady rhythm.", insights.completedContent)
	})

	t.Run("fails when already cancelled", func(t *testing.T) {
		task, err := NewInsightGenerationTask(
			uuid.New(),
			&mockInsightService{},
			&mockDigester{},
			generation.NewMockGenerator(),
			logger,
		)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = task.Execute(ctx)

		assert.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("handles insight not found", func(t *testing.T) {
		notFoundErr := errors.New("insight not found")
		insights := &mockInsightService{
			GetInsightFn: func(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
				return nil, notFoundErr
			},
		}

		task, err := NewInsightGenerationTask(uuid.New(), insights, &mockDigester{}, generation.NewMockGenerator(), logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorContains(t, err, "insight not found")
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Empty(t, insights.statuses)
	})

	t.Run("handles status update error", func(t *testing.T) {
		updateErr := errors.New("update status error")
		insights := &mockInsightService{
			UpdateStatusFn: func(ctx context.Context, id uuid.UUID, status domain.InsightStatus) error {
				return updateErr
			},
		}

		task, err := NewInsightGenerationTask(uuid.New(), insights, &mockDigester{}, generation.NewMockGenerator(), logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorContains(t, err, "update status error")
		assert.Equal(t, TaskStatusFailed, task.Status())
	})

	t.Run("handles digest error and marks insight failed", func(t *testing.T) {
		digestErr := errors.New("history unavailable")
		insights := &mockInsightService{}
		digester := &mockDigester{
			BuildFn: func(ctx context.Context, id uuid.UUID) (generation.InsightRequest, error) {
				return generation.InsightRequest{}, digestErr
			},
		}

		task, err := NewInsightGenerationTask(uuid.New(), insights, digester, generation.NewMockGenerator(), logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorContains(t, err, "history unavailable")
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Equal(t,
			[]domain.InsightStatus{domain.InsightStatusProcessing, domain.InsightStatusFailed},
			insights.statuses)
	})

	t.Run("handles generation error and marks insight failed", func(t *testing.T) {
		insights := &mockInsightService{}
		generator := generation.NewMockGenerator()
		generator.Err = generation.ErrGenerationFailed

		task, err := NewInsightGenerationTask(uuid.New(), insights, &mockDigester{}, generator, logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorIs(t, err, generation.ErrGenerationFailed)
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Equal(t,
			[]domain.InsightStatus{domain.InsightStatusProcessing, domain.InsightStatusFailed},
			insights.statuses)
		assert.Empty(t, insights.completedContent)
	})

	t.Run("handles narrative store error", func(t *testing.T) {
		saveErr := errors.New("save error")
		insights := &mockInsightService{
			CompleteFn: func(ctx context.Context, id uuid.UUID, content string) error {
				return saveErr
			},
		}

		task, err := NewInsightGenerationTask(uuid.New(), insights, &mockDigester{}, generation.NewMockGenerator(), logger)
		require.NoError(t, err)

		err = task.Execute(context.Background())

		assert.Error(t, err)
		assert.ErrorContains(t, err, "save error")
		assert.Equal(t, TaskStatusFailed, task.Status())
		assert.Equal(t,
			[]domain.InsightStatus{domain.InsightStatusProcessing, domain.InsightStatusFailed},
			insights.statuses)
	})
}

func TestInsightGenerationTaskFactory(t *testing.T) {
	t.Parallel()

	logger := setupTestLogger()
	factory := NewInsightGenerationTaskFactory(
		&mockInsightService{},
		&mockDigester{},
		generation.NewMockGenerator(),
		logger,
	)

	t.Run("creates task for insight", func(t *testing.T) {
		insightID := uuid.New()

		task, err := factory.CreateTask(insightID)

		require.NoError(t, err)
		assert.Equal(t, TaskTypeInsightGeneration, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())
	})

	t.Run("rejects nil insight ID", func(t *testing.T) {
		task, err := factory.CreateTask(uuid.Nil)

		assert.ErrorIs(t, err, ErrEmptyInsightID)
		assert.Nil(t, task)
	})

	t.Run("rebuilds task from persisted row", func(t *testing.T) {
		insightID := uuid.New()
		taskID := uuid.New()
		payload, err := json.Marshal(insightGenerationPayload{InsightID: insightID})
		require.NoError(t, err)

		task, err := factory.RebuildTask(taskID, payload)

		require.NoError(t, err)
		assert.Equal(t, taskID, task.ID(), "rebuilt task keeps the persisted ID")
		assert.Equal(t, TaskTypeInsightGeneration, task.Type())
		assert.JSONEq(t, string(payload), string(task.Payload()))
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		task, err := factory.RebuildTask(uuid.New(), []byte("not json"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode insight generation payload")
		assert.Nil(t, task)
	})
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/recommend"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *recommend.Engine {
	t.Helper()
	engine, err := recommend.NewEngine("", nil, slog.Default())
	require.NoError(t, err)
	return engine
}

func TestRecommendationService_Recommendations(t *testing.T) {
	userID := uuid.New()
	logger := slog.Default()
	now := time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC)
	// Cycle day two on 2026-01-30, squarely menstrual.
	history := []*domain.CycleRecord{
		mustCycleRecord(t, userID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 28),
		mustCycleRecord(t, userID, time.Date(2026, 1, 29, 0, 0, 0, 0, time.UTC), 28),
	}

	t.Run("scores templates for the current phase", func(t *testing.T) {
		cycleStore := &MockCycleStore{}
		feedbackStore := &MockFeedbackStore{}
		db, _ := newTxDB(t)
		engine := newTestEngine(t)

		cycleStore.On("ListHistory", mock.Anything, userID).Return(history, nil)
		feedbackStore.On("ListByUserSince", mock.Anything, userID, now.Add(-engine.Lookback())).
			Return([]*domain.RecommendationFeedback{}, nil)

		svc, err := NewRecommendationService(
			cycleStore, feedbackStore, engine, prediction.NewDefaultService(), db, logger)
		require.NoError(t, err)
		svc.(*recommendationServiceImpl).now = func() time.Time { return now }

		recommendations, err := svc.Recommendations(context.Background(), userID)
		require.NoError(t, err)
		require.NotEmpty(t, recommendations)

		// Every suggestion belongs to the menstrual pack section.
		for _, rec := range recommendations {
			assert.Contains(t, rec.ID, "menstrual")
		}
		// Best first.
		for i := 1; i < len(recommendations); i++ {
			assert.GreaterOrEqual(t, recommendations[i-1].Score, recommendations[i].Score)
		}

		cycleStore.AssertExpectations(t)
		feedbackStore.AssertExpectations(t)
	})

	t.Run("positive feedback boosts tag mates", func(t *testing.T) {
		cycleStore := &MockCycleStore{}
		feedbackStore := &MockFeedbackStore{}
		db, _ := newTxDB(t)
		engine := newTestEngine(t)

		fb, err := domain.NewRecommendationFeedback(userID, "menstrual-rest", true)
		require.NoError(t, err)
		fb.CreatedAt = now.Add(-24 * time.Hour)

		cycleStore.On("ListHistory", mock.Anything, userID).Return(history, nil)
		feedbackStore.On("ListByUserSince", mock.Anything, userID, mock.Anything).
			Return([]*domain.RecommendationFeedback{fb}, nil)

		svc, err := NewRecommendationService(
			cycleStore, feedbackStore, engine, prediction.NewDefaultService(), db, logger)
		require.NoError(t, err)
		svc.(*recommendationServiceImpl).now = func() time.Time { return now }

		recommendations, err := svc.Recommendations(context.Background(), userID)
		require.NoError(t, err)
		require.NotEmpty(t, recommendations)

		// Fresh positive feedback on menstrual-rest lifts it above its
		// 0.8 base score.
		var found bool
		for _, rec := range recommendations {
			if rec.ID == "menstrual-rest" {
				found = true
				assert.Greater(t, rec.Score, 0.8)
			}
		}
		assert.True(t, found)
	})

	t.Run("empty history", func(t *testing.T) {
		cycleStore := &MockCycleStore{}
		feedbackStore := &MockFeedbackStore{}
		db, _ := newTxDB(t)

		cycleStore.On("ListHistory", mock.Anything, userID).
			Return([]*domain.CycleRecord{}, nil)

		svc, err := NewRecommendationService(
			cycleStore, feedbackStore, newTestEngine(t), prediction.NewDefaultService(), db, logger)
		require.NoError(t, err)

		recommendations, err := svc.Recommendations(context.Background(), userID)
		require.Error(t, err)
		assert.Nil(t, recommendations)
		assert.ErrorIs(t, err, domain.ErrInsufficientHistory)
		feedbackStore.AssertNotCalled(t, "ListByUserSince", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecommendationService_RecordFeedback(t *testing.T) {
	userID := uuid.New()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		feedbackStore := &MockFeedbackStore{}
		db, dbMock := newTxDB(t)
		dbMock.ExpectBegin()
		dbMock.ExpectCommit()

		feedbackStore.On("WithTx", mock.Anything).Return(feedbackStore)
		feedbackStore.On("Create", mock.Anything, mock.MatchedBy(func(fb *domain.RecommendationFeedback) bool {
			return fb.UserID == userID &&
				fb.RecommendationID == "menstrual-rest" &&
				fb.Helpful
		})).Return(nil)

		svc, err := NewRecommendationService(
			&MockCycleStore{}, feedbackStore, newTestEngine(t), prediction.NewDefaultService(), db, logger)
		require.NoError(t, err)

		fb, err := svc.RecordFeedback(context.Background(), userID, "menstrual-rest", true)
		require.NoError(t, err)
		require.NotNil(t, fb)
		assert.True(t, fb.Helpful)

		feedbackStore.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown recommendation", func(t *testing.T) {
		feedbackStore := &MockFeedbackStore{}
		db, _ := newTxDB(t)

		svc, err := NewRecommendationService(
			&MockCycleStore{}, feedbackStore, newTestEngine(t), prediction.NewDefaultService(), db, logger)
		require.NoError(t, err)

		fb, err := svc.RecordFeedback(context.Background(), userID, "no-such-template", true)
		require.Error(t, err)
		assert.Nil(t, fb)
		assert.ErrorIs(t, err, ErrUnknownRecommendation)
		feedbackStore.AssertNotCalled(t, "WithTx", mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		feedbackStore := &MockFeedbackStore{}
		db, dbMock := newTxDB(t)
		dbMock.ExpectBegin()
		dbMock.ExpectRollback()

		feedbackStore.On("WithTx", mock.Anything).Return(feedbackStore)
		feedbackStore.On("Create", mock.Anything, mock.Anything).
			Return(errors.New("connection reset"))

		svc, err := NewRecommendationService(
			&MockCycleStore{}, feedbackStore, newTestEngine(t), prediction.NewDefaultService(), db, logger)
		require.NoError(t, err)

		fb, err := svc.RecordFeedback(context.Background(), userID, "menstrual-rest", false)
		require.Error(t, err)
		assert.Nil(t, fb)
		assert.ErrorContains(t, err, "failed to save recommendation feedback")
	})
}

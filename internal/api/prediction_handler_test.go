package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/forecast"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/service"
)

// MockPredictionService is a mock implementation of
// service.PredictionService for testing
type MockPredictionService struct {
	NextPredictionFn func(ctx context.Context, userID uuid.UUID) (*domain.PredictionResult, error)
	PhaseFn          func(ctx context.Context, userID uuid.UUID, date time.Time) (*prediction.PhaseResult, error)
	ForecastFn       func(ctx context.Context, userID uuid.UUID, days int) (*service.ForecastResult, error)
}

// NextPrediction implements service.PredictionService
func (m *MockPredictionService) NextPrediction(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.PredictionResult, error) {
	if m.NextPredictionFn != nil {
		return m.NextPredictionFn(ctx, userID)
	}
	return nil, nil
}

// Phase implements service.PredictionService
func (m *MockPredictionService) Phase(
	ctx context.Context,
	userID uuid.UUID,
	date time.Time,
) (*prediction.PhaseResult, error) {
	if m.PhaseFn != nil {
		return m.PhaseFn(ctx, userID, date)
	}
	return nil, nil
}

// Forecast implements service.PredictionService
func (m *MockPredictionService) Forecast(
	ctx context.Context,
	userID uuid.UUID,
	days int,
) (*service.ForecastResult, error) {
	if m.ForecastFn != nil {
		return m.ForecastFn(ctx, userID, days)
	}
	return nil, nil
}

func TestPredictionHandler_GetNextPrediction(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	computedAt := time.Date(2025, time.March, 29, 12, 0, 0, 0, time.UTC)

	t.Run("serves_prediction", func(t *testing.T) {
		mockService := &MockPredictionService{
			NextPredictionFn: func(ctx context.Context, userID uuid.UUID) (*domain.PredictionResult, error) {
				return &domain.PredictionResult{
					NextStartDate:      time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC),
					PredictedLength:    28,
					OvulationDate:      time.Date(2025, time.March, 29, 0, 0, 0, 0, time.UTC),
					FertileWindowStart: time.Date(2025, time.March, 24, 0, 0, 0, 0, time.UTC),
					FertileWindowEnd:   time.Date(2025, time.March, 29, 0, 0, 0, 0, time.UTC),
					Confidence:         0.82,
					SampleCount:        6,
					Basis:              domain.BasisHistory,
					ComputedAt:         computedAt,
				}, nil
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/next", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetNextPrediction(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp PredictionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2025-04-12", resp.NextStartDate)
		assert.Equal(t, 28, resp.PredictedLength)
		assert.Equal(t, "2025-03-29", resp.OvulationDate)
		assert.Equal(t, "2025-03-24", resp.FertileWindowStart)
		assert.Equal(t, "2025-03-29", resp.FertileWindowEnd)
		assert.InDelta(t, 0.82, resp.Confidence, 0.001)
		assert.Equal(t, 6, resp.SampleCount)
		assert.Equal(t, "history", resp.Basis)
	})

	t.Run("empty_history_maps_to_422", func(t *testing.T) {
		mockService := &MockPredictionService{
			NextPredictionFn: func(ctx context.Context, userID uuid.UUID) (*domain.PredictionResult, error) {
				return nil, domain.ErrInsufficientHistory
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/next", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetNextPrediction(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var respBody map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
		assert.Contains(t, respBody["error"], "Not enough cycle history")
	})

	t.Run("service_error_maps_to_500", func(t *testing.T) {
		mockService := &MockPredictionService{
			NextPredictionFn: func(ctx context.Context, userID uuid.UUID) (*domain.PredictionResult, error) {
				return nil, errors.New("cache backend down")
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/next", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetNextPrediction(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "cache backend down")
	})

	t.Run("missing_user_id", func(t *testing.T) {
		handler := NewPredictionHandler(&MockPredictionService{}, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/next", nil)
		w := httptest.NewRecorder()

		handler.GetNextPrediction(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPredictionHandler_GetPhase(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	t.Run("resolves_requested_date", func(t *testing.T) {
		var gotDate time.Time
		mockService := &MockPredictionService{
			PhaseFn: func(ctx context.Context, userID uuid.UUID, date time.Time) (*prediction.PhaseResult, error) {
				gotDate = date
				return &prediction.PhaseResult{
					Phase:       domain.PhaseLuteal,
					DayInCycle:  21,
					CycleLength: 28,
				}, nil
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/phase?date=2025-03-21", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetPhase(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, time.Date(2025, time.March, 21, 0, 0, 0, 0, time.UTC), gotDate)

		var resp PhaseResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "luteal", resp.Phase)
		assert.Equal(t, 21, resp.DayInCycle)
		assert.Equal(t, 28, resp.CycleLength)
	})

	t.Run("defaults_to_today", func(t *testing.T) {
		var gotDate time.Time
		mockService := &MockPredictionService{
			PhaseFn: func(ctx context.Context, userID uuid.UUID, date time.Time) (*prediction.PhaseResult, error) {
				gotDate = date
				return &prediction.PhaseResult{Phase: domain.PhaseFollicular, DayInCycle: 9, CycleLength: 28}, nil
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/phase", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetPhase(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.WithinDuration(t, time.Now().UTC(), gotDate, time.Minute)
	})

	t.Run("date_before_history_maps_to_422", func(t *testing.T) {
		mockService := &MockPredictionService{
			PhaseFn: func(ctx context.Context, userID uuid.UUID, date time.Time) (*prediction.PhaseResult, error) {
				return nil, prediction.ErrDateBeforeHistory
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/phase?date=2020-01-01", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetPhase(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("malformed_date_is_rejected", func(t *testing.T) {
		handler := NewPredictionHandler(&MockPredictionService{}, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/predictions/phase?date=yesterday", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetPhase(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPredictionHandler_GetForecast(t *testing.T) {
	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	t.Run("serves_forecast", func(t *testing.T) {
		var gotDays int
		mockService := &MockPredictionService{
			ForecastFn: func(ctx context.Context, userID uuid.UUID, days int) (*service.ForecastResult, error) {
				gotDays = days
				return &service.ForecastResult{
					Days: []forecast.DayForecast{
						{
							Date:          time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC),
							DayInCycle:    2,
							Probabilities: map[string]float64{"cramps": 0.75},
						},
					},
					Mood: forecast.MoodSummary{
						Bucket:      domain.MoodPositive,
						Average:     3.8,
						SampleCount: 5,
					},
				}, nil
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/forecast?days=14", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetForecast(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 14, gotDays)

		var resp ForecastResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Days, 1)
		assert.Equal(t, "2025-03-30", resp.Days[0].Date)
		assert.Equal(t, 2, resp.Days[0].DayInCycle)
		assert.InDelta(t, 0.75, resp.Days[0].Probabilities["cramps"], 0.001)
		assert.Equal(t, "positive", resp.Mood.Bucket)
		assert.InDelta(t, 3.8, resp.Mood.Average, 0.001)
		assert.Equal(t, 5, resp.Mood.SampleCount)
	})

	t.Run("absent_days_defers_to_forecaster", func(t *testing.T) {
		var gotDays int
		mockService := &MockPredictionService{
			ForecastFn: func(ctx context.Context, userID uuid.UUID, days int) (*service.ForecastResult, error) {
				gotDays = days
				return &service.ForecastResult{}, nil
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetForecast(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, gotDays)
	})

	t.Run("empty_history_maps_to_422", func(t *testing.T) {
		mockService := &MockPredictionService{
			ForecastFn: func(ctx context.Context, userID uuid.UUID, days int) (*service.ForecastResult, error) {
				return nil, domain.ErrInsufficientHistory
			},
		}
		handler := NewPredictionHandler(mockService, newTestLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
		req = req.WithContext(context.WithValue(req.Context(), shared.UserIDContextKey, fixedUserID))
		w := httptest.NewRecorder()

		handler.GetForecast(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

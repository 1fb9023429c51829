package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/forecast"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/service"
)

// PredictionResponse represents the response data for a next-cycle prediction
type PredictionResponse struct {
	NextStartDate      string    `json:"next_start_date"`
	PredictedLength    int       `json:"predicted_length"`
	OvulationDate      string    `json:"ovulation_date"`
	FertileWindowStart string    `json:"fertile_window_start"`
	FertileWindowEnd   string    `json:"fertile_window_end"`
	Confidence         float64   `json:"confidence"`
	SampleCount        int       `json:"sample_count"`
	Basis              string    `json:"basis"`
	ComputedAt         time.Time `json:"computed_at"`
}

// PhaseResponse represents the response data for a cycle phase lookup
type PhaseResponse struct {
	Phase       string `json:"phase"`
	DayInCycle  int    `json:"day_in_cycle"`
	CycleLength int    `json:"cycle_length"`
}

// ForecastDayResponse represents one day of the symptom outlook
type ForecastDayResponse struct {
	Date          string             `json:"date"`
	DayInCycle    int                `json:"day_in_cycle"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// MoodSummaryResponse represents the current mood trend
type MoodSummaryResponse struct {
	Bucket      string  `json:"bucket"`
	Average     float64 `json:"average"`
	SampleCount int     `json:"sample_count"`
}

// ForecastResponse represents the response data for a symptom forecast
type ForecastResponse struct {
	Days []ForecastDayResponse `json:"days"`
	Mood MoodSummaryResponse   `json:"mood"`
}

// PredictionHandler handles prediction and forecast HTTP requests
type PredictionHandler struct {
	predictionService service.PredictionService
	logger            *slog.Logger
}

// NewPredictionHandler creates a new PredictionHandler
func NewPredictionHandler(predictionService service.PredictionService, logger *slog.Logger) *PredictionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PredictionHandler")
	}

	return &PredictionHandler{
		predictionService: predictionService,
		logger:            logger.With(slog.String("component", "prediction_handler")),
	}
}

// GetNextPrediction handles GET /predictions/next requests.
// Users with no recorded cycles get a 422 response.
func (h *PredictionHandler) GetNextPrediction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	result, err := h.predictionService.NextPrediction(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute prediction")
		return
	}

	log.Debug("prediction served",
		slog.String("user_id", userID.String()),
		slog.String("basis", string(result.Basis)))
	shared.RespondWithJSON(w, r, http.StatusOK, predictionToResponse(result))
}

// GetPhase handles GET /predictions/phase requests.
// The optional date query parameter selects the day to resolve; it
// defaults to today.
func (h *PredictionHandler) GetPhase(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	date, err := parseDateQuery(r, "date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	result, err := h.predictionService.Phase(r.Context(), userID, date)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to resolve cycle phase")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, phaseToResponse(result))
}

// GetForecast handles GET /forecast requests.
// The optional days query parameter sets the horizon; the forecaster
// applies its default and maximum when it is absent or out of range.
func (h *PredictionHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	days, err := parseIntQuery(r, "days", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.predictionService.Forecast(r.Context(), userID, days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute forecast")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, forecastToResponse(result))
}

// predictionToResponse converts a domain prediction to its API
// representation.
func predictionToResponse(result *domain.PredictionResult) PredictionResponse {
	return PredictionResponse{
		NextStartDate:      result.NextStartDate.Format(dateLayout),
		PredictedLength:    result.PredictedLength,
		OvulationDate:      result.OvulationDate.Format(dateLayout),
		FertileWindowStart: result.FertileWindowStart.Format(dateLayout),
		FertileWindowEnd:   result.FertileWindowEnd.Format(dateLayout),
		Confidence:         result.Confidence,
		SampleCount:        result.SampleCount,
		Basis:              string(result.Basis),
		ComputedAt:         result.ComputedAt,
	}
}

// phaseToResponse converts a phase lookup result to its API representation.
func phaseToResponse(result *prediction.PhaseResult) PhaseResponse {
	return PhaseResponse{
		Phase:       string(result.Phase),
		DayInCycle:  result.DayInCycle,
		CycleLength: result.CycleLength,
	}
}

// forecastToResponse converts a forecast result to its API representation.
func forecastToResponse(result *service.ForecastResult) ForecastResponse {
	days := make([]ForecastDayResponse, 0, len(result.Days))
	for _, day := range result.Days {
		days = append(days, forecastDayToResponse(day))
	}

	return ForecastResponse{
		Days: days,
		Mood: MoodSummaryResponse{
			Bucket:      string(result.Mood.Bucket),
			Average:     result.Mood.Average,
			SampleCount: result.Mood.SampleCount,
		},
	}
}

func forecastDayToResponse(day forecast.DayForecast) ForecastDayResponse {
	return ForecastDayResponse{
		Date:          day.Date.Format(dateLayout),
		DayInCycle:    day.DayInCycle,
		Probabilities: day.Probabilities,
	}
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/service"
)

// defaultWellnessRangeDays is the window served by GET /wellness when the
// caller does not bound the range.
const defaultWellnessRangeDays = 30

// SyncWellnessRequest represents the request body for a wellness sync
type SyncWellnessRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date"   validate:"required"`
}

// SyncWellnessResponse represents the response data for a wellness sync
type SyncWellnessResponse struct {
	Synced int `json:"synced"`
}

// WellnessSampleResponse represents the response data for one wellness
// sample, including its composite score
type WellnessSampleResponse struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	SleepHours    float64   `json:"sleep_hours"`
	ActiveMinutes int       `json:"active_minutes"`
	RestingHRV    float64   `json:"resting_hrv_ms"`
	Source        string    `json:"source"`
	Score         float64   `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

// WellnessHandler handles wellness HTTP requests
type WellnessHandler struct {
	wellnessService service.WellnessService
	logger          *slog.Logger
}

// NewWellnessHandler creates a new WellnessHandler
func NewWellnessHandler(wellnessService service.WellnessService, logger *slog.Logger) *WellnessHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for WellnessHandler")
	}

	return &WellnessHandler{
		wellnessService: wellnessService,
		logger:          logger.With(slog.String("component", "wellness_handler")),
	}
}

// SyncWellness handles POST /wellness/sync requests.
// It pulls provider metrics for the requested date range and stores them
// as wellness samples. Provider outages surface as 502.
func (h *WellnessHandler) SyncWellness(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req SyncWellnessRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	start, err := parseDateField(req.StartDate, "start_date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	end, err := parseDateField(req.EndDate, "end_date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if end.Before(start) {
		shared.RespondWithError(w, r, http.StatusBadRequest, "end_date must not be before start_date")
		return
	}

	synced, err := h.wellnessService.Sync(r.Context(), userID, start, end)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to sync wellness data")
		return
	}

	log.Debug("wellness samples synced",
		slog.String("user_id", userID.String()),
		slog.Int("synced", synced))
	shared.RespondWithJSON(w, r, http.StatusOK, SyncWellnessResponse{Synced: synced})
}

// ListWellness handles GET /wellness requests.
// The optional from and to query parameters bound the inclusive date
// range; when absent the last 30 days are served.
func (h *WellnessHandler) ListWellness(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	from, err := parseDateQuery(r, "from")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	to, err := parseDateQuery(r, "to")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if to.IsZero() {
		to = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -(defaultWellnessRangeDays - 1))
	}

	samples, err := h.wellnessService.Range(r.Context(), userID, from, to)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list wellness samples")
		return
	}

	responses := make([]WellnessSampleResponse, 0, len(samples))
	for _, sample := range samples {
		responses = append(responses, wellnessSampleToResponse(sample))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// wellnessSampleToResponse converts a domain wellness sample to its API
// representation, attaching the computed score.
func wellnessSampleToResponse(sample *domain.WellnessSample) WellnessSampleResponse {
	return WellnessSampleResponse{
		ID:            sample.ID.String(),
		Date:          sample.Date.Format(dateLayout),
		SleepHours:    sample.SleepHours,
		ActiveMinutes: sample.ActiveMinutes,
		RestingHRV:    sample.RestingHRV,
		Source:        sample.Source,
		Score:         sample.Score(),
		CreatedAt:     sample.CreatedAt,
	}
}

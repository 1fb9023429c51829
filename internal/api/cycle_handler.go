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

// CreateCycleRequest represents the request body for logging a completed cycle
type CreateCycleRequest struct {
	StartDate    string   `json:"start_date"           validate:"required"`
	CycleLength  int      `json:"cycle_length"         validate:"required,gte=15,lte=90"`
	PeriodLength int      `json:"period_length"        validate:"required,gte=1,lte=14"`
	Flow         string   `json:"flow"                 validate:"required,oneof=none light medium heavy"`
	Symptoms     []string `json:"symptoms,omitempty"`
	MoodTag      string   `json:"mood_tag,omitempty"`
}

// CycleResponse represents the response data for a cycle record
type CycleResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	StartDate    string    `json:"start_date"`
	CycleLength  int       `json:"cycle_length"`
	PeriodLength int       `json:"period_length"`
	Flow         string    `json:"flow"`
	Symptoms     []string  `json:"symptoms,omitempty"`
	MoodTag      string    `json:"mood_tag,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CycleStatsResponse represents the response data for cycle history statistics
type CycleStatsResponse struct {
	Count        int     `json:"count"`
	MeanLength   float64 `json:"mean_length"`
	StdDevLength float64 `json:"std_dev_length"`
	MinLength    int     `json:"min_length"`
	MaxLength    int     `json:"max_length"`
	LatestStart  string  `json:"latest_start,omitempty"`
}

// CycleHandler handles cycle-related HTTP requests
type CycleHandler struct {
	cycleService service.CycleService
	logger       *slog.Logger
}

// NewCycleHandler creates a new CycleHandler
func NewCycleHandler(cycleService service.CycleService, logger *slog.Logger) *CycleHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CycleHandler")
	}

	return &CycleHandler{
		cycleService: cycleService,
		logger:       logger.With(slog.String("component", "cycle_handler")),
	}
}

// CreateCycle handles POST /cycles requests.
// It appends one completed cycle to the authenticated user's history.
func (h *CycleHandler) CreateCycle(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateCycleRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	startDate, err := parseDateField(req.StartDate, "start_date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	record, err := h.cycleService.AppendCycle(r.Context(), userID, service.AppendCycleInput{
		StartDate:    startDate,
		CycleLength:  req.CycleLength,
		PeriodLength: req.PeriodLength,
		Flow:         domain.FlowIntensity(req.Flow),
		Symptoms:     req.Symptoms,
		MoodTag:      req.MoodTag,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to log cycle")
		return
	}

	log.Debug("cycle logged",
		slog.String("user_id", userID.String()),
		slog.String("cycle_id", record.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, cycleToResponse(record))
}

// ListCycles handles GET /cycles requests.
// It returns a page of the user's cycle history, newest first. The limit
// and offset query parameters control the page; the storage layer applies
// its default page size when limit is absent.
func (h *CycleHandler) ListCycles(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit, err := parseIntQuery(r, "limit", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	offset, err := parseIntQuery(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	records, err := h.cycleService.ListCycles(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list cycles")
		return
	}

	responses := make([]CycleResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, cycleToResponse(record))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetCycleStats handles GET /cycles/stats requests.
// It summarizes the lengths of the user's recorded cycles.
func (h *CycleHandler) GetCycleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.cycleService.Stats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute cycle statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cycleStatsToResponse(stats))
}

// cycleToResponse converts a domain cycle record to its API representation.
func cycleToResponse(record *domain.CycleRecord) CycleResponse {
	return CycleResponse{
		ID:           record.ID.String(),
		UserID:       record.UserID.String(),
		StartDate:    record.StartDate.Format(dateLayout),
		CycleLength:  record.CycleLength,
		PeriodLength: record.PeriodLength,
		Flow:         string(record.Flow),
		Symptoms:     record.Symptoms,
		MoodTag:      record.MoodTag,
		CreatedAt:    record.CreatedAt,
	}
}

// cycleStatsToResponse converts cycle statistics to their API representation.
// An empty history yields a zero-valued summary with no latest start date.
func cycleStatsToResponse(stats domain.CycleStats) CycleStatsResponse {
	resp := CycleStatsResponse{
		Count:        stats.Count,
		MeanLength:   stats.MeanLength,
		StdDevLength: stats.StdDevLength,
		MinLength:    stats.MinLength,
		MaxLength:    stats.MaxLength,
	}
	if !stats.LatestStartAt.IsZero() {
		resp.LatestStart = stats.LatestStartAt.Format(dateLayout)
	}
	return resp
}

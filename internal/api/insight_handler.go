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

// InsightResponse represents the response data for an insight
type InsightResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InsightHandler handles insight HTTP requests
type InsightHandler struct {
	insightService service.InsightService
	logger         *slog.Logger
}

// NewInsightHandler creates a new InsightHandler
func NewInsightHandler(insightService service.InsightService, logger *slog.Logger) *InsightHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for InsightHandler")
	}

	return &InsightHandler{
		insightService: insightService,
		logger:         logger.With(slog.String("component", "insight_handler")),
	}
}

// CreateInsight handles POST /insights requests.
// It queues asynchronous generation and responds 202 with the pending
// insight; clients poll GET /insights/{id} for completion.
func (h *InsightHandler) CreateInsight(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	insight, err := h.insightService.RequestInsight(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to request insight")
		return
	}

	log.Debug("insight requested",
		slog.String("user_id", userID.String()),
		slog.String("insight_id", insight.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusAccepted, insightToResponse(insight))
}

// GetInsight handles GET /insights/{id} requests.
func (h *InsightHandler) GetInsight(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, insightID, ok := handleUserIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	insight, err := h.insightService.GetInsight(r.Context(), userID, insightID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get insight")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, insightToResponse(insight))
}

// ListInsights handles GET /insights requests.
func (h *InsightHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
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

	insights, err := h.insightService.ListInsights(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list insights")
		return
	}

	responses := make([]InsightResponse, 0, len(insights))
	for _, insight := range insights {
		responses = append(responses, insightToResponse(insight))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// insightToResponse converts a domain insight to its API representation.
func insightToResponse(insight *domain.Insight) InsightResponse {
	return InsightResponse{
		ID:        insight.ID.String(),
		Status:    string(insight.Status),
		Content:   insight.Content,
		CreatedAt: insight.CreatedAt,
		UpdatedAt: insight.UpdatedAt,
	}
}

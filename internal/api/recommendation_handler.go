package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/service"
)

// FeedbackRequest represents the request body for recommendation feedback.
// Helpful is a pointer so an explicit false survives required validation.
type FeedbackRequest struct {
	Helpful *bool `json:"helpful" validate:"required"`
}

// FeedbackResponse represents the response data for recorded feedback
type FeedbackResponse struct {
	ID               string    `json:"id"`
	RecommendationID string    `json:"recommendation_id"`
	Helpful          bool      `json:"helpful"`
	CreatedAt        time.Time `json:"created_at"`
}

// RecommendationHandler handles recommendation HTTP requests
type RecommendationHandler struct {
	recommendationService service.RecommendationService
	logger                *slog.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(
	recommendationService service.RecommendationService,
	logger *slog.Logger,
) *RecommendationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RecommendationHandler")
	}

	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger.With(slog.String("component", "recommendation_handler")),
	}
}

// ListRecommendations handles GET /recommendations requests.
// It returns phase-appropriate suggestions scored best first. Users with
// no recorded cycles get a 422 response.
func (h *RecommendationHandler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	recommendations, err := h.recommendationService.Recommendations(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute recommendations")
		return
	}

	log.Debug("recommendations served",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(recommendations)))
	shared.RespondWithJSON(w, r, http.StatusOK, recommendations)
}

// SubmitFeedback handles POST /recommendations/{id}/feedback requests.
// The path ID is a recommendation template ID, not a UUID.
func (h *RecommendationHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	recommendationID := chi.URLParam(r, "id")
	if recommendationID == "" {
		log.Warn("recommendation ID not found in URL path")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Recommendation ID is required")
		return
	}

	var req FeedbackRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	feedback, err := h.recommendationService.RecordFeedback(r.Context(), userID, recommendationID, *req.Helpful)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record feedback")
		return
	}

	log.Debug("feedback recorded",
		slog.String("user_id", userID.String()),
		slog.String("recommendation_id", feedback.RecommendationID),
		slog.Bool("helpful", feedback.Helpful))
	shared.RespondWithJSON(w, r, http.StatusCreated, feedbackToResponse(feedback))
}

// feedbackToResponse converts recorded feedback to its API representation.
func feedbackToResponse(feedback *domain.RecommendationFeedback) FeedbackResponse {
	return FeedbackResponse{
		ID:               feedback.ID.String(),
		RecommendationID: feedback.RecommendationID,
		Helpful:          feedback.Helpful,
		CreatedAt:        feedback.CreatedAt,
	}
}

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

// LogSymptomRequest represents the request body for logging a symptom
type LogSymptomRequest struct {
	Date      string `json:"date"      validate:"required"`
	Symptom   string `json:"symptom"   validate:"required,min=1,max=100"`
	Intensity int    `json:"intensity" validate:"gte=0,lte=3"`
}

// SymptomResponse represents the response data for a symptom observation
type SymptomResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Symptom   string    `json:"symptom"`
	Intensity int       `json:"intensity"`
	CreatedAt time.Time `json:"created_at"`
}

// LogMoodRequest represents the request body for logging a mood score
type LogMoodRequest struct {
	Date  string `json:"date"  validate:"required"`
	Score int    `json:"score" validate:"required,gte=1,lte=5"`
}

// MoodResponse represents the response data for a mood entry
type MoodResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackingHandler handles symptom and mood tracking HTTP requests
type TrackingHandler struct {
	trackingService service.TrackingService
	logger          *slog.Logger
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(trackingService service.TrackingService, logger *slog.Logger) *TrackingHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TrackingHandler")
	}

	return &TrackingHandler{
		trackingService: trackingService,
		logger:          logger.With(slog.String("component", "tracking_handler")),
	}
}

// LogSymptom handles POST /symptoms requests.
func (h *TrackingHandler) LogSymptom(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req LogSymptomRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	observation, err := h.trackingService.LogSymptom(r.Context(), userID, date, req.Symptom, req.Intensity)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to log symptom")
		return
	}

	log.Debug("symptom logged",
		slog.String("user_id", userID.String()),
		slog.String("symptom", observation.Symptom))
	shared.RespondWithJSON(w, r, http.StatusCreated, symptomToResponse(observation))
}

// ListSymptoms handles GET /symptoms requests.
// The optional from and to query parameters bound the inclusive date
// range; omitting both returns the full history.
func (h *TrackingHandler) ListSymptoms(w http.ResponseWriter, r *http.Request) {
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

	observations, err := h.trackingService.ListSymptoms(r.Context(), userID, from, to)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list symptoms")
		return
	}

	responses := make([]SymptomResponse, 0, len(observations))
	for _, observation := range observations {
		responses = append(responses, symptomToResponse(observation))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// LogMood handles POST /moods requests.
func (h *TrackingHandler) LogMood(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req LogMoodRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	entry, err := h.trackingService.LogMood(r.Context(), userID, date, req.Score)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to log mood")
		return
	}

	log.Debug("mood logged",
		slog.String("user_id", userID.String()),
		slog.Int("score", entry.Score))
	shared.RespondWithJSON(w, r, http.StatusCreated, moodToResponse(entry))
}

// symptomToResponse converts a domain symptom observation to its API
// representation.
func symptomToResponse(observation *domain.SymptomObservation) SymptomResponse {
	return SymptomResponse{
		ID:        observation.ID.String(),
		UserID:    observation.UserID.String(),
		Date:      observation.Date.Format(dateLayout),
		Symptom:   observation.Symptom,
		Intensity: observation.Intensity,
		CreatedAt: observation.CreatedAt,
	}
}

// moodToResponse converts a domain mood entry to its API representation.
func moodToResponse(entry *domain.MoodEntry) MoodResponse {
	return MoodResponse{
		ID:        entry.ID.String(),
		UserID:    entry.UserID.String(),
		Date:      entry.Date.Format(dateLayout),
		Score:     entry.Score,
		CreatedAt: entry.CreatedAt,
	}
}

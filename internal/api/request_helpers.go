package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
)

// dateLayout is the wire format for date-valued fields. Dates carry no
// time-of-day component anywhere in the API.
const dateLayout = "2006-01-02"

// getUserIDFromContext extracts the authenticated user's UUID from the
// request context, where the authentication middleware placed it.
//
// Returns:
//   - (uuid.UUID, true): The user's UUID if successfully extracted
//   - (uuid.Nil, false): A zero UUID if the user ID is missing or invalid
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// requireUserID extracts the authenticated user's UUID and writes a 401
// response when it is absent. Handlers should return immediately when ok
// is false.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts a UUID from the named URL path parameter.
//
// Returns:
//   - (uuid.UUID, nil): The parsed UUID if valid
//   - (uuid.Nil, error): A wrapped validation error if the parameter is
//     missing or malformed
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%s is required: %w", paramName, domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s has invalid format: %w", paramName, domain.ErrInvalidID)
	}

	return id, nil
}

// handleUserIDAndPathUUID is a composite helper that extracts both the
// authenticated user ID and a UUID path parameter. It writes an error
// response itself when either extraction fails, so handlers should return
// immediately when ok is false.
func handleUserIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (uuid.UUID, uuid.UUID, bool) {
	if log == nil {
		log = logger.FromContextOrDefault(r.Context(), slog.Default())
	}

	userID, ok := getUserIDFromContext(r)
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		log.Warn("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}

// parseDateQuery reads a date-valued query parameter. A missing or empty
// parameter yields the zero time with no error, so callers can treat it
// as "not provided".
func parseDateQuery(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a %s date: %w", name, dateLayout, domain.ErrInvalidFormat)
	}
	return t, nil
}

// parseIntQuery reads an integer query parameter, returning def when the
// parameter is absent.
func parseIntQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, domain.ErrInvalidFormat)
	}
	return n, nil
}

// parseDateField parses a required date-valued request body field.
func parseDateField(value, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a %s date: %w", field, dateLayout, domain.ErrInvalidFormat)
	}
	return t, nil
}

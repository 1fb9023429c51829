package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/platform/wearable"
	"github.com/flowiq/flowiq-api/internal/service"
	"github.com/flowiq/flowiq-api/internal/service/auth"
	"github.com/flowiq/flowiq-api/internal/store"
)

// validationSentinels are the domain errors a client can trigger with bad
// input. They all map to 400 and their constant text doubles as the safe
// client-facing message.
var validationSentinels = []error{
	domain.ErrValidation,
	domain.ErrInvalidFormat,
	domain.ErrInvalidID,
	domain.ErrInvalidEmail,
	domain.ErrInvalidPassword,
	domain.ErrEmptyEmail,
	domain.ErrEmptyPassword,
	domain.ErrPasswordTooShort,
	domain.ErrPasswordTooLong,
	domain.ErrEmptyCycleStartDate,
	domain.ErrInvalidCycleLength,
	domain.ErrInvalidPeriodLength,
	domain.ErrInvalidFlowIntensity,
	domain.ErrEmptySymptomDate,
	domain.ErrEmptySymptomName,
	domain.ErrInvalidSymptomIntensity,
	domain.ErrEmptyMoodDate,
	domain.ErrInvalidMoodScore,
	domain.ErrInvalidSleepHours,
	domain.ErrInvalidActiveMinutes,
	domain.ErrInvalidRestingHRV,
	domain.ErrEmptyRecommendationID,
}

// matchValidationSentinel returns the first validation sentinel the error
// wraps, or nil.
func matchValidationSentinel(err error) error {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status
// codes based on the error type. This prevents leaking internal error
// types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrCycleNotFound),
		errors.Is(err, service.ErrInsightNotFound),
		errors.Is(err, service.ErrUnknownRecommendation):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrCycleExists):
		return http.StatusConflict

	// Requests that are well formed but cannot be processed against the
	// user's recorded history
	case errors.Is(err, domain.ErrInsufficientHistory),
		errors.Is(err, domain.ErrCycleOutOfOrder),
		errors.Is(err, prediction.ErrDateBeforeHistory):
		return http.StatusUnprocessableEntity

	// Wearable provider failures
	case errors.Is(err, wearable.ErrUpstream):
		return http.StatusBadGateway

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		matchValidationSentinel(err) != nil:
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal
// details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned),
		errors.Is(err, domain.ErrUnauthorized):
		return "You do not have access to this resource"

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrCycleNotFound):
		return "Cycle not found"

	case errors.Is(err, service.ErrInsightNotFound):
		return "Insight not found"

	case errors.Is(err, service.ErrUnknownRecommendation):
		return "Recommendation not found"

	// Conflict errors
	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrCycleExists):
		return "A cycle with this start date is already recorded"

	// History-dependent rejections
	case errors.Is(err, domain.ErrInsufficientHistory):
		return "Not enough cycle history recorded for this operation"

	case errors.Is(err, domain.ErrCycleOutOfOrder):
		return "Cycle start date must be after the latest recorded cycle"

	case errors.Is(err, prediction.ErrDateBeforeHistory):
		return "Date is before the start of the recorded history"

	// Wearable provider failures
	case errors.Is(err, wearable.ErrUpstream):
		return "The wearable provider is currently unavailable"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		// Validation sentinel text is constant and written for users, so
		// it is safe to surface verbatim.
		if sentinel := matchValidationSentinel(err); sentinel != nil {
			return sentinel.Error()
		}
		return "An unexpected error occurred"
	}
}

// HandleAPIError maps err to a status code and safe message, logs the
// underlying error redacted, and writes the error response. When the
// error maps to a plain 500, fallbackMessage (if non-empty) replaces the
// generic message so the client at least learns which operation failed.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// SanitizeValidationError removes sensitive details from validator
// errors and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example: "Key: 'LoginRequest.Email' Error:Field validation for
	// 'Email' failed on the 'required' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error
// messages.
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/api/shared"
	"github.com/flowiq/flowiq-api/internal/config"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/service"
	"github.com/flowiq/flowiq-api/internal/service/auth"
	"github.com/flowiq/flowiq-api/internal/store"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	userService      service.UserService
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       *config.AuthConfig
	logger           *slog.Logger
	timeFunc         func() time.Time
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig *config.AuthConfig,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}

	return &AuthHandler{
		userService:      userService,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		logger:           logger.With(slog.String("component", "auth_handler")),
		timeFunc:         time.Now,
	}
}

// WithTimeFunc overrides the clock used to compute token expiry timestamps.
// Intended for tests.
func (h *AuthHandler) WithTimeFunc(fn func() time.Time) *AuthHandler {
	h.timeFunc = fn
	return h
}

// generateTokenResponse issues a fresh access/refresh token pair for the
// user and computes the access token expiry timestamp.
func (h *AuthHandler) generateTokenResponse(
	r *http.Request,
	userID uuid.UUID,
) (accessToken, refreshToken, expiresAt string, err error) {
	accessToken, err = h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		return "", "", "", err
	}

	refreshToken, err = h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		return "", "", "", err
	}

	lifetime := time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute
	expiresAt = h.timeFunc().UTC().Add(lifetime).Format(time.RFC3339)
	return accessToken, refreshToken, expiresAt, nil
}

// Register handles POST /auth/register requests.
// It creates the account and immediately signs the new user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.generateTokenResponse(r, user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	log.Debug("user registered", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// Login handles POST /auth/login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := h.userService.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// An unknown email and a wrong password must be indistinguishable
		// to the caller.
		if errors.Is(err, store.ErrUserNotFound) {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.generateTokenResponse(r, user.ID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	log.Debug("user logged in", slog.String("user_id", user.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

// RefreshToken handles POST /auth/refresh requests.
// It validates the presented refresh token and issues a new token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	accessToken, refreshToken, expiresAt, err := h.generateTokenResponse(r, claims.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate authentication token")
		return
	}

	log.Debug("token refreshed", slog.String("user_id", claims.UserID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	})
}

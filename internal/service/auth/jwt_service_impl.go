package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowiq/flowiq-api/internal/config"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// hmacJWTService is an implementation of JWTService using HMAC-SHA signing.
type hmacJWTService struct {
	signingKey           []byte
	tokenLifetime        time.Duration    // Access token lifetime
	refreshTokenLifetime time.Duration    // Refresh token lifetime
	timeFunc             func() time.Time // Injectable for testing
	clockSkew            time.Duration    // Allowed time difference for validation to handle clock drift
}

// jwtCustomClaims defines the structure of JWT claims we use
type jwtCustomClaims struct {
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacJWTService implements JWTService interface
var _ JWTService = (*hmacJWTService)(nil)

// NewJWTService creates a new JWT service using HMAC-SHA signing.
func NewJWTService(cfg config.AuthConfig) (JWTService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacJWTService{
		signingKey:           []byte(cfg.JWTSecret),
		tokenLifetime:        time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		refreshTokenLifetime: time.Duration(cfg.RefreshTokenLifetimeMinutes) * time.Minute,
		timeFunc:             time.Now,
		clockSkew:            2 * time.Minute, // Tolerate minor clock drift between issuer and validator
	}, nil
}

// GenerateToken creates a signed JWT access token with user claims.
func (s *hmacJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.signToken(ctx, userID, TokenTypeAccess, s.tokenLifetime)
}

// GenerateRefreshToken creates a signed JWT refresh token with user claims.
// Refresh tokens have longer lifetime than access tokens and are used to obtain new token pairs.
func (s *hmacJWTService) GenerateRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
) (string, error) {
	return s.signToken(ctx, userID, TokenTypeRefresh, s.refreshTokenLifetime)
}

// ValidateToken validates a JWT access token and returns the claims if valid.
// It verifies the token has type "access" and returns ErrWrongTokenType if not.
func (s *hmacJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return s.parseToken(ctx, tokenString, TokenTypeAccess)
}

// ValidateRefreshToken validates a JWT refresh token and returns the claims if valid.
// It verifies the token has type "refresh" and returns ErrWrongTokenType if not.
// Returns appropriate errors for expiration and invalid signatures.
func (s *hmacJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*Claims, error) {
	return s.parseToken(ctx, tokenString, TokenTypeRefresh)
}

// signToken builds the claim set for the given token type and signs it
// with HMAC-SHA256.
func (s *hmacJWTService) signToken(
	ctx context.Context,
	userID uuid.UUID,
	tokenType string,
	lifetime time.Duration,
) (string, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	claims := jwtCustomClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			ID:        uuid.New().String(), // Unique token ID
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign JWT token",
			"error", err,
			"user_id", userID,
			"token_type", tokenType,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign %s token with HMAC-SHA256: %w", tokenType, err)
	}

	return signedToken, nil
}

// parseToken parses and validates a signed token, enforcing that its
// type claim matches wantType. Validation failures map to the sentinel
// errors for the requested token type.
func (s *hmacJWTService) parseToken(
	ctx context.Context,
	tokenString string,
	wantType string,
) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew), // Allow for clock skew when validating time claims
		jwt.WithTimeFunc(func() time.Time {
			return now // Use our injected time function for validation
		}),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtCustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Validate the signing method is what we expect
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		return nil, s.mapValidationError(log, wantType, err)
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		log.Debug("token validation failed: invalid claims",
			"token_type", wantType)
		return nil, invalidTokenError(wantType)
	}

	if claims.TokenType != wantType {
		log.Debug("token validation failed: wrong token type",
			"expected", wantType,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	log.Debug("token validated successfully",
		"user_id", claims.UserID,
		"token_type", claims.TokenType,
		"token_id", claims.ID,
		"expiry", claims.ExpiresAt.Time)

	return &Claims{
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
		ID:        claims.ID,
	}, nil
}

// mapValidationError translates jwt parsing errors into the package's
// sentinel errors. Access tokens distinguish not-yet-valid from invalid
// so middleware can report clock problems; refresh tokens collapse
// everything except expiry into ErrInvalidRefreshToken.
func (s *hmacJWTService) mapValidationError(log *slog.Logger, wantType string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		log.Debug("token validation failed: token expired",
			"error", err,
			"token_type", wantType)
		if wantType == TokenTypeRefresh {
			return ErrExpiredRefreshToken
		}
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		log.Debug("token validation failed: token not yet valid",
			"error", err,
			"token_type", wantType)
		if wantType == TokenTypeRefresh {
			return ErrInvalidRefreshToken
		}
		return ErrTokenNotYetValid
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid):
		log.Debug("token validation failed: malformed or badly signed token",
			"error", err,
			"token_type", wantType)
	default:
		log.Debug("token validation failed: other validation error",
			"error", err,
			"token_type", wantType,
			"error_type", fmt.Sprintf("%T", err))
	}

	return invalidTokenError(wantType)
}

// invalidTokenError returns the generic invalid-token sentinel for the
// given token type.
func invalidTokenError(tokenType string) error {
	if tokenType == TokenTypeRefresh {
		return ErrInvalidRefreshToken
	}
	return ErrInvalidToken
}

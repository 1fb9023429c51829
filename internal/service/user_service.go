package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/service/auth"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
)

// UserService provides account operations for registration and login.
type UserService interface {
	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser creates a new user with the specified email and password.
	// The plaintext password is hashed before anything is stored.
	CreateUser(ctx context.Context, email, password string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	logger    *slog.Logger
	db        *sql.DB
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) UserService {
	return &UserServiceImpl{
		userStore: userStore,
		db:        db,
		hasher:    hasher,
		logger:    logger.With("component", "user_service"),
	}
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found",
				"user_id", userID)
		} else {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	s.logger.Debug("retrieved user successfully",
		"user_id", userID,
		"email", user.Email)

	return user, nil
}

// GetUserByEmail retrieves a user by their email address
func (s *UserServiceImpl) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found by email",
				"email", email)
		} else {
			s.logger.Error("failed to retrieve user by email",
				"error", err,
				"email", email)
		}
		return nil, fmt.Errorf("failed to retrieve user by email: %w", err)
	}

	s.logger.Debug("retrieved user by email successfully",
		"user_id", user.ID,
		"email", user.Email)

	return user, nil
}

// CreateUser creates a new user with the specified email and password
// Uses a transaction to ensure atomicity of the operation
func (s *UserServiceImpl) CreateUser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		s.logger.Debug("rejected invalid registration",
			"error", err,
			"email", email)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Hash before the store ever sees the user; the plaintext never
	// leaves this method.
	hashed, err := s.hasher.Hash(user.Password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"user_id", user.ID)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	user.HashedPassword = hashed
	user.Password = ""

	// Use a transaction for the user creation
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		// Get a transaction-aware store
		txStore := s.userStore.WithTx(tx)

		// Create the user within the transaction
		return txStore.Create(ctx, user)
	})

	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("attempted to create user with existing email",
				"email", email)
		} else {
			s.logger.Error("failed to save user to database",
				"error", err,
				"email", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created successfully in transaction",
		"user_id", user.ID,
		"email", user.Email)

	return user, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
)

// PostgresUserStore implements the store.UserStore interface
// using a PostgreSQL database as the storage backend.
type PostgresUserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresUserStore creates a new PostgreSQL implementation of the UserStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresUserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure PostgresUserStore implements store.UserStore interface
var _ store.UserStore = (*PostgresUserStore)(nil)

// Create implements store.UserStore.Create
// It saves a new user to the database, handling domain validation.
// The caller must have hashed the password already; plaintext credentials
// are never written.
// Returns store.ErrEmailExists if the email is already taken.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	if user.HashedPassword == "" {
		log.Warn("refusing to create user without hashed password",
			slog.String("user_id", user.ID.String()))
		return domain.ErrEmptyPassword
	}

	query := `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate email during user creation",
				slog.String("user_id", user.ID.String()))
			return MapUniqueViolation(err, store.ErrEmailExists)
		}

		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return fmt.Errorf("failed to create user: %w", MapError(err))
	}

	log.Info("user created successfully",
		slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
// It retrieves a user by their unique ID.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving user by ID", slog.String("user_id", id.String()))

	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found", slog.String("user_id", id.String()))
			return nil, store.ErrUserNotFound
		}

		log.Error("failed to get user by ID",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, fmt.Errorf("failed to get user by ID: %w", MapError(err))
	}

	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail
// It retrieves a user by their email address.
// Returns store.ErrUserNotFound if the user does not exist.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Emails are stored lowercased by the domain constructor.
	email = strings.ToLower(strings.TrimSpace(email))

	log.Debug("retrieving user by email")

	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	user := &domain.User{}
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user not found by email")
			return nil, store.ErrUserNotFound
		}

		log.Error("failed to get user by email",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get user by email: %w", MapError(err))
	}

	return user, nil
}

// Update implements store.UserStore.Update
// It modifies an existing user's email or credentials. The caller must
// provide a complete user including the current or new password hash.
// Returns store.ErrUserNotFound if the user does not exist.
// Returns store.ErrEmailExists if updating to an email that is already taken.
func (s *PostgresUserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during update",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	if user.HashedPassword == "" {
		log.Warn("refusing to update user without hashed password",
			slog.String("user_id", user.ID.String()))
		return domain.ErrEmptyPassword
	}

	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, hashed_password = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		user.Email,
		user.HashedPassword,
		user.UpdatedAt,
		user.ID,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate email during user update",
				slog.String("user_id", user.ID.String()))
			return MapUniqueViolation(err, store.ErrEmailExists)
		}

		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return fmt.Errorf("failed to update user: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Warn("user not found during update",
				slog.String("user_id", user.ID.String()))
		}
		return err
	}

	log.Info("user updated successfully",
		slog.String("user_id", user.ID.String()))
	return nil
}

// WithTx implements store.UserStore.WithTx
// It returns a new UserStore that runs all operations on the provided
// transaction, sharing the component logger of the parent store.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{
		db:     tx,
		logger: s.logger,
	}
}

package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	"github.com/flowiq/flowiq-api/internal/platform/postgres/migrations"
)

// migrationTableName is the table goose uses to track applied migrations.
const migrationTableName = "schema_migrations"

// slogGooseLogger adapts goose's logger interface to slog.
type slogGooseLogger struct{}

// Printf forwards goose's informational messages to slog.Info.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...))
}

// Fatalf forwards goose's error messages to slog.Error. Unlike the
// standard Fatalf behavior this does NOT call os.Exit; the error is
// returned to main, which handles the exit consistently.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...))
}

// configureGoose points goose at the embedded migration files.
func configureGoose() error {
	goose.SetLogger(&slogGooseLogger{})
	goose.SetTableName(migrationTableName)
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// applyMigrations brings the schema up to date at server startup.
func applyMigrations(db *sql.DB, logger *slog.Logger) error {
	if err := configureGoose(); err != nil {
		return err
	}

	logger.Info("applying database migrations")
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("database schema up to date", "version", version)
	return nil
}

// runMigrationCommand executes a single migration command for the
// -migrate flag and returns without starting the server.
func runMigrationCommand(db *sql.DB, command string, logger *slog.Logger) error {
	if err := configureGoose(); err != nil {
		return err
	}

	logger.Info("running migration command", "command", command)

	switch command {
	case "up":
		return goose.Up(db, ".")
	case "down":
		return goose.Down(db, ".")
	case "status":
		return goose.Status(db, ".")
	case "version":
		version, err := goose.GetDBVersion(db)
		if err != nil {
			return err
		}
		logger.Info("current migration version", "version", version)
		return nil
	default:
		return fmt.Errorf("unknown migration command %q (expected up, down, status or version)", command)
	}
}

// Package main implements the entry point for the Flow iQ API server,
// which tracks menstrual cycles and serves predictions, symptom
// forecasts, recommendations and AI-written insights.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	migrateCmd := flag.String(
		"migrate",
		"",
		"run a migration command (up, down, status, version) and exit",
	)
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, applies migrations and starts the server. It
// exists separately from main so every exit path releases resources
// through defers before the process terminates.
func run(migrateCmd string) error {
	// A local .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded environment from .env file")
	}

	cfg, err := loadAppConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database connection", "error", err)
		}
	}()

	// An explicit -migrate flag runs the command and exits without
	// starting the server.
	if migrateCmd != "" {
		return runMigrationCommand(db, migrateCmd, logger)
	}

	if err := applyMigrations(db, logger); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/flowiq/flowiq-api/internal/config"
)

// loadAppConfig loads the application configuration from environment
// variables or the optional config file. Returns the loaded config and
// any loading error.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if cfg.Database.URL != "" {
		slog.Debug("database configuration", "url_present", true)
	}
	if cfg.Auth.JWTSecret != "" {
		slog.Debug("auth configuration", "jwt_secret_present", true)
	}

	return cfg, nil
}

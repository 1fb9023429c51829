package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables use the
// FLOWIQ_ prefix with underscores for nesting (FLOWIQ_SERVER_PORT maps
// to server.port) and take precedence over file values.
// Returns a populated Config struct or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults are registered for every key, including required ones,
	// so AutomaticEnv can resolve values that exist only in the
	// environment. Required keys default to empty and fail validation
	// when nothing supplies them.
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("FLOWIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 15)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)

	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model_name", "gemini-2.0-flash")
	v.SetDefault("ai.prompt_template_path", "")
	v.SetDefault("ai.max_retries", 3)

	v.SetDefault("wearable.base_url", "")
	v.SetDefault("wearable.api_key", "")
	v.SetDefault("wearable.timeout_seconds", 10)
	v.SetDefault("wearable.requests_per_second", 5)
	v.SetDefault("wearable.burst", 5)
	v.SetDefault("wearable.max_retries", 3)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)
	v.SetDefault("task.stuck_task_check_interval_minutes", 5)

	v.SetDefault("cache.prediction_ttl_minutes", 60)

	v.SetDefault("recommend.rules_path", "")
}

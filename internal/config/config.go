package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	AI        AIConfig        `mapstructure:"ai" validate:"required"`
	Wearable  WearableConfig  `mapstructure:"wearable" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
// Token lifetimes are expressed in minutes.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
}

// AIConfig contains settings for the insight narrative generator.
// PromptTemplatePath is optional; when empty the embedded default
// template is used.
type AIConfig struct {
	GeminiAPIKey       string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName          string `mapstructure:"model_name" validate:"required"`
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0"`
}

// WearableConfig contains settings for the wearable provider client used
// to sync wellness samples.
type WearableConfig struct {
	BaseURL           string `mapstructure:"base_url" validate:"required,url"`
	APIKey            string `mapstructure:"api_key" validate:"required"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RequestsPerSecond int    `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int    `mapstructure:"burst" validate:"required,gt=0"`
	MaxRetries        int    `mapstructure:"max_retries" validate:"gte=0"`
}

// TaskConfig contains settings for the background task runner.
type TaskConfig struct {
	WorkerCount                   int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize                     int `mapstructure:"queue_size" validate:"required,gt=0"`
	StuckTaskAgeMinutes           int `mapstructure:"stuck_task_age_minutes" validate:"required,gt=0"`
	StuckTaskCheckIntervalMinutes int `mapstructure:"stuck_task_check_interval_minutes" validate:"required,gt=0"`
}

// CacheConfig contains settings for the prediction cache. A TTL of zero
// disables the cache entirely.
type CacheConfig struct {
	PredictionTTLMinutes int `mapstructure:"prediction_ttl_minutes" validate:"gte=0"`
}

// RecommendConfig contains settings for the recommendation engine.
// RulesPath is optional; when empty the embedded default pack is used.
type RecommendConfig struct {
	RulesPath string `mapstructure:"rules_path"`
}

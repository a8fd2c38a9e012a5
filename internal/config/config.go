package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Provider ProviderConfig `mapstructure:"provider" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// DatabaseConfig contains the job history database settings. An empty URL
// disables history archival entirely.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// ProviderConfig contains the generation provider integration settings.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	APIKey  string `mapstructure:"api_key"  validate:"required"`

	// CallbackURL is handed to the provider so it can push completion
	// events back; polling covers tasks whose callbacks never arrive.
	CallbackURL string `mapstructure:"callback_url" validate:"omitempty,url"`

	// PollInterval is how often the status poller queries outstanding tasks.
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"required"`

	// EstimatedDuration is the assumed wall time of one generation, used
	// to estimate progress for tasks the provider reports no progress for.
	EstimatedDuration time.Duration `mapstructure:"estimated_duration" validate:"required"`
}

// QueueConfig contains the initial scheduling policy of the queue.
type QueueConfig struct {
	AutoRun        bool `mapstructure:"auto_run"`
	MaxConcurrency int  `mapstructure:"max_concurrency" validate:"required,gte=1"`
}

// LLMConfig contains the lyrics generation settings. An empty API key
// disables the lyrics endpoint.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
}

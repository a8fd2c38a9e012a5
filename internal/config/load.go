package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over values from the
// config file. Returns a populated Config struct or an error if loading
// or validation fails.
//
// Environment variables use the TRACKSTUDIO_ prefix with underscores for
// nesting, e.g. TRACKSTUDIO_SERVER_PORT or TRACKSTUDIO_PROVIDER_API_KEY.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("TRACKSTUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults need an explicit binding for AutomaticEnv to
	// surface them through Unmarshal.
	for _, key := range []string{
		"auth.jwt_secret",
		"database.url",
		"provider.api_key",
		"provider.callback_url",
		"llm.gemini_api_key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the defaults for everything that has a sensible
// one. Secrets and provider credentials deliberately have none.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("provider.base_url", "https://api.sunoapi.org")
	v.SetDefault("provider.poll_interval", 5*time.Second)
	v.SetDefault("provider.estimated_duration", 60*time.Second)
	v.SetDefault("queue.auto_run", true)
	v.SetDefault("queue.max_concurrency", 1)
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
}

// Package config loads and validates application configuration.
// Values come from an optional worldwise.yaml in the working directory and
// from environment variables prefixed WORLDWISE_ (env wins). Struct-level
// validation runs after unmarshalling, so a bad value fails fast at startup
// instead of surfacing as a confusing network error later.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the CLI and the dev server.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Client  ClientConfig  `mapstructure:"client"`
	Log     LogConfig     `mapstructure:"log"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

// APIConfig points at the remote city service.
type APIConfig struct {
	// BaseURL is the root of the city service, without a trailing slash.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// GeocodeConfig points at the reverse-geocoding service.
type GeocodeConfig struct {
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

// ClientConfig tunes the outbound HTTP client shared by the city service and
// geocoder clients.
type ClientConfig struct {
	// Timeout bounds each outbound request. The sync layer adds no retries
	// or timeouts of its own beyond this.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// LogConfig controls the slog setup.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// ServeConfig configures the dev city server started by `worldwise serve`.
type ServeConfig struct {
	Port        int      `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// SeedFile is an optional JSON file of cities loaded at startup.
	SeedFile string `mapstructure:"seed_file"`
	// MaxBodyBytes caps incoming request bodies.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes" validate:"required,gt=0"`
}

// AuthConfig optionally carries the demo credentials so the CLI can log in
// without prompting. Empty values leave the session logged out.
type AuthConfig struct {
	Email    string `mapstructure:"email" validate:"omitempty,email"`
	Password string `mapstructure:"password"`
}

// Load reads, unmarshals, and validates the configuration.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("geocode.base_url", "https://api.bigdatacloud.net/data/reverse-geocode-client")
	v.SetDefault("client.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("serve.port", 8080)
	v.SetDefault("serve.cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("serve.seed_file", "")
	v.SetDefault("serve.max_body_bytes", int64(1<<20))
	v.SetDefault("auth.email", "")
	v.SetDefault("auth.password", "")

	v.SetConfigName("worldwise")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("WORLDWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// The config file is optional; only a malformed one is fatal.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read worldwise.yaml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return cfg, nil
}

// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Base URL of the user management service (e.g., https://users.internal)
	UsersEndpoint string `env:"USERS_ENDPOINT,required"`

	// Cache (Redis) backing the credential fallback
	RedisURL    string `env:"REDIS_URL,required"`
	CachePrefix string `env:"CACHE_PREFIX" envDefault:""`

	// Credential fallback. A service credential, when set, is written to the
	// cache at startup. Remembering stores every incoming credential.
	ServiceCredential  string        `env:"SERVICE_CREDENTIAL" envDefault:""`
	RememberCredential bool          `env:"REMEMBER_CREDENTIAL" envDefault:"false"`
	CredentialTTL      time.Duration `env:"CREDENTIAL_TTL" envDefault:"15m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Total timeout for a single user service call
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or the endpoint is not
// an absolute URL.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.UsersEndpoint = strings.TrimRight(cfg.UsersEndpoint, "/")
	u, err := url.Parse(cfg.UsersEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("failed to parse config: USERS_ENDPOINT %q is not an absolute URL", cfg.UsersEndpoint)
	}

	return cfg, nil
}

// Package common provides shared utilities for the advisor service
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the advisor service
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Gateway     GatewayConfig   `toml:"gateway"`
	RateLimit   RateLimitConfig `toml:"rate_limit"`
	Cache       CacheConfig     `toml:"cache"`
	Storage     StorageConfig   `toml:"storage"`
	Agent       AgentConfig     `toml:"agent"`
	Features    FeaturesConfig  `toml:"features"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// GatewayConfig holds request validation configuration.
// AppKey is the constant shared secret checked against X-Portfolio-App-Key.
// AttestationSecret signs/verifies the X-App-Attestation JWT required in
// production mode.
type GatewayConfig struct {
	AppKey             string   `toml:"app_key"`
	AttestationSecret  string   `toml:"attestation_secret"`
	RequireAttestation bool     `toml:"require_attestation"`
	AllowedOrigins     []string `toml:"allowed_origins"`
}

// RateLimitConfig holds free-attempt rate limiting configuration.
type RateLimitConfig struct {
	MaxFreeAttempts int `toml:"max_free_attempts"`
	WindowHours     int `toml:"window_hours"`
}

// Window returns the rolling reset window as a duration.
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowHours) * time.Hour
}

// CacheConfig holds portfolio cache configuration.
type CacheConfig struct {
	TTL string `toml:"ttl"`
}

// GetTTL parses and returns the cache TTL duration
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// StorageConfig holds local and remote storage configuration.
// The local BadgerHold store is always used; the remote SurrealDB store is
// optional and preferred for rate-limit reads when configured.
type StorageConfig struct {
	Path      string `toml:"path"`
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// RemoteEnabled reports whether a remote store address is configured.
func (c *StorageConfig) RemoteEnabled() bool {
	return c.Address != ""
}

// AgentConfig holds remote agent API client configuration.
type AgentConfig struct {
	BaseURL   string `toml:"base_url"`
	AppKey    string `toml:"app_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *AgentConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// FeaturesConfig holds runtime feature flags surfaced via /api/config.
type FeaturesConfig struct {
	MaintenanceMode      bool `toml:"maintenance_mode"`
	NewUserSignupEnabled bool `toml:"new_user_signup_enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Gateway: GatewayConfig{
			AppKey:         "dev-app-key-change-in-production",
			AllowedOrigins: []string{"http://localhost:4200"},
		},
		RateLimit: RateLimitConfig{
			MaxFreeAttempts: 2,
			WindowHours:     24,
		},
		Cache: CacheConfig{
			TTL: "24h",
		},
		Storage: StorageConfig{
			Path:      "data/advisor",
			Namespace: "advisor",
			Database:  "advisor",
		},
		Agent: AgentConfig{
			RateLimit: 5,
			Timeout:   "30s",
		},
		Features: FeaturesConfig{
			NewUserSignupEnabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if config.RateLimit.MaxFreeAttempts <= 0 {
		config.RateLimit.MaxFreeAttempts = 2
	}
	if config.RateLimit.WindowHours <= 0 {
		config.RateLimit.WindowHours = 24
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADVISOR_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ADVISOR_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ADVISOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ADVISOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("ADVISOR_APP_KEY"); v != "" {
		config.Gateway.AppKey = v
	}
	if v := os.Getenv("ADVISOR_ATTESTATION_SECRET"); v != "" {
		config.Gateway.AttestationSecret = v
	}
	if v := os.Getenv("ADVISOR_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		config.Gateway.AllowedOrigins = parts
	}

	if v := os.Getenv("ADVISOR_MAX_FREE_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.RateLimit.MaxFreeAttempts = n
		}
	}
	if v := os.Getenv("ADVISOR_RATE_LIMIT_WINDOW_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.RateLimit.WindowHours = n
		}
	}

	if v := os.Getenv("ADVISOR_DATA_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("ADVISOR_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("ADVISOR_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("ADVISOR_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}

	if v := os.Getenv("ADVISOR_AGENT_URL"); v != "" {
		config.Agent.BaseURL = v
	}
	if v := os.Getenv("ADVISOR_AGENT_KEY"); v != "" {
		config.Agent.AppKey = v
	}

	if v := os.Getenv("ADVISOR_MAINTENANCE_MODE"); v != "" {
		config.Features.MaintenanceMode = v == "true" || v == "1"
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// RequireAttestation reports whether attestation tokens must be validated.
// Explicit config wins; otherwise production mode requires them.
func (c *Config) RequireAttestation() bool {
	return c.Gateway.RequireAttestation || c.IsProduction()
}

// Package config loads server configuration from YAML, .env files and
// SCORESNAP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the complete server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Matching  MatchingConfig  `yaml:"matching"`
	Vision    VisionConfig    `yaml:"vision"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type     string         `yaml:"type"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	UploadTTL    time.Duration `yaml:"upload_ttl"`
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	DSN         string        `yaml:"dsn"`
	Timeout     time.Duration `yaml:"timeout"`
	AutoMigrate bool          `yaml:"auto_migrate"`
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// LoggingConfig controls log level, format and optional file rotation
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MatchingConfig tunes name and session matching
type MatchingConfig struct {
	ExactThreshold       float64       `yaml:"exact_threshold"`
	AliasThreshold       float64       `yaml:"alias_threshold"`
	FuzzyThreshold       float64       `yaml:"fuzzy_threshold"`
	AutoResolveThreshold float64       `yaml:"auto_resolve_threshold"`
	SessionWindow        time.Duration `yaml:"session_window"`
	GPSTolerance         float64       `yaml:"gps_tolerance"`
}

// VisionConfig configures scoreboard extraction. Empty APIKey disables it.
type VisionConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether an extractor should be created
func (c VisionConfig) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// RateLimitConfig limits uploads per client IP
type RateLimitConfig struct {
	UploadsPerMinute float64 `yaml:"uploads_per_minute"`
	Burst            int     `yaml:"burst"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path (skipped when empty or missing), loads
// .env if present, applies SCORESNAP_* overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	if err := LoadDotenvIfPresent(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, "0.0.0.0")
	setDefault(&c.Server.Port, 8080)
	setDefault(&c.Server.ReadTimeout, 15*time.Second)
	setDefault(&c.Server.WriteTimeout, 60*time.Second)
	setDefault(&c.Server.IdleTimeout, 60*time.Second)
	setDefault(&c.Server.ShutdownTimeout, 10*time.Second)

	setDefault(&c.Storage.Type, StorageMemory)
	setDefault(&c.Storage.Redis.URL, "redis://localhost:6379")
	setDefault(&c.Storage.Redis.PoolSize, 10)
	setDefault(&c.Storage.Redis.MinIdleConns, 2)
	setDefault(&c.Storage.Redis.UploadTTL, 30*24*time.Hour)
	setDefault(&c.Storage.Postgres.Timeout, 5*time.Second)

	setDefault(&c.Auth.TokenTTL, 24*time.Hour)

	setDefault(&c.Logging.Level, "info")
	setDefault(&c.Logging.Format, LogFormatText)
	setDefault(&c.Logging.MaxSizeMB, 50)
	setDefault(&c.Logging.MaxBackups, 5)
	setDefault(&c.Logging.MaxAgeDays, 14)

	setDefault(&c.Matching.ExactThreshold, 0.8)
	setDefault(&c.Matching.AliasThreshold, 0.7)
	setDefault(&c.Matching.FuzzyThreshold, 0.6)
	setDefault(&c.Matching.AutoResolveThreshold, 0.8)
	setDefault(&c.Matching.SessionWindow, 3*time.Hour)
	setDefault(&c.Matching.GPSTolerance, 0.001)

	setDefault(&c.Vision.Model, "gemini-2.5-flash")
	setDefault(&c.Vision.Timeout, 60*time.Second)

	setDefault(&c.RateLimit.UploadsPerMinute, 30)
	setDefault(&c.RateLimit.Burst, 5)
}

func setDefault[T comparable](dst *T, value T) {
	var zero T
	if *dst == zero {
		*dst = value
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Storage.Type {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("storage.redis.url is required for redis storage"))
		}
	case StoragePostgres:
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be memory, redis or postgres, got %q", c.Storage.Type))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}

	if c.Logging.Format != LogFormatText && c.Logging.Format != LogFormatJSON {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	thresholds := map[string]float64{
		"exact_threshold":        c.Matching.ExactThreshold,
		"alias_threshold":        c.Matching.AliasThreshold,
		"fuzzy_threshold":        c.Matching.FuzzyThreshold,
		"auto_resolve_threshold": c.Matching.AutoResolveThreshold,
	}
	for name, v := range thresholds {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("matching.%s must be in (0, 1], got %v", name, v))
		}
	}
	if c.Matching.SessionWindow < 0 {
		errs = append(errs, errors.New("matching.session_window must not be negative"))
	}
	if c.Matching.GPSTolerance < 0 {
		errs = append(errs, errors.New("matching.gps_tolerance must not be negative"))
	}

	if c.RateLimit.UploadsPerMinute < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("rate_limit values must not be negative"))
	}

	return errors.Join(errs...)
}

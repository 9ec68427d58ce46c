package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "SCORESNAP_"

// LoadDotenvIfPresent loads each existing dotenv file without overriding
// variables that are already set
func LoadDotenvIfPresent(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat dotenv file failed path=%s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load dotenv file failed path=%s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	envString("SERVER_HOST", &c.Server.Host)
	collect(envInt("SERVER_PORT", &c.Server.Port))

	envString("STORAGE_TYPE", &c.Storage.Type)
	envString("REDIS_URL", &c.Storage.Redis.URL)
	collect(envDuration("REDIS_UPLOAD_TTL", &c.Storage.Redis.UploadTTL))
	envString("POSTGRES_DSN", &c.Storage.Postgres.DSN)
	collect(envBool("POSTGRES_AUTO_MIGRATE", &c.Storage.Postgres.AutoMigrate))

	envString("JWT_SECRET", &c.Auth.JWTSecret)
	collect(envDuration("TOKEN_TTL", &c.Auth.TokenTTL))
	collect(envBool("SECURE_COOKIE", &c.Auth.SecureCookie))

	envString("LOG_LEVEL", &c.Logging.Level)
	envString("LOG_FORMAT", &c.Logging.Format)
	envString("LOG_DIR", &c.Logging.Dir)

	collect(envFloat("EXACT_THRESHOLD", &c.Matching.ExactThreshold))
	collect(envFloat("ALIAS_THRESHOLD", &c.Matching.AliasThreshold))
	collect(envFloat("FUZZY_THRESHOLD", &c.Matching.FuzzyThreshold))
	collect(envFloat("AUTO_RESOLVE_THRESHOLD", &c.Matching.AutoResolveThreshold))
	collect(envDuration("SESSION_WINDOW", &c.Matching.SessionWindow))

	envString("GEMINI_API_KEY", &c.Vision.APIKey)
	envString("VISION_MODEL", &c.Vision.Model)

	collect(envFloat("UPLOADS_PER_MINUTE", &c.RateLimit.UploadsPerMinute))
	collect(envInt("UPLOAD_BURST", &c.RateLimit.Burst))

	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = f
	return nil
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = b
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
	}
	*dst = d
	return nil
}

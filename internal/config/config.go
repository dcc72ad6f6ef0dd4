// Package config loads authd's process configuration from environment
// variables. Missing required variables fail process startup rather
// than silently defaulting.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config is authd's full process configuration.
type Config struct {
	JWTSecret            string
	InternalClientID     string
	InternalClientSecret string
	InternalAPIID        string
	InternalWorkspaceID  string
	DatabaseURL          string
	RedisURL             string
	HTTPAddr             string
	Debug                bool
	TokenTTL             time.Duration
}

// Load reads Config from the environment, returning an error naming
// every missing required variable at once rather than failing on the
// first one.
func Load() (*Config, error) {
	var missing []string
	required := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := &Config{
		JWTSecret:            required("JWT_SECRET"),
		InternalClientID:     required("INTERNAL_CLIENT_ID"),
		InternalClientSecret: required("INTERNAL_CLIENT_SECRET"),
		InternalAPIID:        required("INTERNAL_API_ID"),
		InternalWorkspaceID:  required("INTERNAL_WORKSPACE_ID"),
		DatabaseURL:          required("DATABASE_URL"),
		RedisURL:             required("REDIS_URL"),
		HTTPAddr:             envDefault("HTTP_ADDR", ":8080"),
		Debug:                envDefault("DEBUG", "false") == "true",
	}

	ttl, err := time.ParseDuration(envDefault("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("config: invalid TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: required environment variables not set: %v", missing)
	}

	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

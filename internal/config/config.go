// Package config defines runtime configuration for the relay service,
// loaded from the environment with sane defaults and validation.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// GitHubConfig holds the OAuth application settings for the GitHub login flow.
// The flow is disabled when ClientID is empty.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port           string
	AllowedOrigins []string
	MaxMessageSize int64
	RateLimit      RateLimitConfig

	JWTSecret string
	JWTTTL    time.Duration

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string

	GitHub GitHubConfig
}

// New creates a Config populated with default values for all settings.
func New() *Config {
	return &Config{
		Port: ":8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize: 512,
		RateLimit: RateLimitConfig{
			Burst:          5,
			RefillInterval: time.Second,
		},
		JWTTTL:      time.Hour,
		DatabaseDSN: "relay.db",
	}
}

// NewFromEnv creates a Config from environment variables, falling back to
// defaults for anything unset.
func NewFromEnv() *Config {
	cfg := New()

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		cfg.RateLimit.Burst = parseIntValue(burst, cfg.RateLimit.Burst)
	}

	if interval := os.Getenv("RATE_LIMIT_REFILL_INTERVAL"); interval != "" {
		cfg.RateLimit.RefillInterval = parseSeconds(interval, cfg.RateLimit.RefillInterval)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")

	if ttl := os.Getenv("JWT_TTL_SECONDS"); ttl != "" {
		cfg.JWTTTL = parseSeconds(ttl, cfg.JWTTTL)
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.DatabaseDSN = dsn
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.GitHub = GitHubConfig{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GITHUB_REDIRECT_URL"),
	}

	return cfg
}

// Sanitize replaces zero or negative values with defaults and reports
// configuration that cannot be defaulted.
func (c *Config) Sanitize() error {
	if c.Port == "" {
		c.Port = ":8080"
	}

	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 512
	}

	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 5
	}

	if c.RateLimit.RefillInterval <= 0 {
		c.RateLimit.RefillInterval = time.Second
	}

	if c.JWTTTL <= 0 {
		c.JWTTTL = time.Hour
	}

	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}

	if c.DatabaseDSN == "" {
		return errors.New("config: DATABASE_DSN is required")
	}

	return nil
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

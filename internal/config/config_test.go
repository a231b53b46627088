package config

import (
	"testing"
	"time"
)

// TestDefaults tests that New returns the documented defaults.
func TestDefaults(t *testing.T) {
	cfg := New()

	if cfg.Port != ":8080" {
		t.Errorf("Expected default port :8080, got %q", cfg.Port)
	}
	if cfg.MaxMessageSize != 512 {
		t.Errorf("Expected default max message size 512, got %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 5 || cfg.RateLimit.RefillInterval != time.Second {
		t.Errorf("Unexpected default rate limit: %+v", cfg.RateLimit)
	}
	if cfg.JWTTTL != time.Hour {
		t.Errorf("Expected default JWT TTL of 1h, got %s", cfg.JWTTTL)
	}
}

// TestNewFromEnv tests that environment variables override defaults and
// that malformed values fall back.
func TestNewFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_TTL_SECONDS", "120")
	t.Setenv("DATABASE_DSN", "test.db")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("GITHUB_CLIENT_ID", "client-id")

	cfg := NewFromEnv()

	if cfg.Port != ":9000" {
		t.Errorf("Expected port :9000, got %q", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("Unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.MaxMessageSize != 1024 {
		t.Errorf("Expected max message size 1024, got %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 10 || cfg.RateLimit.RefillInterval != 2*time.Second {
		t.Errorf("Unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("Expected JWT secret from env, got %q", cfg.JWTSecret)
	}
	if cfg.JWTTTL != 2*time.Minute {
		t.Errorf("Expected JWT TTL of 2m, got %s", cfg.JWTTTL)
	}
	if cfg.DatabaseDSN != "test.db" {
		t.Errorf("Expected DSN test.db, got %q", cfg.DatabaseDSN)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.GitHub.ClientID != "client-id" {
		t.Errorf("Expected GitHub client id, got %q", cfg.GitHub.ClientID)
	}
}

// TestNewFromEnvIgnoresMalformedNumbers tests fallback for unparseable
// numeric values.
func TestNewFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("RATE_LIMIT_BURST", "-3")

	cfg := NewFromEnv()

	if cfg.MaxMessageSize != 512 {
		t.Errorf("Expected fallback max message size 512, got %d", cfg.MaxMessageSize)
	}
	if cfg.RateLimit.Burst != 5 {
		t.Errorf("Expected fallback burst 5, got %d", cfg.RateLimit.Burst)
	}
}

// TestSanitize tests required-field validation and zero-value replacement.
func TestSanitize(t *testing.T) {
	cfg := &Config{JWTSecret: "secret", DatabaseDSN: "relay.db"}
	if err := cfg.Sanitize(); err != nil {
		t.Fatalf("Sanitize() failed: %v", err)
	}
	if cfg.Port != ":8080" || cfg.MaxMessageSize != 512 || cfg.RateLimit.Burst != 5 {
		t.Errorf("Expected defaults to be applied, got %+v", cfg)
	}

	missingSecret := &Config{DatabaseDSN: "relay.db"}
	if err := missingSecret.Sanitize(); err == nil {
		t.Error("Expected error for missing JWT secret")
	}

	missingDSN := &Config{JWTSecret: "secret"}
	if err := missingDSN.Sanitize(); err == nil {
		t.Error("Expected error for missing database DSN")
	}
}

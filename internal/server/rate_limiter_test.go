package server

import (
	"testing"
	"time"
)

// TestRateLimiterBurst tests that the limiter admits the configured burst
// and then refuses until tokens refill.
func TestRateLimiterBurst(t *testing.T) {
	limiter := newRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !limiter.allow() {
			t.Fatalf("Expected call %d within burst to be allowed", i+1)
		}
	}
	if limiter.allow() {
		t.Error("Expected call beyond burst to be refused")
	}
}

// TestRateLimiterRefill tests that tokens come back after the refill
// interval elapses.
func TestRateLimiterRefill(t *testing.T) {
	limiter := newRateLimiter(1, 10*time.Millisecond)

	if !limiter.allow() {
		t.Fatal("Expected first call to be allowed")
	}
	if limiter.allow() {
		t.Error("Expected immediate second call to be refused")
	}

	time.Sleep(20 * time.Millisecond)
	if !limiter.allow() {
		t.Error("Expected call after refill interval to be allowed")
	}
}

// TestRateLimiterDefaults tests that non-positive parameters fall back to
// safe values.
func TestRateLimiterDefaults(t *testing.T) {
	limiter := newRateLimiter(0, 0)

	if !limiter.allow() {
		t.Error("Expected a fresh limiter with defaulted capacity to allow one call")
	}
}

package token

import (
	"errors"
	"testing"
	"time"
)

// TestIssueAndVerify tests that an issued token verifies and carries the
// subject it was issued for.
func TestIssueAndVerify(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	credential, err := manager.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	claims, err := manager.Verify(credential)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("Expected subject %q, got %q", "user-123", claims.Subject)
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Error("Expected expiry in the future")
	}
}

// TestVerifyRejectsWrongSecret tests that a token signed with a different
// secret fails with ErrInvalidToken.
func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-one", time.Hour)
	verifier := NewManager("secret-two", time.Hour)

	credential, err := issuer.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if _, err := verifier.Verify(credential); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

// TestVerifyRejectsExpired tests that an expired token fails with
// ErrExpiredToken rather than the generic invalid error.
func TestVerifyRejectsExpired(t *testing.T) {
	manager := NewManager("test-secret", -time.Minute)

	credential, err := manager.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if _, err := manager.Verify(credential); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}

// TestVerifyRejectsGarbage tests that a non-token string fails with
// ErrInvalidToken.
func TestVerifyRejectsGarbage(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)

	for _, credential := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := manager.Verify(credential); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", credential, err)
		}
	}
}

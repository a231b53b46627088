package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/relaychat/relay/internal/token"
	"github.com/relaychat/relay/internal/user"
)

// newTestDirectory opens a uniquely named shared-cache in-memory database so
// every pooled connection sees the same tables.
func newTestDirectory(t *testing.T) *user.Directory {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := user.Open(dsn)
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	return user.NewDirectory(db)
}

func createTestUser(t *testing.T, directory *user.Directory, username string) *user.User {
	t.Helper()
	u := &user.User{Username: username}
	if err := directory.Create(u); err != nil {
		t.Fatalf("Failed to create user %q: %v", username, err)
	}
	return u
}

// TestVerifyResolvesIdentity tests that a valid credential for an existing
// user resolves to that user's identity.
func TestVerifyResolvesIdentity(t *testing.T) {
	directory := newTestDirectory(t)
	alice := createTestUser(t, directory, "alice")

	tokens := token.NewManager("test-secret", time.Hour)
	verifier := NewVerifier(tokens, directory)

	credential, err := tokens.Issue(alice.ID)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	identity, err := verifier.Verify(credential)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if identity.UserID != alice.ID {
		t.Errorf("Expected user id %q, got %q", alice.ID, identity.UserID)
	}
	if identity.DisplayName != "alice" {
		t.Errorf("Expected display name %q, got %q", "alice", identity.DisplayName)
	}
}

// TestVerifyRejectsBadSignature tests that a credential signed with a
// different secret maps to ErrInvalidSignature.
func TestVerifyRejectsBadSignature(t *testing.T) {
	directory := newTestDirectory(t)
	alice := createTestUser(t, directory, "alice")

	other := token.NewManager("other-secret", time.Hour)
	credential, err := other.Issue(alice.ID)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	verifier := NewVerifier(token.NewManager("test-secret", time.Hour), directory)
	if _, err := verifier.Verify(credential); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Expected ErrInvalidSignature, got %v", err)
	}
}

// TestVerifyRejectsExpired tests that an expired credential maps to
// ErrExpired.
func TestVerifyRejectsExpired(t *testing.T) {
	directory := newTestDirectory(t)
	alice := createTestUser(t, directory, "alice")

	expired := token.NewManager("test-secret", -time.Minute)
	credential, err := expired.Issue(alice.ID)
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	verifier := NewVerifier(token.NewManager("test-secret", time.Hour), directory)
	if _, err := verifier.Verify(credential); !errors.Is(err, ErrExpired) {
		t.Errorf("Expected ErrExpired, got %v", err)
	}
}

// TestVerifyRejectsUnknownSubject tests that a well-signed credential whose
// subject has no user record maps to ErrUnknownSubject.
func TestVerifyRejectsUnknownSubject(t *testing.T) {
	directory := newTestDirectory(t)

	tokens := token.NewManager("test-secret", time.Hour)
	credential, err := tokens.Issue(uuid.New().String())
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	verifier := NewVerifier(tokens, directory)
	if _, err := verifier.Verify(credential); !errors.Is(err, ErrUnknownSubject) {
		t.Errorf("Expected ErrUnknownSubject, got %v", err)
	}
}

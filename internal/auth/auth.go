// Package auth admits or rejects connections. It verifies credentials,
// resolves them to user identities, and implements the login flows that
// issue credentials in the first place.
package auth

import "errors"

var (
	// ErrNoCredential is returned when a request carries no credential at all.
	ErrNoCredential = errors.New("no credential supplied")
	// ErrInvalidSignature is returned when the credential is malformed or its
	// signature does not verify against the configured secret.
	ErrInvalidSignature = errors.New("credential signature invalid")
	// ErrExpired is returned when the credential has expired.
	ErrExpired = errors.New("credential expired")
	// ErrUnknownSubject is returned when the credential's subject does not
	// resolve to an existing user.
	ErrUnknownSubject = errors.New("credential subject unknown")
)

// Identity is the resolved identity of an admitted connection. It is fixed
// for the lifetime of the connection.
type Identity struct {
	UserID      string
	DisplayName string
}

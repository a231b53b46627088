package auth

import (
	"errors"

	"github.com/relaychat/relay/internal/token"
	"github.com/relaychat/relay/internal/user"
)

// Verifier checks a credential and resolves its subject through the user
// directory. It has no state of its own and is safe for concurrent use.
type Verifier struct {
	tokens *token.Manager
	users  *user.Directory
}

// NewVerifier creates a Verifier over the given token manager and directory.
func NewVerifier(tokens *token.Manager, users *user.Directory) *Verifier {
	return &Verifier{tokens: tokens, users: users}
}

// Verify validates the credential and returns the identity it resolves to.
// Failures are one of ErrInvalidSignature, ErrExpired, or ErrUnknownSubject.
func (v *Verifier) Verify(credential string) (*Identity, error) {
	claims, err := v.tokens.Verify(credential)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidSignature
	}

	u, err := v.users.Lookup(claims.Subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}

	return &Identity{UserID: u.ID, DisplayName: u.Username}, nil
}

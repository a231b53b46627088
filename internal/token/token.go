// Package token issues and verifies the signed, time-bounded credentials
// that authenticate users to the relay service.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the payload carried by an issued credential. The subject is the
// internal user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager signs and verifies credentials with a single process-wide HMAC
// secret. It is stateless and safe for concurrent use.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewManager creates a Manager that issues tokens valid for ttl.
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "relay",
	}
}

// Issue creates a signed credential for the given subject.
func (m *Manager) Issue(subject string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Verify checks the signature and expiry of a credential and returns its
// claims. Expired tokens map to ErrExpiredToken; every other failure maps to
// ErrInvalidToken.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

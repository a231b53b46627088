package auth

import (
	"context"
	"log"
	"net/http"
	"strings"
)

// unexported, collision-proof context key
type identityContextKeyType struct{}

var identityKey = identityContextKeyType{}

// IdentityFromContext extracts the admitted identity from a request context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok
}

// Gate authenticates incoming connection attempts before any application
// logic runs. It rejects with 401 when no credential is present and 403 when
// a credential was supplied but failed verification; which check failed is
// logged, never revealed to the client.
type Gate struct {
	verifier *Verifier
}

// NewGate creates a Gate backed by the given verifier.
func NewGate(verifier *Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Require wraps next so it only runs for authenticated requests, with the
// resolved identity attached to the request context.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := extractCredential(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		identity, err := g.verifier.Verify(credential)
		if err != nil {
			log.Printf("Rejected connection from %s: %v", r.RemoteAddr, err)
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractCredential prefers the Authorization header and falls back to the
// token query parameter for clients that cannot set headers on the upgrade
// request.
func extractCredential(r *http.Request) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], true
		}
		return "", false
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, true
	}

	return "", false
}

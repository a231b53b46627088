// Package server wires HTTP handlers into a ServeMux for the relay
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/relaychat/relay/internal/auth"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes. github may be nil when the OAuth flow is not configured.
func SetupRoutes(chat *ChatHandler, gate *auth.Gate, accounts *auth.Accounts, github *auth.GitHubLogin) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", HealthHandler)
	mux.HandleFunc("/chat", ChatPageHandler)
	mux.Handle("/ws", gate.Require(chat))

	mux.HandleFunc("POST /auth/register", accounts.RegisterHandler)
	mux.HandleFunc("POST /auth/login", accounts.LoginHandler)
	mux.Handle("GET /me", gate.Require(http.HandlerFunc(accounts.MeHandler)))

	if github != nil {
		mux.HandleFunc("GET /auth/github/login", github.LoginHandler)
		mux.HandleFunc("GET /auth/github/callback", github.CallbackHandler)
	}

	return mux
}

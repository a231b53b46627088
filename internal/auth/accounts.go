package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/relaychat/relay/internal/token"
	"github.com/relaychat/relay/internal/user"
)

// Accounts serves the password-account endpoints: registration, login, and
// the authenticated profile view.
type Accounts struct {
	users  *user.Directory
	tokens *token.Manager
}

// NewAccounts creates the account handlers.
func NewAccounts(users *user.Directory, tokens *token.Manager) *Accounts {
	return &Accounts{users: users, tokens: tokens}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// RegisterHandler creates a password account and returns a credential for it.
func (a *Accounts) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for %q: %v", req.Username, err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	u := &user.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := a.users.Create(u); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		log.Printf("Error creating user %q: %v", req.Username, err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	a.respondWithCredential(w, u)
}

// LoginHandler verifies a password and returns a fresh credential.
func (a *Accounts) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	u, err := a.users.FindByUsername(req.Username)
	if err != nil || u.PasswordHash == "" || !user.CheckPassword(req.Password, u.PasswordHash) {
		// Same response for unknown user and wrong password.
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	a.respondWithCredential(w, u)
}

// MeHandler returns the authenticated user's profile. It must be mounted
// behind Gate.Require.
func (a *Accounts) MeHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := a.users.Lookup(identity.UserID)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, u.Profile())
}

func (a *Accounts) respondWithCredential(w http.ResponseWriter, u *user.User) {
	credential, err := a.tokens.Issue(u.ID)
	if err != nil {
		log.Printf("Error issuing credential for user %s: %v", u.ID, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": credential,
		"user":  u.Profile(),
	})
}

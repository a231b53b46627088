package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/relaychat/relay/internal/config"
	"github.com/relaychat/relay/internal/token"
	"github.com/relaychat/relay/internal/user"
)

const githubUserURL = "https://api.github.com/user"

// GitHubLogin implements the OAuth login flow against GitHub: it redirects
// the browser to the authorize URL, exchanges the callback code for an access
// token, resolves the GitHub profile to a local user, and issues an app
// credential.
type GitHubLogin struct {
	oauth   *oauth2.Config
	states  StateStore
	users   *user.Directory
	tokens  *token.Manager
	userURL string
}

// NewGitHubLogin creates the login flow from the OAuth application settings.
func NewGitHubLogin(cfg config.GitHubConfig, states StateStore, users *user.Directory, tokens *token.Manager) *GitHubLogin {
	return &GitHubLogin{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     githuboauth.Endpoint,
		},
		states:  states,
		users:   users,
		tokens:  tokens,
		userURL: githubUserURL,
	}
}

// LoginHandler creates an ephemeral state and redirects to GitHub.
func (g *GitHubLogin) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := randomState()
	if err := g.states.Create(r.Context(), state); err != nil {
		log.Printf("Error storing OAuth state: %v", err)
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, g.oauth.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler consumes the state, exchanges the code, upserts the user,
// and responds with an issued credential and the user profile.
func (g *GitHubLogin) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	ok, err := g.states.Consume(r.Context(), state)
	if err != nil {
		log.Printf("Error consuming OAuth state: %v", err)
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "invalid or expired state", http.StatusBadRequest)
		return
	}

	oauthToken, err := g.oauth.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("GitHub token exchange failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "token_exchange_failed"})
		return
	}

	profile, err := g.fetchProfile(r, oauthToken)
	if err != nil {
		log.Printf("GitHub profile fetch failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "profile_fetch_failed"})
		return
	}

	username := profile.Login
	if username == "" {
		username = fmt.Sprintf("gh_%d", profile.ID)
	}

	u, err := g.users.UpsertGithub(profile.ID, username, profile.Email, profile.AvatarURL)
	if err != nil {
		log.Printf("Error upserting GitHub user %d: %v", profile.ID, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	credential, err := g.tokens.Issue(u.ID)
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

type githubProfile struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (g *GitHubLogin) fetchProfile(r *http.Request, oauthToken *oauth2.Token) (*githubProfile, error) {
	client := g.oauth.Client(r.Context(), oauthToken)
	resp, err := client.Get(g.userURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github profile request returned %d", resp.StatusCode)
	}

	var profile githubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, fmt.Errorf("github profile missing id")
	}

	return &profile, nil
}

func randomState() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}

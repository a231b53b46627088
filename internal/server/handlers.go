// Package server exposes the WebSocket upgrade handler plus the health
// check and the built-in chat page.
package server

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaychat/relay/internal/auth"
	"github.com/relaychat/relay/internal/config"
)

// ChatHandler upgrades admitted requests to WebSocket sessions. It must be
// mounted behind the connection gate: by the time ServeHTTP runs, the
// request context carries a resolved identity. It also tracks live sessions
// so shutdown can drain them.
type ChatHandler struct {
	registry *Registry
	cfg      *config.Config
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

// NewChatHandler creates the upgrade handler for the given registry.
func NewChatHandler(registry *Registry, cfg *config.Config) *ChatHandler {
	policy := newOriginPolicy(cfg.AllowedOrigins)

	return &ChatHandler{
		registry: registry,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
		sessions: make(map[*Session]struct{}),
	}
}

// ServeHTTP handles the WebSocket upgrade and runs the session's pumps.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// The gate did not run; refuse rather than serve an anonymous session.
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	session := NewSession(conn, h.registry, *identity, h.cfg, h.forget)
	h.track(session)
	log.Printf("Session started for %s from %s. Active sessions: %d", identity.DisplayName, r.RemoteAddr, h.count())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		session.Run()
	}()
}

func (h *ChatHandler) track(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *ChatHandler) forget(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s)
	remaining := len(h.sessions)
	h.mu.Unlock()
	log.Printf("Session ended for %s. Active sessions: %d", s.identity.DisplayName, remaining)
}

func (h *ChatHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every live session and waits for their goroutines to
// finish, or until the timeout is reached.
func (h *ChatHandler) Shutdown(timeout time.Duration) error {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	log.Printf("Shutting down %d active sessions...", len(sessions))
	for _, s := range sessions {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Session shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Session shutdown timeout reached, some goroutines may still be running")
		return fmt.Errorf("session shutdown timed out after %s", timeout)
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Relay chat server is running!")
}

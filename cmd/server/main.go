package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relaychat/relay/internal/auth"
	"github.com/relaychat/relay/internal/config"
	"github.com/relaychat/relay/internal/server"
	"github.com/relaychat/relay/internal/token"
	"github.com/relaychat/relay/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting Relay Chat Server...")

	cfg := config.NewFromEnv()
	if err := cfg.Sanitize(); err != nil {
		log.Fatal(err)
	}

	db, err := user.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to open user database: %v", err)
	}
	directory := user.NewDirectory(db)

	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	verifier := auth.NewVerifier(tokens, directory)
	gate := auth.NewGate(verifier)
	accounts := auth.NewAccounts(directory, tokens)

	var states auth.StateStore = auth.NewMemoryStateStore()
	if cfg.RedisAddr != "" {
		states = auth.NewRedisStateStore(redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}))
		log.Printf("Using Redis-backed OAuth state store at %s", cfg.RedisAddr)
	}

	var github *auth.GitHubLogin
	if cfg.GitHub.ClientID != "" {
		github = auth.NewGitHubLogin(cfg.GitHub, states, directory, tokens)
		log.Println("GitHub login enabled")
	}

	registry := server.NewRegistry()
	chat := server.NewChatHandler(registry, cfg)

	mux := server.SetupRoutes(chat, gate, accounts, github)
	httpServer := server.CreateServer(cfg.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received signal %s, shutting down...", sig)
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	if err := chat.Shutdown(shutdownTimeout); err != nil {
		log.Printf("Session shutdown error: %v", err)
	}
}

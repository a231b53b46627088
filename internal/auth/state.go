package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// stateTTL bounds how long a login attempt may sit between redirect and
// callback.
const stateTTL = 5 * time.Minute

// StateStore persists OAuth state values between the login redirect and the
// provider callback. Consume is one-shot: a state can be redeemed once.
type StateStore interface {
	Create(ctx context.Context, state string) error
	Consume(ctx context.Context, state string) (bool, error)
}

// MemoryStateStore keeps states in process memory. Suitable for a single
// server process.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]time.Time)}
}

func (s *MemoryStateStore) Create(_ context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Opportunistically drop expired entries so abandoned logins don't pile up.
	now := time.Now()
	for k, expires := range s.states {
		if now.After(expires) {
			delete(s.states, k)
		}
	}

	s.states[state] = now.Add(stateTTL)
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)

	return time.Now().Before(expires), nil
}

// RedisStateStore keeps states in Redis with a TTL, so the callback may land
// on any server process.
type RedisStateStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStateStore creates a Redis-backed state store.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client, prefix: "oauth_state:"}
}

func (s *RedisStateStore) Create(ctx context.Context, state string) error {
	return s.client.Set(ctx, s.prefix+state, "1", stateTTL).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.client.Del(ctx, s.prefix+state).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StateManager remembers where a session was last, so a restart can reopen
// the same view.
type StateManager interface {
	GetLastFragment(ctx context.Context, session string) (string, error)
	SetLastFragment(ctx context.Context, session, fragment string) error
}

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "scriptures:session:fragment:",
	}
}

func (s *redisStateManager) GetLastFragment(ctx context.Context, session string) (string, error) {
	key := s.keyPrefix + session
	val, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // nothing saved yet
		}
		return "", fmt.Errorf("failed to get last fragment for session %s: %w", session, err)
	}
	return val, nil
}

func (s *redisStateManager) SetLastFragment(ctx context.Context, session, fragment string) error {
	key := s.keyPrefix + session
	err := s.redisClient.Set(ctx, key, fragment, 0).Err() // No expiration
	if err != nil {
		return fmt.Errorf("failed to set last fragment for session %s: %w", session, err)
	}
	return nil
}

// memoryStateManager is used when Redis is disabled.
type memoryStateManager struct {
	mu        sync.Mutex
	fragments map[string]string
}

func NewMemoryStateManager() StateManager {
	return &memoryStateManager{fragments: make(map[string]string)}
}

func (s *memoryStateManager) GetLastFragment(ctx context.Context, session string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fragments[session], nil
}

func (s *memoryStateManager) SetLastFragment(ctx context.Context, session, fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragments[session] = fragment
	return nil
}

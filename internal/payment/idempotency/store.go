// Package idempotency guards the process endpoint against duplicate
// submissions. The store is an explicit dependency, never a hidden singleton:
// Redis in production, in-memory in tests.
package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"

	// IN_PROGRESS expires quickly so a crashed request cannot wedge a key
	inProgressExpiry = 30 * time.Second
	completedExpiry  = 24 * time.Hour
)

// Store tracks idempotency keys across request attempts
type Store interface {
	// Begin marks a key in progress. It reports duplicate=true when the key
	// is already in progress or completed.
	Begin(ctx context.Context, key string) (duplicate bool, err error)
	// Complete marks a key completed, retained for the completed expiry
	Complete(ctx context.Context, key string) error
	// Clear removes an in-progress mark after a failed attempt so the caller
	// may retry
	Clear(ctx context.Context, key string) error
}

// RedisStore backs the store with Redis SETNX
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func keyFor(key string) string {
	return "payment:idem:" + key
}

func (s *RedisStore) Begin(ctx context.Context, key string) (bool, error) {
	// SETNX is atomic, so concurrent duplicates race safely
	set, err := s.client.SetNX(ctx, keyFor(key), statusInProgress, inProgressExpiry).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX error: %w", err)
	}
	return !set, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string) error {
	return s.client.Set(ctx, keyFor(key), statusCompleted, completedExpiry).Err()
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyFor(key)).Err()
}

// MemoryStore is the in-memory backend for tests and single-node runs
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]string)}
}

func (s *MemoryStore) Begin(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return true, nil
	}
	s.keys[key] = statusInProgress
	return false, nil
}

func (s *MemoryStore) Complete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = statusCompleted
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

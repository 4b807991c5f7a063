package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupStore suppresses duplicate task submissions. Claiming a name
// succeeds at most once per TTL window; finished tasks release their
// claim so the name can run again.
type DedupStore interface {
	Claim(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// RedisDedupStore implements DedupStore on Redis SETNX, suitable for
// deployments with several instances sharing the queue.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore creates a Redis-backed dedup store
func NewRedisDedupStore(client *redis.Client) *RedisDedupStore {
	return &RedisDedupStore{
		client:    client,
		keyPrefix: "task:dedup:",
	}
}

// Claim atomically claims the task name for the TTL window
func (s *RedisDedupStore) Claim(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.keyPrefix+name, "1", ttl).Result()
}

// Release frees the task name before its TTL expires
func (s *RedisDedupStore) Release(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.keyPrefix+name).Err()
}

type claimEntry struct {
	expiresAt time.Time
}

// InMemoryDedupStore implements DedupStore with an in-memory map,
// suitable for single-instance deployments and testing.
type InMemoryDedupStore struct {
	mu      sync.Mutex
	entries map[string]claimEntry
}

// NewInMemoryDedupStore creates an in-memory dedup store
func NewInMemoryDedupStore() *InMemoryDedupStore {
	return &InMemoryDedupStore{
		entries: make(map[string]claimEntry),
	}
}

// Claim claims the task name for the TTL window
func (s *InMemoryDedupStore) Claim(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, exists := s.entries[name]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}
	s.entries[name] = claimEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// Release frees the task name
func (s *InMemoryDedupStore) Release(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, name)
	return nil
}

var (
	_ DedupStore = (*RedisDedupStore)(nil)
	_ DedupStore = (*InMemoryDedupStore)(nil)
)

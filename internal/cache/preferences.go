package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// PreferenceStore is a small string key/value store for user preferences
type PreferenceStore interface {
	// GetString returns the stored value and whether one was present
	GetString(ctx context.Context, key string) (string, bool, error)
	PutString(ctx context.Context, key, value string) error
}

// RedisPreferenceStore keeps preferences under "<prefix>:prefs:<key>"
type RedisPreferenceStore struct {
	client *redis.Client
	prefix string
}

// NewRedisPreferenceStore creates a preference store using keys under prefix
func NewRedisPreferenceStore(client *redis.Client, prefix string) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client, prefix: prefix}
}

func (s *RedisPreferenceStore) key(name string) string {
	return s.prefix + ":prefs:" + name
}

func (s *RedisPreferenceStore) GetString(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisPreferenceStore) PutString(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// MemoryPreferenceStore keeps preferences in process memory
type MemoryPreferenceStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryPreferenceStore creates an empty in-memory store
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{values: make(map[string]string)}
}

func (s *MemoryPreferenceStore) GetString(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *MemoryPreferenceStore) PutString(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

var (
	_ PreferenceStore = (*RedisPreferenceStore)(nil)
	_ PreferenceStore = (*MemoryPreferenceStore)(nil)
)

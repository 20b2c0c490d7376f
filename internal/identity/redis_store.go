package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPrincipalStore persists the session in Redis and announces changes
// over pub/sub so every process sharing the prefix sees the same session.
type RedisPrincipalStore struct {
	client *redis.Client
	prefix string
}

// NewRedisPrincipalStore creates a store using keys under prefix
func NewRedisPrincipalStore(client *redis.Client, prefix string) *RedisPrincipalStore {
	return &RedisPrincipalStore{client: client, prefix: prefix}
}

func (s *RedisPrincipalStore) currentKey() string {
	return s.prefix + ":auth:current"
}

func (s *RedisPrincipalStore) seenKey(uid string) string {
	return s.prefix + ":auth:seen:" + uid
}

func (s *RedisPrincipalStore) changesChannel() string {
	return s.prefix + ":auth:changes"
}

// Load returns the persisted principal, or nil when none is stored
func (s *RedisPrincipalStore) Load(ctx context.Context) (*Principal, error) {
	raw, err := s.client.Get(ctx, s.currentKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var principal Principal
	if err := json.Unmarshal(raw, &principal); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if principal.UID == "" {
		return nil, nil
	}
	return &principal, nil
}

// Save stores principal as the current session
func (s *RedisPrincipalStore) Save(ctx context.Context, principal *Principal) error {
	raw, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.currentKey(), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the current session
func (s *RedisPrincipalStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.currentKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// MarkSeen records uid with SETNX; the first caller for a uid gets true
func (s *RedisPrincipalStore) MarkSeen(ctx context.Context, uid string) (bool, error) {
	created, err := s.client.SetNX(ctx, s.seenKey(uid), 1, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark account seen: %w", err)
	}
	return created, nil
}

// PublishChange announces a session change made by origin
func (s *RedisPrincipalStore) PublishChange(ctx context.Context, origin string) error {
	if err := s.client.Publish(ctx, s.changesChannel(), origin).Err(); err != nil {
		return fmt.Errorf("failed to publish session change: %w", err)
	}
	return nil
}

// SubscribeChanges blocks delivering change origins to fn until ctx is done
func (s *RedisPrincipalStore) SubscribeChanges(ctx context.Context, fn func(origin string)) error {
	pubsub := s.client.Subscribe(ctx, s.changesChannel())
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before consuming
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to session changes: %w", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			fn(msg.Payload)
		}
	}
}

var (
	_ PrincipalStore = (*RedisPrincipalStore)(nil)
	_ ChangeNotifier = (*RedisPrincipalStore)(nil)
)

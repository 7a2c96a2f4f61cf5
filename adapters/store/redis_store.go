package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duetchat/duet/core"
	"github.com/duetchat/duet/ports"
)

// RedisStore is a Redis implementation of the Store interface.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store. Keys are namespaced with prefix.
func NewRedisStore(client *redis.Client, prefix string) ports.Store {
	if prefix == "" {
		prefix = "duet:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Set writes a key with a TTL, overwriting any existing entry.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", core.ErrStoreUnavailable, key, err)
	}
	return nil
}

// Get returns the value at key, or core.ErrNotFound if absent or expired.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", core.ErrNotFound
		}
		return "", fmt.Errorf("%w: get %s: %v", core.ErrStoreUnavailable, key, err)
	}
	return val, nil
}

// Del removes a key. Deleting an absent key is not an error.
func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", core.ErrStoreUnavailable, key, err)
	}
	return nil
}

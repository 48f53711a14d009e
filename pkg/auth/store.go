package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTokenKey is the Redis key used by RedisStore unless overridden.
const DefaultTokenKey = "fetcher:auth:token"

// TokenStore shares a bearer token across fetcher processes.
type TokenStore interface {
	// Load returns the stored token, or "" when none is stored.
	Load(ctx context.Context) (string, error)

	// Save stores the token with the given TTL.
	Save(ctx context.Context, token string, ttl time.Duration) error
}

// RedisStore keeps the token in Redis so concurrent fetcher processes reuse
// one login instead of each hitting the auth endpoint.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store. An empty key uses DefaultTokenKey.
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &RedisStore{
		redis: client,
		key:   key,
	}
}

// Load returns the stored token, or "" when the key is absent or expired.
func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

// Save stores the token with the given TTL.
func (s *RedisStore) Save(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key, token, ttl).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

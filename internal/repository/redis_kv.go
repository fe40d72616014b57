package repository

import (
	"context"
	"errors"

	"github.com/artwall/storefront/pkg/redis"
)

// RedisKV stores values as plain Redis strings without expiry, under the
// storefront key namespace.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV creates a Redis-backed store.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, redis.Key(key))
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, redis.Key(key), value, 0)
}

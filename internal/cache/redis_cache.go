package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client     redis.Cmdable
	defaultTTL time.Duration
}

// NewRedisCache shares client with the rate limiter and the sweeper lock.
func NewRedisCache(client redis.Cmdable, cfg *config.CacheConfig) Cache {
	return &redisCache{client: client, defaultTTL: cfg.DefaultTTL}
}

// Get reports a miss for absent keys. An entry that no longer decodes into
// value is dropped so the next read goes back to the store.
func (r *redisCache) Get(ctx context.Context, key string, value any) (bool, error) {

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to get key %s from redis: %w", key, err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return false, fmt.Errorf("failed to unmarshal cache data for key %s: %w", key, err)
	}

	return true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in redis: %w", key, err)
	}

	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s from redis: %w", key, err)
	}

	return nil
}

// Close leaves the shared client open; main owns it.
func (r *redisCache) Close() error {
	return nil
}

type noopCache struct{}

// NewNoopCache is used with the memory driver. Every read is a miss.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string, any) (bool, error) { return false, nil }

func (noopCache) Set(context.Context, string, any, time.Duration) error { return nil }

func (noopCache) Delete(context.Context, string) error { return nil }

func (noopCache) Close() error { return nil }

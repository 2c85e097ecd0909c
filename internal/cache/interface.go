package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cache stores JSON encoded values. A ttl of zero means the configured default.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const OrderKeyPrefix = "order"

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

func OrderKey(id uuid.UUID) string {
	return Key(OrderKeyPrefix, id.String())
}

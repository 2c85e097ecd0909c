package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// RedisRepository mocks both the RateLimitRepository and LockRepository types
type RedisRepository struct {
	mock.Mock
}

func NewRedisRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *RedisRepository {
	m := &RedisRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *RedisRepository) CheckCheckoutRateLimit(ctx context.Context, userID uuid.UUID) (bool, int, error) {
	args := m.Called(ctx, userID)

	return args.Bool(0), args.Int(1), args.Error(2)
}

func (m *RedisRepository) AcquireLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, name, ttl)

	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *RedisRepository) ReleaseLock(ctx context.Context, name, token string) error {
	return m.Called(ctx, name, token).Error(0)
}

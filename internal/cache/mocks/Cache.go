package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// Cache is a testify mock of cache.Cache.
type Cache struct {
	mock.Mock
}

func NewCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *Cache {
	m := &Cache{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Cache) Get(ctx context.Context, key string, value any) (bool, error) {
	args := m.Called(ctx, key, value)

	return args.Bool(0), args.Error(1)
}

func (m *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *Cache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *Cache) Close() error {
	return m.Called().Error(0)
}

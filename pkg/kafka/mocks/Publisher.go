package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Publisher is a testify mock of kafka.Publisher.
type Publisher struct {
	mock.Mock
}

func NewPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *Publisher {
	m := &Publisher{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Publisher) Publish(ctx context.Context, eventType string, key string, payload any) error {
	return m.Called(ctx, eventType, key, payload).Error(0)
}

func (m *Publisher) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *Publisher) Close() error {
	return m.Called().Error(0)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/stretchr/testify/mock"
)

// NotificationService is a mock type for the NotificationService type
type NotificationService struct {
	mock.Mock
}

func NewNotificationService(t interface {
	mock.TestingT
	Cleanup(func())
}) *NotificationService {
	m := &NotificationService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *NotificationService) NotifyLowStock(ctx context.Context, products []models.LowStockProduct) {
	m.Called(ctx, products)
}

func (m *NotificationService) Run(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// NotificationRepository is a mock type for the NotificationRepository type
type NotificationRepository struct {
	mock.Mock
}

func NewNotificationRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *NotificationRepository {
	m := &NotificationRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *NotificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *NotificationRepository) UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error {
	return m.Called(ctx, id, status, errorMsg).Error(0)
}

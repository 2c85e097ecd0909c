package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// CheckoutService is a mock type for the CheckoutService type
type CheckoutService struct {
	mock.Mock
}

func NewCheckoutService(t interface {
	mock.TestingT
	Cleanup(func())
}) *CheckoutService {
	m := &CheckoutService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CheckoutService) Checkout(ctx context.Context, user *models.Claims) (*models.CheckoutResponse, error) {
	args := m.Called(ctx, user)

	if resp, ok := args.Get(0).(*models.CheckoutResponse); ok {
		return resp, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CheckoutService) HandleSuccess(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)

	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CheckoutService) HandleCancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)

	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *CheckoutService) SettleStale(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *CheckoutService) ResumeFulfillment(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// OrderService is a mock type for the OrderService type
type OrderService struct {
	mock.Mock
}

func NewOrderService(t interface {
	mock.TestingT
	Cleanup(func())
}) *OrderService {
	m := &OrderService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *OrderService) order(args mock.Arguments) (*models.Order, error) {
	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *OrderService) CreatePendingOrder(ctx context.Context, userID uuid.UUID, snapshot *models.PricingSnapshot) (*models.Order, error) {
	return m.order(m.Called(ctx, userID, snapshot))
}

func (m *OrderService) AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return m.Called(ctx, orderID, sessionID).Error(0)
}

func (m *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentReference string) (*models.Order, error) {
	return m.order(m.Called(ctx, orderID, paymentReference))
}

func (m *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *OrderService) Fulfill(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error) {
	args := m.Called(ctx, order)

	if result, ok := args.Get(0).(*models.FulfillmentResult); ok {
		return result, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *OrderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return m.order(m.Called(ctx, orderID))
}

func (m *OrderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) (*models.OrderHistoryResponse, error) {
	args := m.Called(ctx, userID, page, size)

	if history, ok := args.Get(0).(*models.OrderHistoryResponse); ok {
		return history, args.Error(1)
	}

	return nil, args.Error(1)
}

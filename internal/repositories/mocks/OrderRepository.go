package mocks

import (
	"context"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// OrderRepository is a mock type for the OrderRepository type
type OrderRepository struct {
	mock.Mock
}

func NewOrderRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *OrderRepository {
	m := &OrderRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *OrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)

	if order, ok := args.Get(0).(*models.Order); ok {
		return order, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *OrderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	args := m.Called(ctx, userID, page, size)

	orders, _ := args.Get(0).([]models.Order)

	return orders, args.Int(1), args.Error(2)
}

func (m *OrderRepository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return m.Called(ctx, id, sessionID).Error(0)
}

func (m *OrderRepository) MarkPaid(ctx context.Context, id uuid.UUID, paymentReference string) (bool, error) {
	args := m.Called(ctx, id, paymentReference)

	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) CancelOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)

	return args.Bool(0), args.Error(1)
}

func (m *OrderRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Order, error) {
	args := m.Called(ctx, createdBefore, limit)

	orders, _ := args.Get(0).([]models.Order)

	return orders, args.Error(1)
}

func (m *OrderRepository) ListUnfulfilledPaid(ctx context.Context, paidBefore time.Time, limit int) ([]models.Order, error) {
	args := m.Called(ctx, paidBefore, limit)

	orders, _ := args.Get(0).([]models.Order)

	return orders, args.Error(1)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// CartService is a mock type for the CartService type
type CartService struct {
	mock.Mock
}

func NewCartService(t interface {
	mock.TestingT
	Cleanup(func())
}) *CartService {
	m := &CartService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CartService) cart(args mock.Arguments) (*models.Cart, error) {
	if cart, ok := args.Get(0).(*models.Cart); ok {
		return cart, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *CartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartLineRequest) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, req))
}

func (m *CartService) UpdateItem(ctx context.Context, userID, lineID uuid.UUID, req *models.UpdateCartLineRequest) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, lineID, req))
}

func (m *CartService) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {
	return m.cart(m.Called(ctx, userID, lineID))
}

func (m *CartService) Snapshot(ctx context.Context, userID uuid.UUID) (*models.PricingSnapshot, error) {
	args := m.Called(ctx, userID)

	if snapshot, ok := args.Get(0).(*models.PricingSnapshot); ok {
		return snapshot, args.Error(1)
	}

	return nil, args.Error(1)
}

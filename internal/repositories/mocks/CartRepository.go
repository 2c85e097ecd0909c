package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// CartRepository is a mock type for the CartRepository type
type CartRepository struct {
	mock.Mock
}

func NewCartRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *CartRepository {
	m := &CartRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *CartRepository) GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	args := m.Called(ctx, userID)

	lines, _ := args.Get(0).([]models.CartLine)

	return lines, args.Error(1)
}

func (m *CartRepository) GetCartLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error) {
	args := m.Called(ctx, userID, lineID)

	if line, ok := args.Get(0).(*models.CartLine); ok {
		return line, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartRepository) AddCartLine(ctx context.Context, line *models.CartLine) error {
	return m.Called(ctx, line).Error(0)
}

func (m *CartRepository) UpdateCartLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	args := m.Called(ctx, userID, lineID, quantity)

	if line, ok := args.Get(0).(*models.CartLine); ok {
		return line, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *CartRepository) RemoveCartLine(ctx context.Context, userID, lineID uuid.UUID) error {
	return m.Called(ctx, userID, lineID).Error(0)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// StockRepository is a mock type for the StockRepository type
type StockRepository struct {
	mock.Mock
}

func NewStockRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *StockRepository {
	m := &StockRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *StockRepository) GetStockLevel(ctx context.Context, productID uuid.UUID, size models.Size) (int, error) {
	args := m.Called(ctx, productID, size)

	return args.Int(0), args.Error(1)
}

func (m *StockRepository) CommitDecrement(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) error {
	return m.Called(ctx, productID, size, quantity).Error(0)
}

func (m *StockRepository) LowStockSizes(ctx context.Context, productID uuid.UUID, threshold int) ([]models.Size, error) {
	args := m.Called(ctx, productID, threshold)

	sizes, _ := args.Get(0).([]models.Size)

	return sizes, args.Error(1)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// StockService is a mock type for the StockService type
type StockService struct {
	mock.Mock
}

func NewStockService(t interface {
	mock.TestingT
	Cleanup(func())
}) *StockService {
	m := &StockService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *StockService) CheckAvailability(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) (bool, error) {
	args := m.Called(ctx, productID, size, quantity)

	return args.Bool(0), args.Error(1)
}

func (m *StockService) CommitDecrement(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) error {
	return m.Called(ctx, productID, size, quantity).Error(0)
}

func (m *StockService) LowStockSizes(ctx context.Context, productID uuid.UUID, threshold int) ([]models.Size, error) {
	args := m.Called(ctx, productID, threshold)

	sizes, _ := args.Get(0).([]models.Size)

	return sizes, args.Error(1)
}

func (m *StockService) LowStockReport(ctx context.Context, productIDs []uuid.UUID) ([]models.LowStockProduct, error) {
	args := m.Called(ctx, productIDs)

	report, _ := args.Get(0).([]models.LowStockProduct)

	return report, args.Error(1)
}

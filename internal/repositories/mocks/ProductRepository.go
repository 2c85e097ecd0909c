package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// ProductRepository is a mock type for the ProductRepository type
type ProductRepository struct {
	mock.Mock
}

func NewProductRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *ProductRepository {
	m := &ProductRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *ProductRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)

	if product, ok := args.Get(0).(*models.Product); ok {
		return product, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *ProductRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	args := m.Called(ctx, ids)

	products, _ := args.Get(0).(map[uuid.UUID]*models.Product)

	return products, args.Error(1)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/stretchr/testify/mock"
)

// FulfillmentRepository is a mock type for the FulfillmentRepository type
type FulfillmentRepository struct {
	mock.Mock
}

func NewFulfillmentRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *FulfillmentRepository {
	m := &FulfillmentRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *FulfillmentRepository) FulfillOrder(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error) {
	args := m.Called(ctx, order)

	if result, ok := args.Get(0).(*models.FulfillmentResult); ok {
		return result, args.Error(1)
	}

	return nil, args.Error(1)
}

package mocks

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UserRepository is a mock type for the UserRepository type
type UserRepository struct {
	mock.Mock
}

func NewUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *UserRepository {
	m := &UserRepository{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)

	if user, ok := args.Get(0).(*models.User); ok {
		return user, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *UserRepository) ListAdminEmails(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)

	emails, _ := args.Get(0).([]string)

	return emails, args.Error(1)
}

package mocks

import (
	"context"

	sendgrid_client "github.com/aaravmahajanofficial/storefront-checkout/pkg/sendgrid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/stretchr/testify/mock"
)

// EmailService is a testify mock of sendgrid.EmailService.
type EmailService struct {
	mock.Mock
}

func NewEmailService(t interface {
	mock.TestingT
	Cleanup(func())
}) *EmailService {
	m := &EmailService{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *EmailService) Send(ctx context.Context, msg *sendgrid_client.EmailMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *EmailService) GetSendGridClient() *sendgrid.Client {
	args := m.Called()

	if c, ok := args.Get(0).(*sendgrid.Client); ok {
		return c
	}

	return nil
}

package mocks

import (
	"context"

	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/stretchr/testify/mock"
)

// Gateway is a testify mock of stripe.Gateway.
type Gateway struct {
	mock.Mock
}

func NewGateway(t interface {
	mock.TestingT
	Cleanup(func())
}) *Gateway {
	m := &Gateway{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *Gateway) CreateSession(ctx context.Context, params stripeClient.SessionParams) (*stripeClient.Session, error) {
	args := m.Called(ctx, params)

	if s, ok := args.Get(0).(*stripeClient.Session); ok {
		return s, args.Error(1)
	}

	return nil, args.Error(1)
}

func (m *Gateway) ResolvePaymentReference(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)

	return args.String(0), args.Error(1)
}

func (m *Gateway) VerifyWebhookSignature(payload []byte, signature string) (stripeClient.Event, error) {
	args := m.Called(payload, signature)

	if evt, ok := args.Get(0).(stripeClient.Event); ok {
		return evt, args.Error(1)
	}

	return stripeClient.Event{}, args.Error(1)
}

func (m *Gateway) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

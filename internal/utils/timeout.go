package utils

import (
	"context"
	"time"
)

const (
	DefaultDBTimeout = 5 * time.Second
	// GatewayTimeout bounds a single call to the payment gateway. Stripe's own
	// client retries inside this window.
	GatewayTimeout = 15 * time.Second
)

func WithDBTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultDBTimeout)
}

func WithGatewayTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, GatewayTimeout)
}

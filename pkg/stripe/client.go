package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/balance"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

type Event = stripe.Event

const (
	EventSessionCompleted = "checkout.session.completed"
	EventSessionExpired   = "checkout.session.expired"
)

var (
	ErrPaymentNotCompleted  = errors.New("checkout session is not paid")
	ErrWebhookNotConfigured = errors.New("webhook secret not configured")
)

// LineItem is one priced line shown on the hosted payment page.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

type SessionParams struct {
	OrderID       uuid.UUID
	CustomerEmail string
	LineItems     []LineItem
	SuccessURL    string
	CancelURL     string
	ExpiresAt     time.Time
}

// Session is the gateway's handle for one payment attempt.
type Session struct {
	ID  string
	URL string
}

// SessionEvent is the part of a checkout.session.* webhook the store acts on.
type SessionEvent struct {
	SessionID     string
	OrderID       uuid.UUID
	PaymentStatus string
}

// Gateway opens hosted payment sessions and confirms their outcome.
type Gateway interface {
	CreateSession(ctx context.Context, params SessionParams) (*Session, error)
	ResolvePaymentReference(ctx context.Context, sessionID string) (string, error)
	VerifyWebhookSignature(payload []byte, signature string) (Event, error)
	Ping(ctx context.Context) error
}

type Config struct {
	APIKey           string
	WebhookSecret    string
	Currency         string
	AllowedCountries []string
}

type stripeGateway struct {
	cfg      Config
	sessions *session.Client
	balance  *balance.Client
}

func NewStripeGateway(cfg Config) Gateway {
	return NewStripeGatewayWithBackend(cfg, stripe.GetBackend(stripe.APIBackend))
}

// NewStripeGatewayWithBackend lets callers point the gateway at a different API host.
func NewStripeGatewayWithBackend(cfg Config, backend stripe.Backend) Gateway {
	return &stripeGateway{
		cfg:      cfg,
		sessions: &session.Client{B: backend, Key: cfg.APIKey},
		balance:  &balance.Client{B: backend, Key: cfg.APIKey},
	}
}

// BuildSessionParams maps a checkout onto Stripe's Checkout Session request.
// Amounts are sent in minor units.
func BuildSessionParams(cfg Config, p SessionParams) *stripe.CheckoutSessionParams {

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))

	for _, item := range p.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(cfg.Currency),
				UnitAmount: stripe.Int64(pricing.ToMinorUnits(item.UnitPrice)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail:      stripe.String(p.CustomerEmail),
		ClientReferenceID:  stripe.String(p.OrderID.String()),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(cfg.AllowedCountries),
		},
	}

	if !p.ExpiresAt.IsZero() {
		params.ExpiresAt = stripe.Int64(p.ExpiresAt.Unix())
	}

	params.AddMetadata("order_id", p.OrderID.String())

	return params
}

func (g *stripeGateway) CreateSession(ctx context.Context, p SessionParams) (*Session, error) {

	params := BuildSessionParams(g.cfg, p)
	params.Context = ctx
	params.SetIdempotencyKey("checkout-" + p.OrderID.String())

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &Session{ID: s.ID, URL: s.URL}, nil
}

// ResolvePaymentReference returns the PaymentIntent id of a paid session.
func (g *stripeGateway) ResolvePaymentReference(ctx context.Context, sessionID string) (string, error) {

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return "", fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, s.PaymentStatus)
	}

	if s.PaymentIntent != nil && s.PaymentIntent.ID != "" {
		return s.PaymentIntent.ID, nil
	}

	return s.ID, nil
}

func (g *stripeGateway) VerifyWebhookSignature(payload []byte, signature string) (Event, error) {
	if g.cfg.WebhookSecret == "" {
		return Event{}, ErrWebhookNotConfigured
	}

	return webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}

// Ping reads the account balance to prove the key works.
func (g *stripeGateway) Ping(ctx context.Context) error {
	params := &stripe.BalanceParams{}
	params.Context = ctx

	if _, err := g.balance.Get(params); err != nil {
		return fmt.Errorf("failed to connect to stripe: %w", err)
	}

	return nil
}

// ParseSessionEvent decodes the checkout session carried by a webhook event.
func ParseSessionEvent(evt Event) (*SessionEvent, error) {

	if evt.Data == nil {
		return nil, errors.New("event has no data")
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	ref := s.ClientReferenceID
	if ref == "" {
		ref = s.Metadata["order_id"]
	}

	orderID, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("checkout session %s carries no order id: %w", s.ID, err)
	}

	return &SessionEvent{
		SessionID:     s.ID,
		OrderID:       orderID,
		PaymentStatus: string(s.PaymentStatus),
	}, nil
}

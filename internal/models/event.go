package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderPaid             = "order.paid"
	EventOrderCancelled        = "order.cancelled"
	EventStockShortfall        = "stock.shortfall"
	EventPaymentReconciliation = "payment.reconciliation"
)

// Envelope wraps every event written to the checkout topic.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	UserID           uuid.UUID `json:"user_id"`
	TotalPrice       string    `json:"total_price"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"payment_reference"`
}

type OrderCancelledEvent struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
	Reason  string    `json:"reason"`
}

type StockShortfallEvent struct {
	OrderID    uuid.UUID        `json:"order_id"`
	Shortfalls []StockException `json:"shortfalls"`
}

// PaymentReconciliationEvent flags a payment that arrived for an order the
// store no longer considers payable.
type PaymentReconciliationEvent struct {
	OrderID          uuid.UUID   `json:"order_id"`
	Status           OrderStatus `json:"status"`
	PaymentSessionID string      `json:"payment_session_id"`
	Reason           string      `json:"reason"`
}

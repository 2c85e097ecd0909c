package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed out of s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusPaid || s == OrderStatusCancelled
}

type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        Size            `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Status           OrderStatus     `json:"status"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Currency         string          `json:"currency"`
	PaymentSessionID string          `json:"payment_session_id,omitempty"`
	PaymentReference string          `json:"payment_reference,omitempty"`
	FulfilledAt      *time.Time      `json:"fulfilled_at,omitempty"`
	Items            []OrderItem     `json:"items"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type OrderHistoryResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Size   int     `json:"size"`
}

// StockException records a post-payment decrement that could not be applied.
// Operators reconcile these by hand; the order stays paid.
type StockException struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Size      Size      `json:"size"`
	Requested int       `json:"requested"`
	CreatedAt time.Time `json:"created_at"`
}

// FulfillmentResult describes one run of the fulfillment step. Claimed is false
// when an earlier run already fulfilled the order.
type FulfillmentResult struct {
	Claimed          bool             `json:"claimed"`
	Shortfalls       []StockException `json:"shortfalls,omitempty"`
	AffectedProducts []uuid.UUID      `json:"affected_products,omitempty"`
	CartLinesRemoved int64            `json:"cart_lines_removed"`
}

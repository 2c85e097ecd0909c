package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one (product, size) entry of a user's cart. A user holds at most
// one line per (product, size).
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ProductID uuid.UUID `json:"product_id"`
	Size      Size      `json:"size"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CartLineView struct {
	CartLine
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type Cart struct {
	UserID uuid.UUID       `json:"user_id"`
	Lines  []CartLineView  `json:"lines"`
	Total  decimal.Decimal `json:"total"`
}

type AddCartLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      Size      `json:"size"       validate:"required,oneof=XS S M L XL"`
	Quantity  int       `json:"quantity"   validate:"required,min=1,max=99"`
}

type UpdateCartLineRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

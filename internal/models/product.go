package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Size string

const (
	SizeXS Size = "XS"
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

// Sizes lists every stocked size in display order.
var Sizes = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL}

func (s Size) Valid() bool {
	switch s {
	case SizeXS, SizeS, SizeM, SizeL, SizeXL:
		return true
	}

	return false
}

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     map[Size]int    `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StockFor returns the on-hand quantity for a size, zero when the size is not stocked.
func (p *Product) StockFor(size Size) int {
	if p.Stock == nil {
		return 0
	}

	return p.Stock[size]
}

// LowStockProduct is the payload of an admin low-stock alert.
type LowStockProduct struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Sizes     []Size    `json:"sizes"`
}

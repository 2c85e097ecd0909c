package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotLine freezes the price of one cart line at checkout time.
type SnapshotLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Size        Size            `json:"size"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type PricingSnapshot struct {
	Lines      []SnapshotLine  `json:"lines"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

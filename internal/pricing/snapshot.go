// Package pricing turns a cart into a frozen list of priced lines.
package pricing

import (
	"fmt"

	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildSnapshot prices every cart line against the current catalog.
//
// Lines keep the cart order. The grand total is the exact decimal sum of line
// totals. A line whose size does not have enough stock fails the snapshot; this
// is an availability check only, nothing is reserved.
func BuildSnapshot(lines []models.CartLine, products map[uuid.UUID]*models.Product) (*models.PricingSnapshot, error) {

	if len(lines) == 0 {
		return nil, appErrors.EmptyCartError("Cart is empty")
	}

	snapshot := &models.PricingSnapshot{
		Lines:      make([]models.SnapshotLine, 0, len(lines)),
		GrandTotal: decimal.Zero,
	}

	for _, line := range lines {

		if line.Quantity < 1 {
			return nil, appErrors.ValidationError("Cart line quantity must be at least 1").
				WithDetail(fmt.Sprintf("line_id=%s", line.ID))
		}

		product, ok := products[line.ProductID]
		if !ok || product == nil {
			return nil, appErrors.NotFoundError("Product not found").
				WithDetail(fmt.Sprintf("product_id=%s", line.ProductID))
		}

		if product.StockFor(line.Size) < line.Quantity {
			return nil, appErrors.InsufficientStockError("Not enough stock for the requested size").
				WithDetail(fmt.Sprintf("product=%s size=%s requested=%d available=%d",
					product.Name, line.Size, line.Quantity, product.StockFor(line.Size)))
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))

		snapshot.Lines = append(snapshot.Lines, models.SnapshotLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			LineTotal:   lineTotal,
		})

		snapshot.GrandTotal = snapshot.GrandTotal.Add(lineTotal)
	}

	return snapshot, nil
}

// ToMinorUnits converts an amount to the smallest currency unit (cents).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

package pricing_test

import (
	"testing"

	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name, price string, stock map[models.Size]int) *models.Product {
	return &models.Product{
		ID:    uuid.New(),
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
}

func TestBuildSnapshot(t *testing.T) {
	userID := uuid.New()

	t.Run("Success - totals two lines", func(t *testing.T) {
		// Arrange
		shirt := product("Shirt", "20.00", map[models.Size]int{models.SizeM: 5})
		hat := product("Cap", "5.00", map[models.Size]int{models.SizeS: 1})

		lines := []models.CartLine{
			{ID: uuid.New(), UserID: userID, ProductID: shirt.ID, Size: models.SizeM, Quantity: 2},
			{ID: uuid.New(), UserID: userID, ProductID: hat.ID, Size: models.SizeS, Quantity: 1},
		}
		products := map[uuid.UUID]*models.Product{shirt.ID: shirt, hat.ID: hat}

		// Act
		snapshot, err := pricing.BuildSnapshot(lines, products)

		// Assert
		require.NoError(t, err)
		require.Len(t, snapshot.Lines, 2)
		assert.True(t, decimal.RequireFromString("40.00").Equal(snapshot.Lines[0].LineTotal))
		assert.True(t, decimal.RequireFromString("5.00").Equal(snapshot.Lines[1].LineTotal))
		assert.True(t, decimal.RequireFromString("45.00").Equal(snapshot.GrandTotal))
		assert.Equal(t, "Shirt", snapshot.Lines[0].ProductName)
	})

	t.Run("Success - later price change does not alter snapshot", func(t *testing.T) {
		shirt := product("Shirt", "19.99", map[models.Size]int{models.SizeL: 3})
		lines := []models.CartLine{{ProductID: shirt.ID, Size: models.SizeL, Quantity: 3}}

		snapshot, err := pricing.BuildSnapshot(lines, map[uuid.UUID]*models.Product{shirt.ID: shirt})
		require.NoError(t, err)

		shirt.Price = decimal.RequireFromString("99.00")

		assert.True(t, decimal.RequireFromString("59.97").Equal(snapshot.GrandTotal))
		assert.True(t, decimal.RequireFromString("19.99").Equal(snapshot.Lines[0].UnitPrice))
	})

	t.Run("Failure - empty cart", func(t *testing.T) {
		snapshot, err := pricing.BuildSnapshot(nil, nil)

		assert.Nil(t, snapshot)
		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeEmptyCart))
	})

	t.Run("Failure - missing product", func(t *testing.T) {
		lines := []models.CartLine{{ProductID: uuid.New(), Size: models.SizeM, Quantity: 1}}

		_, err := pricing.BuildSnapshot(lines, map[uuid.UUID]*models.Product{})

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeNotFound))
	})

	t.Run("Failure - size out of stock", func(t *testing.T) {
		shirt := product("Shirt", "20.00", map[models.Size]int{models.SizeM: 1})
		lines := []models.CartLine{{ProductID: shirt.ID, Size: models.SizeM, Quantity: 2}}

		_, err := pricing.BuildSnapshot(lines, map[uuid.UUID]*models.Product{shirt.ID: shirt})

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInsufficientStock))
	})

	t.Run("Failure - size not stocked", func(t *testing.T) {
		shirt := product("Shirt", "20.00", nil)
		lines := []models.CartLine{{ProductID: shirt.ID, Size: models.SizeXL, Quantity: 1}}

		_, err := pricing.BuildSnapshot(lines, map[uuid.UUID]*models.Product{shirt.ID: shirt})

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInsufficientStock))
	})
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2000), pricing.ToMinorUnits(decimal.RequireFromString("20.00")))
	assert.Equal(t, int64(1999), pricing.ToMinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(500), pricing.ToMinorUnits(decimal.RequireFromString("5")))
}

package repository_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProductsByIDs(t *testing.T) {
	productsSQL := regexp.QuoteMeta(`FROM products`)
	stockSQL := regexp.QuoteMeta(`FROM product_stock`)

	t.Run("Success - products with per-size stock", func(t *testing.T) {
		repo, mock := newMockDB(t)
		shirtID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(productsSQL).WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at", "updated_at"}).
				AddRow(shirtID.String(), "Shirt", "20.00", now, now))
		mock.ExpectQuery(stockSQL).WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "size", "quantity"}).
				AddRow(shirtID.String(), "M", 5).
				AddRow(shirtID.String(), "L", 0))

		products, err := repo.Products.GetProductsByIDs(t.Context(), []uuid.UUID{shirtID})

		require.NoError(t, err)
		require.Contains(t, products, shirtID)
		assert.True(t, decimal.RequireFromString("20").Equal(products[shirtID].Price))
		assert.Equal(t, 5, products[shirtID].StockFor(models.SizeM))
		assert.Equal(t, 0, products[shirtID].StockFor(models.SizeXS))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - no ids issues no query", func(t *testing.T) {
		repo, mock := newMockDB(t)

		products, err := repo.Products.GetProductsByIDs(t.Context(), nil)

		require.NoError(t, err)
		assert.Empty(t, products)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - single product missing", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectQuery(productsSQL).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "created_at", "updated_at"}))
		mock.ExpectQuery(stockSQL).WillReturnRows(sqlmock.NewRows([]string{"product_id", "size", "quantity"}))

		product, err := repo.Products.GetProductByID(t.Context(), uuid.New())

		assert.Nil(t, product)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

package repository_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decrementSQL = regexp.QuoteMeta(`UPDATE product_stock SET quantity = quantity - $3
		WHERE product_id = $1 AND size = $2 AND quantity >= $3`)

func TestCommitDecrement(t *testing.T) {
	productID := uuid.New()

	t.Run("Success - enough stock", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectExec(decrementSQL).WithArgs(productID, models.SizeL, 2).WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Stock.CommitDecrement(t.Context(), productID, models.SizeL, 2)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - guard rejects decrement below zero", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectExec(decrementSQL).WithArgs(productID, models.SizeL, 5).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Stock.CommitDecrement(t.Context(), productID, models.SizeL, 5)

		assert.ErrorIs(t, err, repository.ErrInsufficientStock)
	})

	t.Run("Failure - database error", func(t *testing.T) {
		repo, mock := newMockDB(t)
		dbErr := errors.New("connection reset")

		mock.ExpectExec(decrementSQL).WillReturnError(dbErr)

		err := repo.Stock.CommitDecrement(t.Context(), productID, models.SizeL, 1)

		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, repository.ErrInsufficientStock)
	})
}

func TestGetStockLevel(t *testing.T) {
	productID := uuid.New()
	query := regexp.QuoteMeta(`SELECT quantity FROM product_stock WHERE product_id = $1 AND size = $2`)

	t.Run("Success - existing row", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectQuery(query).WithArgs(productID, models.SizeS).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(7))

		level, err := repo.Stock.GetStockLevel(t.Context(), productID, models.SizeS)

		require.NoError(t, err)
		assert.Equal(t, 7, level)
	})

	t.Run("Success - missing row reads as zero", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectQuery(query).WithArgs(productID, models.SizeXL).WillReturnRows(sqlmock.NewRows([]string{"quantity"}))

		level, err := repo.Stock.GetStockLevel(t.Context(), productID, models.SizeXL)

		require.NoError(t, err)
		assert.Zero(t, level)
	})
}

func TestLowStockSizes(t *testing.T) {
	repo, mock := newMockDB(t)
	productID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE product_id = $1 AND quantity < $2`)).
		WithArgs(productID, 10).
		WillReturnRows(sqlmock.NewRows([]string{"size"}).AddRow("S").AddRow("XL"))

	sizes, err := repo.Stock.LowStockSizes(t.Context(), productID, 10)

	require.NoError(t, err)
	assert.Equal(t, []models.Size{models.SizeS, models.SizeXL}, sizes)
}

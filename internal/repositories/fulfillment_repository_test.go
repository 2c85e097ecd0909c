package repository_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfillOrder(t *testing.T) {
	claimSQL := regexp.QuoteMeta(`UPDATE orders SET fulfilled_at = NOW(), updated_at = NOW()`)
	exceptionSQL := regexp.QuoteMeta(`INSERT INTO stock_exceptions`)
	cartSQL := regexp.QuoteMeta(`DELETE FROM cart_lines WHERE user_id = $1`)

	t.Run("Success - decrements stock and empties the cart", func(t *testing.T) {
		// Arrange
		repo, mock := newMockDB(t)
		order := testOrder()
		order.Status = models.OrderStatusPaid

		mock.ExpectBegin()
		mock.ExpectExec(claimSQL).WithArgs(order.ID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(decrementSQL).WithArgs(order.Items[0].ProductID, models.SizeM, 2).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(decrementSQL).WithArgs(order.Items[1].ProductID, models.SizeS, 1).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(cartSQL).WithArgs(order.UserID).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		// Act
		result, err := repo.Fulfillment.FulfillOrder(t.Context(), order)

		// Assert
		require.NoError(t, err)
		assert.True(t, result.Claimed)
		assert.Empty(t, result.Shortfalls)
		assert.Len(t, result.AffectedProducts, 2)
		assert.Equal(t, int64(3), result.CartLinesRemoved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - shortfall recorded and order still fulfilled", func(t *testing.T) {
		repo, mock := newMockDB(t)
		order := testOrder()
		order.Items = order.Items[:1]

		mock.ExpectBegin()
		mock.ExpectExec(claimSQL).WithArgs(order.ID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(decrementSQL).WithArgs(order.Items[0].ProductID, models.SizeM, 2).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(exceptionSQL).
			WithArgs(sqlmock.AnyArg(), order.ID, order.Items[0].ProductID, models.SizeM, 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(cartSQL).WithArgs(order.UserID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		result, err := repo.Fulfillment.FulfillOrder(t.Context(), order)

		require.NoError(t, err)
		assert.True(t, result.Claimed)
		require.Len(t, result.Shortfalls, 1)
		assert.Equal(t, 2, result.Shortfalls[0].Requested)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - replay finds marker claimed", func(t *testing.T) {
		repo, mock := newMockDB(t)
		order := testOrder()

		mock.ExpectBegin()
		mock.ExpectExec(claimSQL).WithArgs(order.ID).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		result, err := repo.Fulfillment.FulfillOrder(t.Context(), order)

		require.NoError(t, err)
		assert.False(t, result.Claimed)
		assert.Empty(t, result.AffectedProducts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - cart delete error rolls back everything", func(t *testing.T) {
		repo, mock := newMockDB(t)
		order := testOrder()
		order.Items = order.Items[:1]

		mock.ExpectBegin()
		mock.ExpectExec(claimSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(decrementSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(cartSQL).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		result, err := repo.Fulfillment.FulfillOrder(t.Context(), order)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

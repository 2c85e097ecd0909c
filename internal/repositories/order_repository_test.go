package repository_test

import (
	"errors"
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

func newMockDB(t *testing.T) (*repository.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	t.Cleanup(func() {
		db.Close()
	})

	return repository.NewWithDB(db), mock
}

var orderColumns = []string{"id", "user_id", "status", "total_price", "currency", "payment_session_id", "payment_reference", "fulfilled_at", "created_at", "updated_at"}

func testOrder() *models.Order {
	orderID := uuid.New()

	return &models.Order{
		ID:         orderID,
		UserID:     uuid.New(),
		Status:     models.OrderStatusPending,
		TotalPrice: decimal.RequireFromString("45.00"),
		Currency:   "eur",
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Shirt", Size: models.SizeM, Quantity: 2, UnitPrice: decimal.RequireFromString("20.00")},
			{ID: uuid.New(), ProductID: uuid.New(), ProductName: "Cap", Size: models.SizeS, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	orderInsert := regexp.QuoteMeta(`INSERT INTO orders (id, user_id, status, total_price, currency, payment_session_id, payment_reference, created_at, updated_at)`)
	itemInsert := regexp.QuoteMeta(`INSERT INTO order_items (id, order_id, product_id, product_name, size, quantity, unit_price, created_at)`)

	t.Run("Success - order and items committed together", func(t *testing.T) {
		// Arrange
		repo, mock := newMockDB(t)
		order := testOrder()
		now := time.Now()

		mock.ExpectBegin()
		mock.ExpectQuery(orderInsert).
			WithArgs(order.ID, order.UserID, order.Status, sqlmock.AnyArg(), "eur", "", "").
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(itemInsert).
			WithArgs(order.Items[0].ID, order.ID, order.Items[0].ProductID, "Shirt", models.SizeM, 2, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(itemInsert).
			WithArgs(order.Items[1].ID, order.ID, order.Items[1].ProductID, "Cap", models.SizeS, 1, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		// Act
		err := repo.Orders.CreateOrder(t.Context(), order)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, now, order.CreatedAt)
		assert.Equal(t, order.ID, order.Items[1].OrderID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - item insert rolls back the order", func(t *testing.T) {
		repo, mock := newMockDB(t)
		order := testOrder()
		now := time.Now()
		dbErr := errors.New("fk violation")

		mock.ExpectBegin()
		mock.ExpectQuery(orderInsert).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(itemInsert).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(itemInsert).WillReturnError(dbErr)
		mock.ExpectRollback()

		err := repo.Orders.CreateOrder(t.Context(), order)

		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to insert an order item")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - begin fails", func(t *testing.T) {
		repo, mock := newMockDB(t)

		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err := repo.Orders.CreateOrder(t.Context(), testOrder())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})
}

func TestGetOrderByID(t *testing.T) {
	selectOrder := regexp.QuoteMeta(`FROM orders WHERE id = $1`)
	selectItems := regexp.QuoteMeta(`FROM order_items`)

	t.Run("Success - order with items", func(t *testing.T) {
		repo, mock := newMockDB(t)
		order := testOrder()
		now := time.Now()

		mock.ExpectQuery(selectOrder).WithArgs(order.ID).
			WillReturnRows(sqlmock.NewRows(orderColumns).
				AddRow(order.ID.String(), order.UserID.String(), "paid", "45.00", "eur", "cs_test_1", "pi_1", now, now, now))
		mock.ExpectQuery(selectItems).WithArgs(order.ID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "product_name", "size", "quantity", "unit_price", "created_at"}).
				AddRow(order.Items[0].ID.String(), order.Items[0].ProductID.String(), "Shirt", "M", 2, "20.00", now))

		got, err := repo.Orders.GetOrderByID(t.Context(), order.ID)

		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, got.Status)
		assert.True(t, decimal.RequireFromString("45").Equal(got.TotalPrice))
		assert.Equal(t, "pi_1", got.PaymentReference)
		require.NotNil(t, got.FulfilledAt)
		require.Len(t, got.Items, 1)
		assert.Equal(t, models.SizeM, got.Items[0].Size)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - not found", func(t *testing.T) {
		repo, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectQuery(selectOrder).WithArgs(id).WillReturnRows(sqlmock.NewRows(orderColumns))

		got, err := repo.Orders.GetOrderByID(t.Context(), id)

		assert.Nil(t, got)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestMarkPaid(t *testing.T) {
	update := regexp.QuoteMeta(`UPDATE orders SET status = 'paid', payment_reference = $1, updated_at = NOW()`)

	t.Run("Success - pending order transitions", func(t *testing.T) {
		repo, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectExec(update).WithArgs("pi_1", id).WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Orders.MarkPaid(t.Context(), id, "pi_1")

		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Success - order not pending reports no transition", func(t *testing.T) {
		repo, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectExec(update).WithArgs("pi_1", id).WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Orders.MarkPaid(t.Context(), id, "pi_1")

		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCancelOrder(t *testing.T) {
	update := regexp.QuoteMeta(`UPDATE orders SET status = 'cancelled', updated_at = NOW()`)
	deleteItems := regexp.QuoteMeta(`DELETE FROM order_items WHERE order_id = $1`)

	t.Run("Success - pending order cancelled and items deleted", func(t *testing.T) {
		repo, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(deleteItems).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		ok, err := repo.Orders.CancelOrder(t.Context(), id)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - paid order left untouched", func(t *testing.T) {
		repo, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		ok, err := repo.Orders.CancelOrder(t.Context(), id)

		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - item delete rolls back status change", func(t *testing.T) {
		repo, mock := newMockDB(t)
		id := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(update).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(deleteItems).WithArgs(id).WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		ok, err := repo.Orders.CancelOrder(t.Context(), id)

		require.Error(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListStalePending(t *testing.T) {
	repo, mock := newMockDB(t)
	cutoff := time.Now().Add(-time.Hour)
	now := time.Now()
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending' AND created_at < $1`)).
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(id.String(), uuid.NewString(), "pending", "10.00", "eur", "cs_1", "", nil, cutoff.Add(-time.Minute), now))

	orders, err := repo.Orders.ListStalePending(t.Context(), cutoff, 50)

	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, id, orders[0].ID)
	assert.Nil(t, orders[0].FulfilledAt)
}

package memory_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storage/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(store *memory.Store, stock map[models.Size]int) uuid.UUID {
	id := uuid.New()
	store.PutProduct(models.Product{ID: id, Name: "Shirt", Price: decimal.RequireFromString("20.00"), Stock: stock})

	return id
}

func TestCommitDecrementConcurrent(t *testing.T) {
	// Arrange
	store := memory.New()
	productID := seedProduct(store, map[models.Size]int{models.SizeM: 10})

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		rejected  atomic.Int64
	)

	// Act
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := store.CommitDecrement(t.Context(), productID, models.SizeM, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, repository.ErrInsufficientStock):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	// Assert
	level, err := store.GetStockLevel(t.Context(), productID, models.SizeM)
	require.NoError(t, err)
	assert.Equal(t, int64(10), succeeded.Load())
	assert.Equal(t, int64(40), rejected.Load())
	assert.Zero(t, level)
}

func TestCartLines(t *testing.T) {
	store := memory.New()
	userID := uuid.New()
	productID := seedProduct(store, map[models.Size]int{models.SizeL: 3})
	ctx := t.Context()

	t.Run("Success - same product and size merges", func(t *testing.T) {
		first := &models.CartLine{ID: uuid.New(), UserID: userID, ProductID: productID, Size: models.SizeL, Quantity: 1}
		second := &models.CartLine{ID: uuid.New(), UserID: userID, ProductID: productID, Size: models.SizeL, Quantity: 2}

		require.NoError(t, store.AddCartLine(ctx, first))
		require.NoError(t, store.AddCartLine(ctx, second))

		lines, err := store.GetCartLines(ctx, userID)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 3, lines[0].Quantity)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("Failure - another user cannot remove the line", func(t *testing.T) {
		lines, _ := store.GetCartLines(ctx, userID)

		err := store.RemoveCartLine(ctx, uuid.New(), lines[0].ID)

		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestOrderTransitions(t *testing.T) {
	ctx := t.Context()

	newOrder := func(store *memory.Store) *models.Order {
		order := &models.Order{
			ID:     uuid.New(),
			UserID: uuid.New(),
			Status: models.OrderStatusPending,
			Items:  []models.OrderItem{{ID: uuid.New(), ProductID: uuid.New(), Size: models.SizeS, Quantity: 1}},
		}
		require.NoError(t, store.CreateOrder(ctx, order))
		return order
	}

	t.Run("Success - cancel pending deletes items", func(t *testing.T) {
		store := memory.New()
		order := newOrder(store)

		ok, err := store.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		got, _ := store.GetOrderByID(ctx, order.ID)
		assert.Equal(t, models.OrderStatusCancelled, got.Status)
		assert.Empty(t, got.Items)
	})

	t.Run("Success - paid is terminal", func(t *testing.T) {
		store := memory.New()
		order := newOrder(store)

		ok, err := store.MarkPaid(ctx, order.ID, "pi_1")
		require.NoError(t, err)
		assert.True(t, ok)

		cancelled, err := store.CancelOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.False(t, cancelled)

		again, err := store.MarkPaid(ctx, order.ID, "pi_2")
		require.NoError(t, err)
		assert.False(t, again)

		got, _ := store.GetOrderByID(ctx, order.ID)
		assert.Equal(t, models.OrderStatusPaid, got.Status)
		assert.Equal(t, "pi_1", got.PaymentReference)
		assert.Len(t, got.Items, 1)
	})
}

func TestFulfillOrder(t *testing.T) {
	ctx := t.Context()
	store := memory.New()
	userID := uuid.New()
	productID := seedProduct(store, map[models.Size]int{models.SizeM: 1})

	require.NoError(t, store.AddCartLine(ctx, &models.CartLine{ID: uuid.New(), UserID: userID, ProductID: productID, Size: models.SizeM, Quantity: 2}))
	require.NoError(t, store.AddCartLine(ctx, &models.CartLine{ID: uuid.New(), UserID: userID, ProductID: productID, Size: models.SizeS, Quantity: 1}))
	otherUser := uuid.New()
	require.NoError(t, store.AddCartLine(ctx, &models.CartLine{ID: uuid.New(), UserID: otherUser, ProductID: productID, Size: models.SizeM, Quantity: 1}))

	order := &models.Order{
		ID:     uuid.New(),
		UserID: userID,
		Status: models.OrderStatusPending,
		Items:  []models.OrderItem{{ID: uuid.New(), ProductID: productID, Size: models.SizeM, Quantity: 2}},
	}
	require.NoError(t, store.CreateOrder(ctx, order))

	t.Run("Success - pending order is not fulfilled", func(t *testing.T) {
		result, err := store.FulfillOrder(ctx, order)

		require.NoError(t, err)
		assert.False(t, result.Claimed)
	})

	_, err := store.MarkPaid(ctx, order.ID, "pi_1")
	require.NoError(t, err)

	t.Run("Success - shortfall recorded, cart cleared", func(t *testing.T) {
		result, err := store.FulfillOrder(ctx, order)

		require.NoError(t, err)
		assert.True(t, result.Claimed)
		require.Len(t, result.Shortfalls, 1)
		assert.Equal(t, int64(2), result.CartLinesRemoved)
		assert.Len(t, store.StockExceptions(), 1)

		lines, err := store.GetCartLines(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, lines)
		others, err := store.GetCartLines(ctx, otherUser)
		require.NoError(t, err)
		assert.Len(t, others, 1)

		level, _ := store.GetStockLevel(ctx, productID, models.SizeM)
		assert.Equal(t, 1, level)
	})

	t.Run("Success - replay is a no-op", func(t *testing.T) {
		result, err := store.FulfillOrder(ctx, order)

		require.NoError(t, err)
		assert.False(t, result.Claimed)
		assert.Len(t, store.StockExceptions(), 1)
	})
}

func TestLowStockSizes(t *testing.T) {
	store := memory.New()
	productID := seedProduct(store, map[models.Size]int{models.SizeS: 9, models.SizeM: 10, models.SizeXL: 0})

	sizes, err := store.LowStockSizes(t.Context(), productID, 10)

	require.NoError(t, err)
	assert.Equal(t, []models.Size{models.SizeS, models.SizeXL}, sizes)
}

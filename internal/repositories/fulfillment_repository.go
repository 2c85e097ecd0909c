package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

// FulfillmentRepository applies the post-payment side effects of an order.
type FulfillmentRepository interface {
	FulfillOrder(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error)
}

type fulfillmentRepository struct {
	DB *sql.DB
}

func NewFulfillmentRepository(db *sql.DB) FulfillmentRepository {
	return &fulfillmentRepository{DB: db}
}

// FulfillOrder claims the order's fulfilled marker, decrements stock for every
// item and empties the buyer's cart, all in one transaction.
//
// If the marker was already claimed nothing else happens and Claimed is false.
// A decrement that would go below zero is recorded as a stock exception and
// does not abort the transaction.
func (r *fulfillmentRepository) FulfillOrder(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	claimQuery := `
		UPDATE orders SET fulfilled_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'paid' AND fulfilled_at IS NULL
	`
	exceptionQuery := `
		INSERT INTO stock_exceptions (id, order_id, product_id, size, requested, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	cartQuery := `DELETE FROM cart_lines WHERE user_id = $1`

	result := &models.FulfillmentResult{}

	err := withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		claim, err := tx.ExecContext(dbCtx, claimQuery, order.ID)
		if err != nil {
			return fmt.Errorf("failed to claim fulfillment: %w", err)
		}

		claimed, err := claim.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get updated rows: %w", err)
		}

		if claimed == 0 {
			return nil
		}

		result.Claimed = true
		seen := make(map[uuid.UUID]bool)

		for _, item := range order.Items {

			err := decrementStock(dbCtx, tx, item.ProductID, item.Size, item.Quantity)

			switch {
			case errors.Is(err, ErrInsufficientStock):
				exception := models.StockException{
					ID:        uuid.New(),
					OrderID:   order.ID,
					ProductID: item.ProductID,
					Size:      item.Size,
					Requested: item.Quantity,
					CreatedAt: time.Now(),
				}

				if _, err := tx.ExecContext(dbCtx, exceptionQuery, exception.ID, exception.OrderID, exception.ProductID, exception.Size, exception.Requested); err != nil {
					return fmt.Errorf("failed to record stock exception: %w", err)
				}

				result.Shortfalls = append(result.Shortfalls, exception)
			case err != nil:
				return err
			}

			if !seen[item.ProductID] {
				seen[item.ProductID] = true
				result.AffectedProducts = append(result.AffectedProducts, item.ProductID)
			}
		}

		deleted, err := tx.ExecContext(dbCtx, cartQuery, order.UserID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		if n, err := deleted.RowsAffected(); err == nil {
			result.CartLinesRemoved = n
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

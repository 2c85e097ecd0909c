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

// OrderRepository is the order ledger. Status transitions are conditional
// updates so concurrent callers cannot both win the same transition.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error
	MarkPaid(ctx context.Context, id uuid.UUID, paymentReference string) (bool, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (bool, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Order, error)
	ListUnfulfilledPaid(ctx context.Context, paidBefore time.Time, limit int) ([]models.Order, error)
}

type orderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{DB: db}
}

const orderColumns = `id, user_id, status, total_price, currency, payment_session_id, payment_reference, fulfilled_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {

	order := &models.Order{}
	var fulfilledAt sql.NullTime

	err := row.Scan(&order.ID, &order.UserID, &order.Status, &order.TotalPrice, &order.Currency,
		&order.PaymentSessionID, &order.PaymentReference, &fulfilledAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if fulfilledAt.Valid {
		t := fulfilledAt.Time
		order.FulfilledAt = &t
	}

	return order, nil
}

// CreateOrder inserts the order and all of its items in one transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_price, currency, payment_session_id, payment_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, size, quantity, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	return withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		err := tx.QueryRowContext(dbCtx, orderQuery, order.ID, order.UserID, order.Status, order.TotalPrice,
			order.Currency, order.PaymentSessionID, order.PaymentReference).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for i := range order.Items {
			item := &order.Items[i]
			item.OrderID = order.ID
			item.CreatedAt = order.CreatedAt

			_, err := tx.ExecContext(dbCtx, itemQuery, item.ID, order.ID, item.ProductID, item.ProductName, item.Size, item.Quantity, item.UnitPrice)
			if err != nil {
				return fmt.Errorf("failed to insert an order item: %w", err)
			}
		}

		return nil
	})
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.DB.QueryRowContext(dbCtx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get the order: %w", err)
	}

	items, err := r.getOrderItems(dbCtx, id)
	if err != nil {
		return nil, err
	}

	order.Items = items

	return order, nil
}

func (r *orderRepository) getOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {

	query := `
		SELECT id, product_id, product_name, size, quantity, unit_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get the order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}

	for rows.Next() {
		item := models.OrderItem{OrderID: orderID}

		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName, &item.Size, &item.Quantity, &item.UnitPrice, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over order items: %w", err)
	}

	return items, nil
}

// ListOrdersByUser returns one page of the user's orders, newest first, with items.
func (r *orderRepository) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var total int
	countQuery := `SELECT COUNT(*) FROM orders WHERE user_id = $1`
	if err := r.DB.QueryRowContext(dbCtx, countQuery, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * size

	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	orders, err := r.queryOrders(dbCtx, query, userID, size, offset)
	if err != nil {
		return nil, 0, err
	}

	for i := range orders {
		items, err := r.getOrderItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
		orders[i].Items = items
	}

	return orders, total, nil
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan the orders: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET payment_session_id = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.DB.ExecContext(dbCtx, query, sessionID, id)
	if err != nil {
		return fmt.Errorf("failed to set payment session: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updated == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkPaid moves a pending order to paid. It returns false, without error,
// when the order was not pending.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, paymentReference string) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE orders SET status = 'paid', payment_reference = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.DB.ExecContext(dbCtx, query, paymentReference, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get updated rows: %w", err)
	}

	return updated == 1, nil
}

// CancelOrder moves a pending order to cancelled and deletes its items in the
// same transaction. It returns false when the order was not pending.
func (r *orderRepository) CancelOrder(ctx context.Context, id uuid.UUID) (bool, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	statusQuery := `
		UPDATE orders SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`
	itemsQuery := `DELETE FROM order_items WHERE order_id = $1`

	var cancelled bool

	err := withTx(dbCtx, r.DB, func(tx *sql.Tx) error {

		result, err := tx.ExecContext(dbCtx, statusQuery, id)
		if err != nil {
			return fmt.Errorf("failed to cancel order: %w", err)
		}

		updated, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get updated rows: %w", err)
		}

		if updated == 0 {
			return nil
		}

		if _, err := tx.ExecContext(dbCtx, itemsQuery, id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		cancelled = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return cancelled, nil
}

func (r *orderRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2`

	return r.queryOrders(dbCtx, query, createdBefore, limit)
}

// ListUnfulfilledPaid returns paid orders whose fulfillment never ran, with items.
func (r *orderRepository) ListUnfulfilledPaid(ctx context.Context, paidBefore time.Time, limit int) ([]models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = 'paid' AND fulfilled_at IS NULL AND updated_at < $1 ORDER BY updated_at LIMIT $2`

	orders, err := r.queryOrders(dbCtx, query, paidBefore, limit)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.getOrderItems(dbCtx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

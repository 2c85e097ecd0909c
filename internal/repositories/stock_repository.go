package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

// StockRepository is the per-(product, size) inventory counter.
type StockRepository interface {
	GetStockLevel(ctx context.Context, productID uuid.UUID, size models.Size) (int, error)
	CommitDecrement(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) error
	LowStockSizes(ctx context.Context, productID uuid.UUID, threshold int) ([]models.Size, error)
}

type stockRepository struct {
	DB *sql.DB
}

func NewStockRepository(db *sql.DB) StockRepository {
	return &stockRepository{DB: db}
}

// The quantity guard makes the check and the write one atomic statement.
const decrementStockQuery = `
		UPDATE product_stock SET quantity = quantity - $3
		WHERE product_id = $1 AND size = $2 AND quantity >= $3
	`

func decrementStock(ctx context.Context, db execer, productID uuid.UUID, size models.Size, quantity int) error {

	result, err := db.ExecContext(ctx, decrementStockQuery, productID, size, quantity)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updated == 0 {
		return ErrInsufficientStock
	}

	return nil
}

func (r *stockRepository) GetStockLevel(ctx context.Context, productID uuid.UUID, size models.Size) (int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT quantity FROM product_stock WHERE product_id = $1 AND size = $2`

	var quantity int

	if err := r.DB.QueryRowContext(dbCtx, query, productID, size).Scan(&quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get stock level: %w", err)
	}

	return quantity, nil
}

// CommitDecrement subtracts quantity or returns ErrInsufficientStock leaving the counter untouched.
func (r *stockRepository) CommitDecrement(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	return decrementStock(dbCtx, r.DB, productID, size, quantity)
}

func (r *stockRepository) LowStockSizes(ctx context.Context, productID uuid.UUID, threshold int) ([]models.Size, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT size FROM product_stock
		WHERE product_id = $1 AND quantity < $2
		ORDER BY array_position(ARRAY['XS', 'S', 'M', 'L', 'XL']::varchar[], size)
	`

	rows, err := r.DB.QueryContext(dbCtx, query, productID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock sizes: %w", err)
	}
	defer rows.Close()

	sizes := []models.Size{}

	for rows.Next() {
		var size models.Size
		if err := rows.Scan(&size); err != nil {
			return nil, fmt.Errorf("failed to scan size: %w", err)
		}
		sizes = append(sizes, size)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over sizes: %w", err)
	}

	return sizes, nil
}

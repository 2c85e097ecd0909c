package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProductRepository is a read-only view of the catalog. Products and their
// per-size stock are owned by the catalog service.
type ProductRepository interface {
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	products, err := r.GetProductsByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	product, ok := products[id]
	if !ok {
		return nil, ErrNotFound
	}

	return product, nil
}

func (r *productRepository) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {

	products := make(map[uuid.UUID]*models.Product, len(ids))

	if len(ids) == 0 {
		return products, nil
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query := `
		SELECT id, name, price, created_at, updated_at
		FROM products
		WHERE id = ANY($1::uuid[])
	`

	rows, err := r.DB.QueryContext(dbCtx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product := &models.Product{Stock: make(map[models.Size]int)}

		if err := rows.Scan(&product.ID, &product.Name, &product.Price, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		products[product.ID] = product
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over products: %w", err)
	}

	stockQuery := `
		SELECT product_id, size, quantity
		FROM product_stock
		WHERE product_id = ANY($1::uuid[])
	`

	stockRows, err := r.DB.QueryContext(dbCtx, stockQuery, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to query product stock: %w", err)
	}
	defer stockRows.Close()

	for stockRows.Next() {
		var (
			productID uuid.UUID
			size      models.Size
			quantity  int
		)

		if err := stockRows.Scan(&productID, &size, &quantity); err != nil {
			return nil, fmt.Errorf("failed to scan product stock: %w", err)
		}

		if product, ok := products[productID]; ok {
			product.Stock[size] = quantity
		}
	}

	if err := stockRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over product stock: %w", err)
	}

	return products, nil
}

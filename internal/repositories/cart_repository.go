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

type CartRepository interface {
	GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
	GetCartLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error)
	AddCartLine(ctx context.Context, line *models.CartLine) error
	UpdateCartLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error)
	RemoveCartLine(ctx context.Context, userID, lineID uuid.UUID) error
}

type cartRepository struct {
	DB *sql.DB
}

func NewCartRepo(db *sql.DB) CartRepository {
	return &cartRepository{DB: db}
}

func (r *cartRepository) GetCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, product_id, size, quantity, created_at, updated_at
		FROM cart_lines
		WHERE user_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.DB.QueryContext(dbCtx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}

	for rows.Next() {
		line := models.CartLine{UserID: userID}

		if err := rows.Scan(&line.ID, &line.ProductID, &line.Size, &line.Quantity, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over cart lines: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) GetCartLine(ctx context.Context, userID, lineID uuid.UUID) (*models.CartLine, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		SELECT product_id, size, quantity, created_at, updated_at
		FROM cart_lines
		WHERE id = $1 AND user_id = $2
	`

	line := &models.CartLine{ID: lineID, UserID: userID}

	err := r.DB.QueryRowContext(dbCtx, query, lineID, userID).Scan(&line.ProductID, &line.Size, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart line: %w", err)
	}

	return line, nil
}

// AddCartLine inserts a line or, when the user already holds the same
// (product, size), increments its quantity. line is updated with the stored row.
func (r *cartRepository) AddCartLine(ctx context.Context, line *models.CartLine) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO cart_lines (id, user_id, product_id, size, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, product_id, size)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at
	`

	err := r.DB.QueryRowContext(dbCtx, query, line.ID, line.UserID, line.ProductID, line.Size, line.Quantity).
		Scan(&line.ID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", err)
	}

	return nil
}

func (r *cartRepository) UpdateCartLineQuantity(ctx context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE cart_lines SET quantity = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING product_id, size, quantity, created_at, updated_at
	`

	line := &models.CartLine{ID: lineID, UserID: userID}

	err := r.DB.QueryRowContext(dbCtx, query, quantity, lineID, userID).Scan(&line.ProductID, &line.Size, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update cart line: %w", err)
	}

	return line, nil
}

func (r *cartRepository) RemoveCartLine(ctx context.Context, userID, lineID uuid.UUID) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	result, err := r.DB.ExecContext(dbCtx, query, lineID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get deleted rows: %w", err)
	}

	if deleted == 0 {
		return ErrNotFound
	}

	return nil
}

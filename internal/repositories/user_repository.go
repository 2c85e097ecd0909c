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

type UserRepository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListAdminEmails(ctx context.Context) ([]string, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

func (r *userRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	user := &models.User{}
	query := `SELECT id, email, name, is_admin, created_at, updated_at
			  FROM users
			  WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).Scan(&user.ID, &user.Email, &user.Name, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *userRepository) ListAdminEmails(ctx context.Context) ([]string, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.DB.QueryContext(dbCtx, `SELECT email FROM users WHERE is_admin = TRUE ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	emails := []string{}

	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan admin email: %w", err)
		}
		emails = append(emails, email)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over admins: %w", err)
	}

	return emails, nil
}

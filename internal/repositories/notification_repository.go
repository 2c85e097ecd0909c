package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error
}

type notificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepo(db *sql.DB) NotificationRepository {
	return &notificationRepository{DB: db}
}

func (r *notificationRepository) CreateNotification(ctx context.Context, notification *models.Notification) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO notifications (id, type, kind, correlation_id, recipient, subject, content, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`

	_, err := r.DB.ExecContext(dbCtx, query, notification.ID, notification.Type, notification.Kind, notification.CorrelationID,
		notification.Recipient, notification.Subject, notification.Content, notification.Status, notification.Error)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// UpdateNotificationStatus records the delivery outcome; sent_at is stamped on success.
func (r *notificationRepository) UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE notifications
		SET status = $1, error_message = $2, updated_at = NOW(),
		    sent_at = CASE WHEN $1 = 'sent' THEN NOW() ELSE sent_at END
		WHERE id = $3
	`

	result, err := r.DB.ExecContext(dbCtx, query, status, errorMsg, id)
	if err != nil {
		return fmt.Errorf("failed to update the notification status: %w", err)
	}

	updatedRows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get updated rows: %w", err)
	}

	if updatedRows == 0 {
		return fmt.Errorf("notification %s: %w", id, ErrNotFound)
	}

	return nil
}

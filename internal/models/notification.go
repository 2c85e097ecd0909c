package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeEmail NotificationType = "email"
)

// NotificationKind says which alert produced the message.
type NotificationKind string

const (
	NotificationKindLowStock NotificationKind = "low_stock"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

// Notification is the delivery record of one alert mail to one recipient.
// Every recipient of the same alert shares its CorrelationID.
type Notification struct {
	ID            uuid.UUID          `json:"id"`
	Type          NotificationType   `json:"type"`
	Kind          NotificationKind   `json:"kind"`
	CorrelationID string             `json:"correlation_id"`
	Recipient     string             `json:"recipient"`
	Subject       string             `json:"subject,omitempty"`
	Content       string             `json:"content"`
	Status        NotificationStatus `json:"status"`
	Error         string             `json:"error,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	SentAt        *time.Time         `json:"sent_at,omitempty"`
}

package models

import "github.com/google/uuid"

type CheckoutResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	RedirectURL string    `json:"redirect_url"`
}

type CheckoutResultResponse struct {
	Order   *Order `json:"order"`
	Message string `json:"message"`
}

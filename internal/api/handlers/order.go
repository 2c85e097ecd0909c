package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// GetOrder godoc
//	@Summary		Get an order by ID
//	@Description	Retrieves an order placed by the authenticated user.
//	@Tags			Orders
//	@Produce		json
//	@Param			id	path		string					true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Order			"Order"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid order ID format"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Forbidden - User does not own this order"
//	@Failure		404	{object}	response.ErrorResponse	"Order not found"
//	@Security		BearerAuth
//	@Router			/orders/{id} [get]
func (h *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order access attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid order id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("orderId", id.String()))

		order, err := h.orderService.GetOrderByID(r.Context(), id)
		if err != nil {
			logger.Error("Failed to get order", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if order.UserID != claims.UserID {
			logger.Warn("Attempted to access another user's order",
				slog.String("requesterId", claims.UserID.String()),
				slog.String("ownerId", order.UserID.String()))
			response.Error(w, errors.ForbiddenError("You don't have permission to access this order"))
			return
		}

		response.Success(w, http.StatusOK, order)
	}
}

// ListOrders godoc
//	@Summary		List the user's orders
//	@Description	Newest first. Size is capped at 10.
//	@Tags			Orders
//	@Produce		json
//	@Param			page	query		int							false	"Page number (default: 1)"	minimum(1)
//	@Param			size	query		int							false	"Page size (default: 10)"	minimum(1)	maximum(10)
//	@Success		200		{object}	models.OrderHistoryResponse	"Orders"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		500		{object}	response.ErrorResponse		"Internal server error"
//	@Security		BearerAuth
//	@Router			/orders [get]
func (h *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized order list attempt: missing user claims")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		page, size := utils.ParsePage(r)

		history, err := h.orderService.ListOrdersByUser(r.Context(), claims.UserID, page, size)
		if err != nil {
			logger.Error("Failed to list orders", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Orders listed successfully", slog.Int("count", len(history.Orders)), slog.Int("total", history.Total))
		response.Success(w, http.StatusOK, history)
	}
}

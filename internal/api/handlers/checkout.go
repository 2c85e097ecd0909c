package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/google/uuid"
)

const (
	CartPath = "/api/v1/carts"

	maxWebhookBytes = 64 << 10
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
}

func NewCheckoutHandler(checkoutService service.CheckoutService, orderService service.OrderService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, orderService: orderService}
}

// Checkout godoc
//	@Summary		Check out the current cart
//	@Description	Creates a pending order from the cart and redirects to the hosted payment page. An empty cart redirects back to the cart.
//	@Tags			Checkout
//	@Success		303	"Redirect to the payment page, or to the cart when it is empty"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409	{object}	response.ErrorResponse	"Not enough stock"
//	@Failure		429	{object}	response.ErrorResponse	"Too many checkout attempts"
//	@Failure		500	{object}	response.ErrorResponse	"Order could not be stored"
//	@Failure		502	{object}	response.ErrorResponse	"Payment could not be started"
//	@Security		BearerAuth
//	@Router			/checkout [post]
func (h *CheckoutHandler) Checkout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized checkout attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		logger = logger.With(slog.String("userId", claims.UserID.String()))

		result, err := h.checkoutService.Checkout(r.Context(), claims)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeEmptyCart) {
				logger.Info("Checkout with an empty cart, redirecting to cart")
				http.Redirect(w, r, CartPath, http.StatusSeeOther)
				return
			}

			logger.Error("Checkout failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Redirecting to payment page", slog.String("orderId", result.OrderID.String()))
		http.Redirect(w, r, result.RedirectURL, http.StatusSeeOther)
	}
}

// CheckoutSuccess godoc
//	@Summary		Payment success callback
//	@Description	Landing route after payment. Confirms the payment with the gateway, marks the order paid and fulfills it. Safe to repeat.
//	@Tags			Checkout
//	@Produce		json
//	@Param			id	path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.CheckoutResultResponse	"Paid order"
//	@Failure		403	{object}	response.ErrorResponse			"Forbidden - User does not own this order"
//	@Failure		404	{object}	response.ErrorResponse			"Order not found"
//	@Failure		409	{object}	response.ErrorResponse			"Payment not confirmed or order cancelled"
//	@Security		BearerAuth
//	@Router			/checkout/success/{id} [get]
func (h *CheckoutHandler) CheckoutSuccess() http.HandlerFunc {
	return h.callback("success", "Payment received, thank you for your order",
		func(r *http.Request, id uuid.UUID) (*models.Order, error) {
			return h.checkoutService.HandleSuccess(r.Context(), id)
		})
}

// CheckoutCancel godoc
//	@Summary		Payment cancel callback
//	@Description	Landing route when the buyer abandons payment. Cancels the pending order and keeps the cart.
//	@Tags			Checkout
//	@Produce		json
//	@Param			id	path		string							true	"Order ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.CheckoutResultResponse	"Cancelled order"
//	@Failure		403	{object}	response.ErrorResponse			"Forbidden - User does not own this order"
//	@Failure		404	{object}	response.ErrorResponse			"Order not found"
//	@Failure		409	{object}	response.ErrorResponse			"Order already paid"
//	@Security		BearerAuth
//	@Router			/checkout/cancel/{id} [get]
func (h *CheckoutHandler) CheckoutCancel() http.HandlerFunc {
	return h.callback("cancel", "Payment cancelled, your cart has been kept",
		func(r *http.Request, id uuid.UUID) (*models.Order, error) {
			return h.checkoutService.HandleCancel(r.Context(), id)
		})
}

func (h *CheckoutHandler) callback(outcome, message string, handle func(*http.Request, uuid.UUID) (*models.Order, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context()).With(slog.String("outcome", outcome))

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized checkout callback")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		logger = logger.With(slog.String("orderId", id.String()))

		order, err := h.orderService.GetOrderByID(r.Context(), id)
		if err != nil {
			response.Error(w, err)
			return
		}

		if order.UserID != claims.UserID {
			logger.Warn("Checkout callback for another user's order", slog.String("requesterId", claims.UserID.String()))
			response.Error(w, errors.ForbiddenError("You don't have permission to access this order"))
			return
		}

		order, err = handle(r, id)
		if err != nil {
			logger.Warn("Checkout callback failed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.CheckoutResultResponse{Order: order, Message: message})
	}
}

// Webhook godoc
//	@Summary		Stripe webhook
//	@Description	Receives checkout.session.completed and checkout.session.expired events. The Stripe-Signature header is verified.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]bool			"Event accepted"
//	@Failure		400	{object}	response.ErrorResponse	"Invalid signature or payload"
//	@Router			/payments/webhook [post]
func (h *CheckoutHandler) Webhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
		if err != nil {
			logger.Warn("Failed to read webhook body", slog.String("error", err.Error()))
			response.Error(w, errors.BadRequestError("Invalid webhook payload").WithError(err))
			return
		}

		if err := h.checkoutService.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, map[string]bool{"received": true})
	}
}

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cartService service.CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService, validator: validator.New()}
}

// GetCart godoc
//	@Summary		Get the current user's cart
//	@Description	Returns the cart priced at current catalog prices. Requires authentication.
//	@Tags			Carts
//	@Produce		json
//	@Success		200	{object}	models.Cart				"Cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/carts [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized cart access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		cart, err := h.cartService.GetCart(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to get cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// AddItem godoc
//	@Summary		Add an item to the cart
//	@Description	Adds a product in a given size. Adding the same product and size again increases the quantity.
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddCartLineRequest	true	"Product, size and quantity"
//	@Success		200		{object}	models.Cart					"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Product not found"
//	@Failure		409		{object}	response.ErrorResponse		"Not enough stock"
//	@Security		BearerAuth
//	@Router			/carts/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized add to cart attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddCartLineRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add to cart input")
			return
		}

		cart, err := h.cartService.AddItem(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to add item to cart", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// UpdateItem godoc
//	@Summary		Change the quantity of a cart line
//	@Tags			Carts
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Cart line ID (UUID)"	Format(uuid)
//	@Param			item	body		models.UpdateCartLineRequest	true	"New quantity"
//	@Success		200		{object}	models.Cart					"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Cart line not found"
//	@Security		BearerAuth
//	@Router			/carts/items/{id} [put]
func (h *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized cart update attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		lineID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		var req models.UpdateCartLineRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid cart update input")
			return
		}

		cart, err := h.cartService.UpdateItem(r.Context(), claims.UserID, lineID, &req)
		if err != nil {
			logger.Error("Failed to update cart line",
				slog.String("lineId", lineID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

// RemoveItem godoc
//	@Summary		Remove a cart line
//	@Tags			Carts
//	@Produce		json
//	@Param			id	path		string					true	"Cart line ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.Cart				"Updated cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Cart line not found"
//	@Security		BearerAuth
//	@Router			/carts/items/{id} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := middleware.UserFromContext(r.Context())
		if !ok {
			logger.Warn("Unauthorized cart removal attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		lineID, err := utils.ParseID(r, "id")
		if err != nil {
			response.Error(w, err)
			return
		}

		cart, err := h.cartService.RemoveItem(r.Context(), claims.UserID, lineID)
		if err != nil {
			logger.Error("Failed to remove cart line",
				slog.String("lineId", lineID.String()),
				slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, cart)
	}
}

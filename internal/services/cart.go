package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartLineRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, lineID uuid.UUID, req *models.UpdateCartLineRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error)
	Snapshot(ctx context.Context, userID uuid.UUID) (*models.PricingSnapshot, error)
}

type cartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository) CartService {
	return &cartService{carts: carts, products: products}
}

// GetCart prices the cart at current catalog prices. Lines whose product has
// left the catalog are skipped.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	logger := middleware.LoggerFromContext(ctx)

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	lines, err := s.carts.GetCartLines(dbCtx, userID)
	if err != nil {
		logger.Error("Failed to load cart lines", slog.String("error", err.Error()))
		return nil, appErrors.PersistenceError("Failed to load cart").WithError(err)
	}

	cart := &models.Cart{UserID: userID, Lines: make([]models.CartLineView, 0, len(lines)), Total: decimal.Zero}

	if len(lines) == 0 {
		return cart, nil
	}

	products, err := s.products.GetProductsByIDs(dbCtx, productIDs(lines))
	if err != nil {
		logger.Error("Failed to load cart products", slog.String("error", err.Error()))
		return nil, appErrors.PersistenceError("Failed to load cart").WithError(err)
	}

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			logger.Warn("Cart line references unknown product", slog.String("productId", line.ProductID.String()))
			continue
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		cart.Lines = append(cart.Lines, models.CartLineView{
			CartLine:    line,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			LineTotal:   lineTotal,
		})
		cart.Total = cart.Total.Add(lineTotal)
	}

	return cart, nil
}

// AddItem merges into an existing (product, size) line when there is one.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartLineRequest) (*models.Cart, error) {

	logger := middleware.LoggerFromContext(ctx)

	if !req.Size.Valid() {
		return nil, appErrors.AddValidationError("size", "unknown size "+string(req.Size))
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	product, err := s.products.GetProductByID(dbCtx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.NotFoundError("Product not found")
		}
		return nil, appErrors.PersistenceError("Failed to load product").WithError(err)
	}

	lines, err := s.carts.GetCartLines(dbCtx, userID)
	if err != nil {
		logger.Error("Failed to load cart lines", slog.String("error", err.Error()))
		return nil, appErrors.PersistenceError("Failed to load cart").WithError(err)
	}

	// the merged line must still fit in stock
	wanted := req.Quantity
	for _, existing := range lines {
		if existing.ProductID == req.ProductID && existing.Size == req.Size {
			wanted += existing.Quantity
		}
	}

	if err := checkStock(product, req.Size, wanted); err != nil {
		return nil, err
	}

	now := time.Now()
	line := &models.CartLine{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: req.ProductID,
		Size:      req.Size,
		Quantity:  req.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.carts.AddCartLine(dbCtx, line); err != nil {
		logger.Error("Failed to add cart line", slog.String("error", err.Error()))
		return nil, appErrors.PersistenceError("Failed to update cart").WithError(err)
	}

	logger.Info("Cart line added",
		slog.String("productId", line.ProductID.String()),
		slog.String("size", string(line.Size)),
		slog.Int("quantity", line.Quantity))

	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, lineID uuid.UUID, req *models.UpdateCartLineRequest) (*models.Cart, error) {

	if req.Quantity < 1 {
		return nil, appErrors.AddValidationError("quantity", "must be at least 1")
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	line, err := s.carts.GetCartLine(dbCtx, userID, lineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.NotFoundError("Cart line not found")
		}
		return nil, appErrors.PersistenceError("Failed to load cart").WithError(err)
	}

	product, err := s.products.GetProductByID(dbCtx, line.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.NotFoundError("Product not found")
		}
		return nil, appErrors.PersistenceError("Failed to load product").WithError(err)
	}

	if err := checkStock(product, line.Size, req.Quantity); err != nil {
		return nil, err
	}

	if _, err := s.carts.UpdateCartLineQuantity(dbCtx, userID, lineID, req.Quantity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.NotFoundError("Cart line not found")
		}
		return nil, appErrors.PersistenceError("Failed to update cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, lineID uuid.UUID) (*models.Cart, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if err := s.carts.RemoveCartLine(dbCtx, userID, lineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.NotFoundError("Cart line not found")
		}
		return nil, appErrors.PersistenceError("Failed to update cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

// Snapshot freezes the cart at current prices for checkout.
func (s *cartService) Snapshot(ctx context.Context, userID uuid.UUID) (*models.PricingSnapshot, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	lines, err := s.carts.GetCartLines(dbCtx, userID)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to load cart").WithError(err)
	}

	if len(lines) == 0 {
		return nil, appErrors.EmptyCartError("Cart is empty")
	}

	products, err := s.products.GetProductsByIDs(dbCtx, productIDs(lines))
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to load cart products").WithError(err)
	}

	return pricing.BuildSnapshot(lines, products)
}

func checkStock(product *models.Product, size models.Size, quantity int) error {
	if product.StockFor(size) < quantity {
		return appErrors.InsufficientStockError("Not enough stock for the selected size").
			WithDetail(product.Name + " " + string(size))
	}

	return nil
}

func productIDs(lines []models.CartLine) []uuid.UUID {

	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))

	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	return ids
}

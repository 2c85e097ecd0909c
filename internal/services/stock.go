package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

// StockService is the per-size inventory ledger. Quantities never go below zero.
type StockService interface {
	CheckAvailability(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) (bool, error)
	CommitDecrement(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) error
	LowStockSizes(ctx context.Context, productID uuid.UUID, threshold int) ([]models.Size, error)
	LowStockReport(ctx context.Context, productIDs []uuid.UUID) ([]models.LowStockProduct, error)
}

type stockService struct {
	stock     repository.StockRepository
	products  repository.ProductRepository
	threshold int
}

func NewStockService(stock repository.StockRepository, products repository.ProductRepository, threshold int) StockService {
	return &stockService{stock: stock, products: products, threshold: threshold}
}

func (s *stockService) CheckAvailability(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) (bool, error) {

	if !size.Valid() || quantity < 1 {
		return false, appErrors.ValidationError("Invalid size or quantity")
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	level, err := s.stock.GetStockLevel(dbCtx, productID, size)
	if err != nil {
		return false, appErrors.PersistenceError("Failed to read stock").WithError(err)
	}

	return level >= quantity, nil
}

func (s *stockService) CommitDecrement(ctx context.Context, productID uuid.UUID, size models.Size, quantity int) error {

	if !size.Valid() || quantity < 1 {
		return appErrors.ValidationError("Invalid size or quantity")
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if err := s.stock.CommitDecrement(dbCtx, productID, size, quantity); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return appErrors.InsufficientStockError("Not enough stock").
				WithDetail(productID.String() + " " + string(size))
		}
		return appErrors.PersistenceError("Failed to update stock").WithError(err)
	}

	return nil
}

// LowStockSizes lists sizes whose quantity is strictly below threshold.
func (s *stockService) LowStockSizes(ctx context.Context, productID uuid.UUID, threshold int) ([]models.Size, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	sizes, err := s.stock.LowStockSizes(dbCtx, productID, threshold)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to read stock").WithError(err)
	}

	return sizes, nil
}

// LowStockReport checks each product against the configured threshold and
// returns those with at least one low size. Products that fail to load are
// logged and left out.
func (s *stockService) LowStockReport(ctx context.Context, productIDs []uuid.UUID) ([]models.LowStockProduct, error) {

	logger := middleware.LoggerFromContext(ctx)

	if len(productIDs) == 0 {
		return nil, nil
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	products, err := s.products.GetProductsByIDs(dbCtx, productIDs)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to load products").WithError(err)
	}

	var report []models.LowStockProduct

	for _, id := range productIDs {
		sizes, err := s.stock.LowStockSizes(dbCtx, id, s.threshold)
		if err != nil {
			logger.Error("Failed to read low stock sizes",
				slog.String("productId", id.String()),
				slog.String("error", err.Error()))
			continue
		}

		if len(sizes) == 0 {
			continue
		}

		name := id.String()
		if p, ok := products[id]; ok {
			name = p.Name
		}

		report = append(report, models.LowStockProduct{ProductID: id, Name: name, Sizes: sizes})
	}

	return report, nil
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

// pendingOrderCacheTTL keeps a pending order short-lived in the cache. Paid
// and cancelled orders are terminal and use the cache default.
const pendingOrderCacheTTL = 30 * time.Second

// OrderService is the order ledger. Status moves pending -> paid or
// pending -> cancelled, and both targets are terminal.
type OrderService interface {
	CreatePendingOrder(ctx context.Context, userID uuid.UUID, snapshot *models.PricingSnapshot) (*models.Order, error)
	AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, paymentReference string) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Fulfill(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error)
	GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) (*models.OrderHistoryResponse, error)
}

type orderService struct {
	orders      repository.OrderRepository
	fulfillment repository.FulfillmentRepository
	cache       cache.Cache
	currency    string
}

func NewOrderService(orders repository.OrderRepository, fulfillment repository.FulfillmentRepository, c cache.Cache, currency string) OrderService {
	if c == nil {
		c = cache.NewNoopCache()
	}

	return &orderService{orders: orders, fulfillment: fulfillment, cache: c, currency: currency}
}

// CreatePendingOrder writes the order and all of its items in one transaction.
func (s *orderService) CreatePendingOrder(ctx context.Context, userID uuid.UUID, snapshot *models.PricingSnapshot) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)

	if snapshot == nil || len(snapshot.Lines) == 0 {
		return nil, appErrors.EmptyCartError("Cart is empty")
	}

	now := time.Now()
	order := &models.Order{
		ID:         uuid.New(),
		UserID:     userID,
		Status:     models.OrderStatusPending,
		TotalPrice: snapshot.GrandTotal,
		Currency:   s.currency,
		Items:      make([]models.OrderItem, 0, len(snapshot.Lines)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Size:        line.Size,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			CreatedAt:   now,
		})
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if err := s.orders.CreateOrder(dbCtx, order); err != nil {
		logger.Error("Failed to create order", slog.String("error", err.Error()))
		return nil, appErrors.PersistenceError("Failed to create order").WithError(err)
	}

	logger.Info("Pending order created",
		slog.String("orderId", order.ID.String()),
		slog.String("total", order.TotalPrice.StringFixed(2)),
		slog.Int("items", len(order.Items)))

	return order, nil
}

func (s *orderService) AttachPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if err := s.orders.SetPaymentSession(dbCtx, orderID, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.InvalidTransitionError("Order is no longer pending")
		}
		return appErrors.PersistenceError("Failed to store payment session").WithError(err)
	}

	s.invalidate(ctx, orderID)

	return nil
}

// MarkPaid is a no-op for an order that is already paid.
func (s *orderService) MarkPaid(ctx context.Context, orderID uuid.UUID, paymentReference string) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	changed, err := s.orders.MarkPaid(dbCtx, orderID, paymentReference)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to mark order paid").WithError(err)
	}

	if changed {
		s.invalidate(ctx, orderID)
	}

	order, err := s.load(dbCtx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPaid {
		return nil, appErrors.InvalidTransitionError("Order cannot be marked paid").
			WithDetail("status " + string(order.Status))
	}

	return order, nil
}

// Cancel removes the order's items with the status change. Cancelling a
// cancelled order is a no-op.
func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	changed, err := s.orders.CancelOrder(dbCtx, orderID)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to cancel order").WithError(err)
	}

	if changed {
		s.invalidate(ctx, orderID)
	}

	order, err := s.load(dbCtx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusCancelled {
		return nil, appErrors.InvalidTransitionError("Order cannot be cancelled").
			WithDetail("status " + string(order.Status))
	}

	return order, nil
}

// Fulfill applies a paid order to stock and the cart once. Result.Claimed is
// false for every call after the first.
func (s *orderService) Fulfill(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error) {

	if order.Status != models.OrderStatusPaid {
		return nil, appErrors.InvalidTransitionError("Only paid orders can be fulfilled")
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	result, err := s.fulfillment.FulfillOrder(dbCtx, order)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to fulfill order").WithError(err)
	}

	if result.Claimed {
		s.invalidate(ctx, order.ID)
	}

	return result, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)
	key := cache.OrderKey(orderID)

	var cached models.Order
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("Order cache read failed", slog.String("error", err.Error()))
	}
	if found {
		return &cached, nil
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	order, err := s.load(dbCtx, orderID)
	if err != nil {
		return nil, err
	}

	var ttl time.Duration
	if order.Status == models.OrderStatusPending {
		ttl = pendingOrderCacheTTL
	}

	if err := s.cache.Set(ctx, key, order, ttl); err != nil {
		logger.Warn("Order cache write failed", slog.String("error", err.Error()))
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) (*models.OrderHistoryResponse, error) {

	if page < 1 {
		page = 1
	}

	if size < 1 || size > 10 {
		size = 10
	}

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	orders, total, err := s.orders.ListOrdersByUser(dbCtx, userID, page, size)
	if err != nil {
		return nil, appErrors.PersistenceError("Failed to fetch orders").WithError(err)
	}

	return &models.OrderHistoryResponse{Orders: orders, Total: total, Page: page, Size: size}, nil
}

func (s *orderService) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.NotFoundError("Order not found")
		}
		return nil, appErrors.PersistenceError("Failed to load order").WithError(err)
	}

	return order, nil
}

func (s *orderService) invalidate(ctx context.Context, orderID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.OrderKey(orderID)); err != nil {
		middleware.LoggerFromContext(ctx).Warn("Order cache invalidation failed",
			slog.String("orderId", orderID.String()),
			slog.String("error", err.Error()))
	}
}

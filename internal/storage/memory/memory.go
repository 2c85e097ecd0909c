// Package memory is a process-local storage driver used for local runs and
// saga tests. It honours the same atomicity rules as the Postgres driver.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/google/uuid"
)

type stockKey struct {
	productID uuid.UUID
	size      models.Size
}

type Store struct {
	mu            sync.RWMutex
	users         map[uuid.UUID]models.User
	products      map[uuid.UUID]models.Product
	cartLines     map[uuid.UUID]models.CartLine
	orders        map[uuid.UUID]models.Order
	exceptions    []models.StockException
	notifications map[uuid.UUID]models.Notification

	stockMu sync.RWMutex
	stock   map[stockKey]*atomic.Int64
}

func New() *Store {
	return &Store{
		users:         make(map[uuid.UUID]models.User),
		products:      make(map[uuid.UUID]models.Product),
		cartLines:     make(map[uuid.UUID]models.CartLine),
		orders:        make(map[uuid.UUID]models.Order),
		notifications: make(map[uuid.UUID]models.Notification),
		stock:         make(map[stockKey]*atomic.Int64),
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Users:         s,
		Products:      s,
		Carts:         s,
		Orders:        s,
		Stock:         s,
		Fulfillment:   s,
		Notifications: s,
	}
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.ID] = user
}

// PutProduct inserts or replaces a product and resets its stock counters.
func (s *Store) PutProduct(product models.Product) {
	s.mu.Lock()
	stock := product.Stock
	product.Stock = nil
	s.products[product.ID] = product
	s.mu.Unlock()

	for size, quantity := range stock {
		s.counter(product.ID, size).Store(int64(quantity))
	}
}

func (s *Store) StockExceptions() []models.StockException {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.StockException(nil), s.exceptions...)
}

// peek returns the counter of a stocked size without creating one.
func (s *Store) peek(productID uuid.UUID, size models.Size) (*atomic.Int64, bool) {
	s.stockMu.RLock()
	defer s.stockMu.RUnlock()

	c, ok := s.stock[stockKey{productID, size}]

	return c, ok
}

func (s *Store) counter(productID uuid.UUID, size models.Size) *atomic.Int64 {
	key := stockKey{productID, size}

	s.stockMu.RLock()
	c, ok := s.stock[key]
	s.stockMu.RUnlock()

	if ok {
		return c
	}

	s.stockMu.Lock()
	defer s.stockMu.Unlock()

	if c, ok = s.stock[key]; !ok {
		c = new(atomic.Int64)
		s.stock[key] = c
	}

	return c
}

// Users

func (s *Store) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &user, nil
}

func (s *Store) ListAdminEmails(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emails := []string{}
	for _, user := range s.users {
		if user.IsAdmin {
			emails = append(emails, user.Email)
		}
	}
	sort.Strings(emails)

	return emails, nil
}

// Products

func (s *Store) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	products, err := s.GetProductsByIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	product, ok := products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return product, nil
}

func (s *Store) GetProductsByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make(map[uuid.UUID]*models.Product, len(ids))

	for _, id := range ids {
		product, ok := s.products[id]
		if !ok {
			continue
		}

		product.Stock = make(map[models.Size]int)
		for _, size := range models.Sizes {
			if c, ok := s.peek(id, size); ok {
				product.Stock[size] = int(c.Load())
			}
		}

		products[id] = &product
	}

	return products, nil
}

// Carts

func (s *Store) GetCartLines(_ context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := []models.CartLine{}
	for _, line := range s.cartLines {
		if line.UserID == userID {
			lines = append(lines, line)
		}
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].ID.String() < lines[j].ID.String()
		}
		return lines[i].CreatedAt.Before(lines[j].CreatedAt)
	})

	return lines, nil
}

func (s *Store) GetCartLine(_ context.Context, userID, lineID uuid.UUID) (*models.CartLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	line, ok := s.cartLines[lineID]
	if !ok || line.UserID != userID {
		return nil, repository.ErrNotFound
	}

	return &line, nil
}

func (s *Store) AddCartLine(_ context.Context, line *models.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	for id, existing := range s.cartLines {
		if existing.UserID == line.UserID && existing.ProductID == line.ProductID && existing.Size == line.Size {
			existing.Quantity += line.Quantity
			existing.UpdatedAt = now
			s.cartLines[id] = existing
			*line = existing
			return nil
		}
	}

	line.CreatedAt = now
	line.UpdatedAt = now
	s.cartLines[line.ID] = *line

	return nil
}

func (s *Store) UpdateCartLineQuantity(_ context.Context, userID, lineID uuid.UUID, quantity int) (*models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cartLines[lineID]
	if !ok || line.UserID != userID {
		return nil, repository.ErrNotFound
	}

	line.Quantity = quantity
	line.UpdatedAt = time.Now()
	s.cartLines[lineID] = line

	return &line, nil
}

func (s *Store) RemoveCartLine(_ context.Context, userID, lineID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := s.cartLines[lineID]
	if !ok || line.UserID != userID {
		return repository.ErrNotFound
	}

	delete(s.cartLines, lineID)

	return nil
}

// Orders

func cloneOrder(order models.Order) *models.Order {
	order.Items = append([]models.OrderItem(nil), order.Items...)
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	if order.FulfilledAt != nil {
		t := *order.FulfilledAt
		order.FulfilledAt = &t
	}

	return &order
}

func (s *Store) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		order.Items[i].CreatedAt = now
	}

	s.orders[order.ID] = *cloneOrder(*order)

	return nil
}

func (s *Store) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return cloneOrder(order), nil
}

func (s *Store) ListOrdersByUser(_ context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := []models.Order{}
	for _, order := range s.orders {
		if order.UserID == userID {
			all = append(all, *cloneOrder(order))
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	start := min((page-1)*size, len(all))
	end := min(start+size, len(all))

	return all[start:end], len(all), nil
}

func (s *Store) SetPaymentSession(_ context.Context, id uuid.UUID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return repository.ErrNotFound
	}

	order.PaymentSessionID = sessionID
	order.UpdatedAt = time.Now()
	s.orders[id] = order

	return nil
}

func (s *Store) MarkPaid(_ context.Context, id uuid.UUID, paymentReference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}

	order.Status = models.OrderStatusPaid
	order.PaymentReference = paymentReference
	order.UpdatedAt = time.Now()
	s.orders[id] = order

	return true, nil
}

func (s *Store) CancelOrder(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || order.Status != models.OrderStatusPending {
		return false, nil
	}

	order.Status = models.OrderStatusCancelled
	order.Items = nil
	order.UpdatedAt = time.Now()
	s.orders[id] = order

	return true, nil
}

func (s *Store) ListStalePending(_ context.Context, createdBefore time.Time, limit int) ([]models.Order, error) {
	return s.listOrders(limit, func(o models.Order) bool {
		return o.Status == models.OrderStatusPending && o.CreatedAt.Before(createdBefore)
	}), nil
}

func (s *Store) ListUnfulfilledPaid(_ context.Context, paidBefore time.Time, limit int) ([]models.Order, error) {
	return s.listOrders(limit, func(o models.Order) bool {
		return o.Status == models.OrderStatusPaid && o.FulfilledAt == nil && o.UpdatedAt.Before(paidBefore)
	}), nil
}

func (s *Store) listOrders(limit int, match func(models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []models.Order{}
	for _, order := range s.orders {
		if match(order) {
			orders = append(orders, *cloneOrder(order))
		}
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}

	return orders
}

// Stock

func (s *Store) GetStockLevel(_ context.Context, productID uuid.UUID, size models.Size) (int, error) {
	if c, ok := s.peek(productID, size); ok {
		return int(c.Load()), nil
	}

	return 0, nil
}

// CommitDecrement retries a compare-and-swap until it either applies or sees
// too little stock. The counter never goes below zero.
func (s *Store) CommitDecrement(_ context.Context, productID uuid.UUID, size models.Size, quantity int) error {
	c, ok := s.peek(productID, size)
	if !ok {
		return repository.ErrInsufficientStock
	}

	for {
		current := c.Load()
		if current < int64(quantity) {
			return repository.ErrInsufficientStock
		}

		if c.CompareAndSwap(current, current-int64(quantity)) {
			return nil
		}
	}
}

func (s *Store) LowStockSizes(_ context.Context, productID uuid.UUID, threshold int) ([]models.Size, error) {
	sizes := []models.Size{}

	for _, size := range models.Sizes {
		if c, ok := s.peek(productID, size); ok && c.Load() < int64(threshold) {
			sizes = append(sizes, size)
		}
	}

	return sizes, nil
}

// Fulfillment

func (s *Store) FulfillOrder(ctx context.Context, order *models.Order) (*models.FulfillmentResult, error) {
	result := &models.FulfillmentResult{}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok || stored.Status != models.OrderStatusPaid || stored.FulfilledAt != nil {
		return result, nil
	}

	now := time.Now()
	stored.FulfilledAt = &now
	stored.UpdatedAt = now
	s.orders[order.ID] = stored

	result.Claimed = true
	seen := make(map[uuid.UUID]bool)

	for _, item := range stored.Items {

		if err := s.CommitDecrement(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
			exception := models.StockException{
				ID:        uuid.New(),
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Size:      item.Size,
				Requested: item.Quantity,
				CreatedAt: now,
			}
			s.exceptions = append(s.exceptions, exception)
			result.Shortfalls = append(result.Shortfalls, exception)
		}

		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			result.AffectedProducts = append(result.AffectedProducts, item.ProductID)
		}
	}

	for id, line := range s.cartLines {
		if line.UserID == stored.UserID {
			delete(s.cartLines, id)
			result.CartLinesRemoved++
		}
	}

	return result, nil
}

// Notifications

func (s *Store) CreateNotification(_ context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	notification.CreatedAt = now
	notification.UpdatedAt = now
	s.notifications[notification.ID] = *notification

	return nil
}

func (s *Store) UpdateNotificationStatus(_ context.Context, id uuid.UUID, status models.NotificationStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, ok := s.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}

	now := time.Now()
	notification.Status = status
	notification.Error = errorMsg
	notification.UpdatedAt = now
	if status == models.StatusSent {
		notification.SentAt = &now
	}
	s.notifications[id] = notification

	return nil
}

func (s *Store) Notifications() []models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}

	return out
}

var (
	_ repository.UserRepository         = (*Store)(nil)
	_ repository.ProductRepository      = (*Store)(nil)
	_ repository.CartRepository         = (*Store)(nil)
	_ repository.OrderRepository        = (*Store)(nil)
	_ repository.StockRepository        = (*Store)(nil)
	_ repository.FulfillmentRepository  = (*Store)(nil)
	_ repository.NotificationRepository = (*Store)(nil)
)

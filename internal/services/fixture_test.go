package service_test

import (
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	serviceMocks "github.com/aaravmahajanofficial/storefront-checkout/internal/services/mocks"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storage/memory"
	kafkaMocks "github.com/aaravmahajanofficial/storefront-checkout/pkg/kafka/mocks"
	stripeMocks "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://shop.example.com"

type checkoutFixture struct {
	store     *memory.Store
	gateway   *stripeMocks.Gateway
	notifier  *serviceMocks.NotificationService
	publisher *kafkaMocks.Publisher
	carts     service.CartService
	orders    service.OrderService
	checkout  service.CheckoutService
	user      *models.Claims
}

func newCheckoutFixture(t *testing.T, limiter repository.RateLimitRepository) *checkoutFixture {
	t.Helper()

	return newFixtureWithFulfillment(t, limiter, nil)
}

// newFixtureWithFulfillment swaps the fulfillment transaction for the given
// repository; nil keeps the in-memory one.
func newFixtureWithFulfillment(t *testing.T, limiter repository.RateLimitRepository, fulfillment repository.FulfillmentRepository) *checkoutFixture {
	t.Helper()

	store := memory.New()
	if fulfillment == nil {
		fulfillment = store
	}

	f := &checkoutFixture{
		store:     store,
		gateway:   stripeMocks.NewGateway(t),
		notifier:  serviceMocks.NewNotificationService(t),
		publisher: kafkaMocks.NewPublisher(t),
		carts:     service.NewCartService(store, store),
		orders:    service.NewOrderService(store, fulfillment, nil, "usd"),
		user:      &models.Claims{UserID: uuid.New(), Email: "buyer@example.com"},
	}

	f.checkout = service.NewCheckoutService(service.CheckoutDeps{
		Carts:       f.carts,
		Orders:      f.orders,
		Stock:       service.NewStockService(store, store, 10),
		Notifier:    f.notifier,
		Gateway:     f.gateway,
		RateLimiter: limiter,
		Publisher:   f.publisher,
	}, service.CheckoutConfig{PublicBaseURL: testBaseURL, PendingTTL: time.Hour})

	return f
}

func seedProduct(store *memory.Store, name, price string, stock map[models.Size]int) uuid.UUID {
	id := uuid.New()
	store.PutProduct(models.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock})

	return id
}

func (f *checkoutFixture) addToCart(t *testing.T, productID uuid.UUID, size models.Size, quantity int) {
	t.Helper()

	_, err := f.carts.AddItem(t.Context(), f.user.UserID, &models.AddCartLineRequest{
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
	})
	require.NoError(t, err)
}

func (f *checkoutFixture) cartLines(t *testing.T) []models.CartLine {
	t.Helper()

	lines, err := f.store.GetCartLines(t.Context(), f.user.UserID)
	require.NoError(t, err)

	return lines
}

func (f *checkoutFixture) stockLevel(t *testing.T, productID uuid.UUID, size models.Size) int {
	t.Helper()

	level, err := f.store.GetStockLevel(t.Context(), productID, size)
	require.NoError(t, err)

	return level
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/aaravmahajanofficial/storefront-checkout/docs"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cache"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/health"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront-checkout/internal/services"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storage"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/tracing"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/kafka"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/sendgrid"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const version = "1.0.0"

// @title						Storefront Checkout API
// @version					1.0
// @description				Cart, checkout and order history for the storefront.
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing setup
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing, cfg.Env, version)
	if err != nil {
		slog.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			slog.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
		}
	}()

	// Storage setup
	repos, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := closeStorage(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup, only alongside postgres
	var (
		redisClient *redis.Client
		limiter     repository.RateLimitRepository
		locks       repository.LockRepository
		orderCache  cache.Cache
	)

	if cfg.Storage.Driver != storage.DriverMemory {
		redisClient, err = repository.NewRedisClient(cfg)
		if err != nil {
			slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
			os.Exit(1)
		}

		defer redisClient.Close()

		redisRepo := repository.NewRedisRepo(redisClient, &cfg.RateConfig)
		limiter = redisRepo
		locks = redisRepo
		orderCache = cache.NewRedisCache(redisClient, &cfg.Cache)
	}

	publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if publisher.Enabled() {
		slog.Info("✅ Publishing checkout events", slog.String("topic", cfg.Kafka.Topic))
	} else {
		slog.Warn("⚠️ No kafka brokers configured, checkout events are not published")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			slog.Error("⚠️ Error closing event publisher", slog.String("error", err.Error()))
		}
	}()

	jwtKey := []byte(cfg.Security.JWTKey)
	gateway := stripe.NewStripeGateway(stripe.Config{
		APIKey:           cfg.Stripe.APIKey,
		WebhookSecret:    cfg.Stripe.WebhookSecret,
		Currency:         cfg.Stripe.Currency,
		AllowedCountries: cfg.Stripe.AllowedCountries,
	})
	emailService := sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)

	cartService := service.NewCartService(repos.Carts, repos.Products)
	orderService := service.NewOrderService(repos.Orders, repos.Fulfillment, orderCache, cfg.Stripe.Currency)
	stockService := service.NewStockService(repos.Stock, repos.Products, cfg.Checkout.LowStockThreshold)
	notificationService := service.NewNotificationService(repos.Notifications, repos.Users, emailService, cfg.Checkout.NotifyQueueSize)
	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		Carts:       cartService,
		Orders:      orderService,
		Stock:       stockService,
		Notifier:    notificationService,
		Gateway:     gateway,
		RateLimiter: limiter,
		Publisher:   publisher,
	}, service.CheckoutConfig{
		PublicBaseURL: cfg.PublicBaseURL,
		PendingTTL:    cfg.Checkout.PendingTTL,
	})
	sweeper := service.NewSweeper(checkoutService, repos.Orders, locks, cfg.Checkout)

	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, orderService)
	authMiddleware := middleware.NewAuthMiddleware(jwtKey)

	healthChecks, err := health.NewHealthHandler(version, &health.Endpoints{
		DB:      repos.DB,
		Redis:   redisClient,
		Gateway: gateway,
	})
	if err != nil {
		slog.Error("❌ Error setting up health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.Storage.Driver),
		slog.String("version", version))

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/carts", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("POST /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/carts/items/{id}", authMiddleware.Authenticate(cartHandler.UpdateItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items/{id}", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("POST /api/v1/checkout", authMiddleware.Authenticate(checkoutHandler.Checkout()))
	routerMux.HandleFunc("GET /api/v1/checkout/success/{id}", authMiddleware.Authenticate(checkoutHandler.CheckoutSuccess()))
	routerMux.HandleFunc("GET /api/v1/checkout/cancel/{id}", authMiddleware.Authenticate(checkoutHandler.CheckoutCancel()))
	routerMux.HandleFunc("POST /api/v1/payments/webhook", checkoutHandler.Webhook())
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.Handle("GET /health", healthChecks.Handler())
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// Middleware chaining
	var handler http.Handler = routerMux
	handler = middleware.Logging(handler)
	handler = metrics.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "storefront-checkout")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})

	group.Go(func() error {
		return notificationService.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()

		slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
			return err
		}

		slog.Info("✅ Server shut down gracefully. All connections closed.")
		return nil
	})

	if err := group.Wait(); err != nil {
		slog.Error("❌ Server stopped with an error", slog.String("error", err.Error()))
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/tracing"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/pkg/kafka"
	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	reasonPaymentCancelled  = "payment_cancelled"
	reasonPaymentInitFailed = "payment_initiation_failed"
	reasonSessionNotStored  = "payment_session_not_stored"
	reasonSessionExpired    = "payment_session_expired"
	reasonStale             = "stale_pending_order"
)

// CheckoutService runs the checkout saga: cart -> pending order -> payment
// session -> paid and fulfilled, or cancelled.
type CheckoutService interface {
	Checkout(ctx context.Context, user *models.Claims) (*models.CheckoutResponse, error)
	HandleSuccess(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	HandleCancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	SettleStale(ctx context.Context, order *models.Order) error
	ResumeFulfillment(ctx context.Context, order *models.Order) error
}

type CheckoutConfig struct {
	PublicBaseURL string
	PendingTTL    time.Duration
}

// CheckoutDeps groups the collaborators of the checkout saga. RateLimiter and
// Publisher may be nil.
type CheckoutDeps struct {
	Carts       CartService
	Orders      OrderService
	Stock       StockService
	Notifier    NotificationService
	Gateway     stripeClient.Gateway
	RateLimiter repository.RateLimitRepository
	Publisher   kafka.Publisher
}

type checkoutService struct {
	carts       CartService
	orders      OrderService
	stock       StockService
	notifier    NotificationService
	gateway     stripeClient.Gateway
	rateLimiter repository.RateLimitRepository
	publisher   kafka.Publisher
	cfg         CheckoutConfig
	now         func() time.Time
}

func NewCheckoutService(deps CheckoutDeps, cfg CheckoutConfig) CheckoutService {

	publisher := deps.Publisher
	if publisher == nil {
		publisher = kafka.NewPublisher(nil, "")
	}

	return &checkoutService{
		carts:       deps.Carts,
		orders:      deps.Orders,
		stock:       deps.Stock,
		notifier:    deps.Notifier,
		gateway:     deps.Gateway,
		rateLimiter: deps.RateLimiter,
		publisher:   publisher,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Checkout turns the user's cart into a pending order and opens a payment
// session for it. Nothing is created for an empty cart. A gateway failure
// cancels the order and leaves the cart as it was.
func (s *checkoutService) Checkout(ctx context.Context, user *models.Claims) (*models.CheckoutResponse, error) {

	ctx, span := tracing.Tracer().Start(ctx, "checkout.Checkout",
		trace.WithAttributes(attribute.String("user.id", user.UserID.String())))
	defer span.End()

	logger := middleware.LoggerFromContext(ctx)

	if err := s.checkRateLimit(ctx, user.UserID); err != nil {
		return nil, err
	}

	snapshot, err := s.carts.Snapshot(ctx, user.UserID)
	if err != nil {
		s.recordCheckoutFailure(span, err)
		return nil, err
	}

	order, err := s.orders.CreatePendingOrder(ctx, user.UserID, snapshot)
	if err != nil {
		s.recordCheckoutFailure(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID.String()))
	logger = logger.With(slog.String("orderId", order.ID.String()))

	gwCtx, cancel := utils.WithGatewayTimeout(ctx)
	session, err := s.gateway.CreateSession(gwCtx, s.sessionParams(user, order, snapshot))
	cancel()
	if err != nil {
		logger.Error("Payment session creation failed, cancelling order", slog.String("error", err.Error()))
		s.compensate(ctx, order, reasonPaymentInitFailed)

		appErr := appErrors.PaymentInitiationError("Payment could not be started").WithError(err)
		s.recordCheckoutFailure(span, appErr)
		return nil, appErr
	}

	if err := s.orders.AttachPaymentSession(ctx, order.ID, session.ID); err != nil {
		logger.Error("Failed to store payment session, cancelling order",
			slog.String("sessionId", session.ID),
			slog.String("error", err.Error()))
		s.compensate(ctx, order, reasonSessionNotStored)

		appErr := appErrors.PersistenceError("Failed to store payment session").WithError(err)
		s.recordCheckoutFailure(span, appErr)
		return nil, appErr
	}

	metrics.RecordCheckout(metrics.OutcomeStarted)
	logger.Info("Checkout started, awaiting payment", slog.String("sessionId", session.ID))

	return &models.CheckoutResponse{OrderID: order.ID, RedirectURL: session.URL}, nil
}

func (s *checkoutService) HandleSuccess(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.complete(ctx, orderID, metrics.TriggerRedirect)
}

func (s *checkoutService) HandleCancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.cancel(ctx, orderID, reasonPaymentCancelled, metrics.TriggerRedirect)
}

// HandleWebhook verifies a gateway event and drives the same transitions as the
// redirect callbacks. Events that need no action return nil so the gateway
// stops redelivering them.
func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {

	logger := middleware.LoggerFromContext(ctx)

	event, err := s.gateway.VerifyWebhookSignature(payload, signature)
	if err != nil {
		logger.Warn("Rejected webhook", slog.String("error", err.Error()))
		return appErrors.BadRequestError("Invalid webhook signature").WithError(err)
	}

	logger = logger.With(slog.String("eventId", event.ID), slog.String("eventType", string(event.Type)))

	switch string(event.Type) {
	case stripeClient.EventSessionCompleted, stripeClient.EventSessionExpired:
	default:
		logger.Debug("Ignoring webhook event")
		return nil
	}

	sessionEvent, err := stripeClient.ParseSessionEvent(event)
	if err != nil {
		logger.Warn("Webhook event carries no usable session", slog.String("error", err.Error()))
		return appErrors.BadRequestError("Malformed checkout session event").WithError(err)
	}

	ctx = middleware.WithLogger(ctx, logger.With(slog.String("orderId", sessionEvent.OrderID.String())))

	if string(event.Type) == stripeClient.EventSessionExpired {
		_, err = s.cancel(ctx, sessionEvent.OrderID, reasonSessionExpired, metrics.TriggerWebhook)
	} else {
		if sessionEvent.PaymentStatus != "paid" {
			logger.Info("Checkout session completed without payment yet", slog.String("paymentStatus", sessionEvent.PaymentStatus))
			return nil
		}
		_, err = s.complete(ctx, sessionEvent.OrderID, metrics.TriggerWebhook)
	}

	if appErrors.HasCode(err, appErrors.ErrCodeInvalidTransition) || appErrors.HasCode(err, appErrors.ErrCodeNotFound) {
		return nil
	}

	return err
}

// complete confirms payment with the gateway, marks the order paid and
// fulfills it. Replays return the paid order without side effects.
func (s *checkoutService) complete(ctx context.Context, orderID uuid.UUID, trigger string) (*models.Order, error) {

	ctx, span := tracing.Tracer().Start(ctx, "checkout.Complete",
		trace.WithAttributes(attribute.String("order.id", orderID.String()), attribute.String("trigger", trigger)))
	defer span.End()

	logger := middleware.LoggerFromContext(ctx)

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch order.Status {
	case models.OrderStatusCancelled:
		s.reportReconciliation(ctx, order, "payment confirmed for a cancelled order")
		return nil, appErrors.InvalidTransitionError("Order was cancelled").WithDetail(orderID.String())

	case models.OrderStatusPending:
		if order.PaymentSessionID == "" {
			return nil, appErrors.PaymentNotConfirmedError("Order has no payment session")
		}

		reference, err := s.resolveReference(ctx, order.PaymentSessionID)
		if err != nil {
			if errors.Is(err, stripeClient.ErrPaymentNotCompleted) {
				logger.Warn("Success callback for an unpaid session", slog.String("sessionId", order.PaymentSessionID))
				return nil, appErrors.PaymentNotConfirmedError("Payment has not been completed").WithError(err)
			}
			span.RecordError(err)
			return nil, appErrors.ThirdPartyError("Could not confirm payment").WithError(err)
		}

		paid, err := s.orders.MarkPaid(ctx, orderID, reference)
		if err != nil {
			if appErrors.HasCode(err, appErrors.ErrCodeInvalidTransition) {
				order.Status = models.OrderStatusCancelled
				s.reportReconciliation(ctx, order, "order cancelled while payment was confirmed")
			}
			return nil, err
		}
		order = paid
	}

	// The order is paid and stays paid; a failed fulfillment is retried
	// by the sweeper.
	if err := s.fulfill(ctx, order, trigger); err != nil {
		span.RecordError(err)
		logger.Error("Fulfillment failed, will be retried",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))
	}

	return order, nil
}

// fulfill reports only a failed fulfillment transaction. Side effects after
// the commit are logged.
func (s *checkoutService) fulfill(ctx context.Context, order *models.Order, trigger string) error {

	logger := middleware.LoggerFromContext(ctx).With(slog.String("orderId", order.ID.String()))

	result, err := s.orders.Fulfill(ctx, order)
	if err != nil {
		return err
	}

	if !result.Claimed {
		logger.Debug("Order already fulfilled")
		return nil
	}

	metrics.RecordOrderTransition(string(models.OrderStatusPaid), trigger)
	logger.Info("Order paid and fulfilled",
		slog.String("paymentReference", order.PaymentReference),
		slog.Int64("cartLinesRemoved", result.CartLinesRemoved))

	s.publish(ctx, models.EventOrderPaid, order.ID, models.OrderPaidEvent{
		OrderID:          order.ID,
		UserID:           order.UserID,
		TotalPrice:       order.TotalPrice.StringFixed(2),
		Currency:         order.Currency,
		PaymentReference: order.PaymentReference,
	})

	if len(result.Shortfalls) > 0 {
		metrics.RecordStockShortfalls(len(result.Shortfalls))
		for _, shortfall := range result.Shortfalls {
			logger.Error("Stock shortfall on paid order",
				slog.String("productId", shortfall.ProductID.String()),
				slog.String("size", string(shortfall.Size)),
				slog.Int("requested", shortfall.Requested))
		}
		s.publish(ctx, models.EventStockShortfall, order.ID, models.StockShortfallEvent{
			OrderID:    order.ID,
			Shortfalls: result.Shortfalls,
		})
	}

	report, err := s.stock.LowStockReport(ctx, result.AffectedProducts)
	if err != nil {
		logger.Error("Low stock check failed", slog.String("error", err.Error()))
		return nil
	}

	if len(report) > 0 && s.notifier != nil {
		s.notifier.NotifyLowStock(ctx, report)
	}

	return nil
}

// cancel moves a pending order to cancelled. The cart is left untouched.
func (s *checkoutService) cancel(ctx context.Context, orderID uuid.UUID, reason, trigger string) (*models.Order, error) {

	logger := middleware.LoggerFromContext(ctx)

	current, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case models.OrderStatusCancelled:
		return current, nil
	case models.OrderStatusPaid:
		return nil, appErrors.InvalidTransitionError("Order is already paid").WithDetail(orderID.String())
	}

	order, err := s.orders.Cancel(ctx, orderID)
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderTransition(string(models.OrderStatusCancelled), trigger)
	logger.Info("Order cancelled", slog.String("orderId", orderID.String()), slog.String("reason", reason))

	s.publish(ctx, models.EventOrderCancelled, order.ID, models.OrderCancelledEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Reason:  reason,
	})

	return order, nil
}

// compensate undoes a checkout whose payment never started.
func (s *checkoutService) compensate(ctx context.Context, order *models.Order, reason string) {

	logger := middleware.LoggerFromContext(ctx)

	if _, err := s.orders.Cancel(context.WithoutCancel(ctx), order.ID); err != nil {
		logger.Error("Compensation failed, order left pending for the sweeper",
			slog.String("orderId", order.ID.String()),
			slog.String("error", err.Error()))
		return
	}

	metrics.RecordOrderTransition(string(models.OrderStatusCancelled), metrics.TriggerRedirect)

	s.publish(ctx, models.EventOrderCancelled, order.ID, models.OrderCancelledEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Reason:  reason,
	})
}

// SettleStale resolves a pending order past its payment window. A session
// that was paid after all is completed, anything else is cancelled.
func (s *checkoutService) SettleStale(ctx context.Context, order *models.Order) error {

	if order.PaymentSessionID != "" {
		_, err := s.resolveReference(ctx, order.PaymentSessionID)
		switch {
		case err == nil:
			_, err = s.complete(ctx, order.ID, metrics.TriggerSweeper)
			return err
		case !errors.Is(err, stripeClient.ErrPaymentNotCompleted):
			return fmt.Errorf("failed to check payment of stale order %s: %w", order.ID, err)
		}
	}

	_, err := s.cancel(ctx, order.ID, reasonStale, metrics.TriggerSweeper)

	return err
}

// ResumeFulfillment re-drives a paid order whose fulfillment never ran.
func (s *checkoutService) ResumeFulfillment(ctx context.Context, order *models.Order) error {
	if err := s.fulfill(ctx, order, metrics.TriggerSweeper); err != nil {
		return fmt.Errorf("failed to fulfill order %s: %w", order.ID, err)
	}

	return nil
}

func (s *checkoutService) checkRateLimit(ctx context.Context, userID uuid.UUID) error {

	if s.rateLimiter == nil {
		return nil
	}

	allowed, retryAfter, err := s.rateLimiter.CheckCheckoutRateLimit(ctx, userID)
	if err != nil {
		middleware.LoggerFromContext(ctx).Warn("Rate limiter unavailable, allowing checkout", slog.String("error", err.Error()))
		return nil
	}

	if !allowed {
		return appErrors.TooManyRequestsError("Too many checkout attempts").
			WithDetail(fmt.Sprintf("retry after %d seconds", retryAfter)).
			WithRetryAfter(time.Duration(retryAfter) * time.Second)
	}

	return nil
}

func (s *checkoutService) sessionParams(user *models.Claims, order *models.Order, snapshot *models.PricingSnapshot) stripeClient.SessionParams {

	items := make([]stripeClient.LineItem, 0, len(snapshot.Lines))
	for _, line := range snapshot.Lines {
		items = append(items, stripeClient.LineItem{
			Name:      fmt.Sprintf("%s (%s)", line.ProductName, line.Size),
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}

	return stripeClient.SessionParams{
		OrderID:       order.ID,
		CustomerEmail: user.Email,
		LineItems:     items,
		SuccessURL:    s.callbackURL("success", order.ID),
		CancelURL:     s.callbackURL("cancel", order.ID),
		ExpiresAt:     s.now().Add(s.cfg.PendingTTL),
	}
}

func (s *checkoutService) resolveReference(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := utils.WithGatewayTimeout(ctx)
	defer cancel()

	return s.gateway.ResolvePaymentReference(ctx, sessionID)
}

func (s *checkoutService) callbackURL(outcome string, orderID uuid.UUID) string {

	u, err := url.JoinPath(s.cfg.PublicBaseURL, "api", "v1", "checkout", outcome, orderID.String())
	if err != nil {
		return s.cfg.PublicBaseURL + "/api/v1/checkout/" + outcome + "/" + orderID.String()
	}

	return u
}

func (s *checkoutService) reportReconciliation(ctx context.Context, order *models.Order, reason string) {

	middleware.LoggerFromContext(ctx).Error("Payment reconciliation required",
		slog.String("orderId", order.ID.String()),
		slog.String("status", string(order.Status)),
		slog.String("reason", reason))

	s.publish(ctx, models.EventPaymentReconciliation, order.ID, models.PaymentReconciliationEvent{
		OrderID:          order.ID,
		Status:           order.Status,
		PaymentSessionID: order.PaymentSessionID,
		Reason:           reason,
	})
}

func (s *checkoutService) publish(ctx context.Context, eventType string, orderID uuid.UUID, payload any) {
	if err := s.publisher.Publish(ctx, eventType, orderID.String(), payload); err != nil {
		middleware.LoggerFromContext(ctx).Error("Failed to publish event",
			slog.String("eventType", eventType),
			slog.String("error", err.Error()))
	}
}

func (s *checkoutService) recordCheckoutFailure(span trace.Span, err error) {

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	switch {
	case appErrors.HasCode(err, appErrors.ErrCodeEmptyCart):
		metrics.RecordCheckout(metrics.OutcomeEmptyCart)
	case appErrors.HasCode(err, appErrors.ErrCodeInsufficientStock):
		metrics.RecordCheckout(metrics.OutcomeInsufficientStock)
	case appErrors.HasCode(err, appErrors.ErrCodePaymentInitiation):
		metrics.RecordCheckout(metrics.OutcomePaymentFailed)
	default:
		metrics.RecordCheckout(metrics.OutcomePersistenceFailed)
	}
}

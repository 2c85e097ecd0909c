package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	sendgrid_client "github.com/aaravmahajanofficial/storefront-checkout/pkg/sendgrid"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const (
	lowStockSubject      = "Storefront - Low stock"
	deliveryTimeout      = 30 * time.Second
	drainTimeout         = 10 * time.Second
	defaultNotifyBacklog = 64
)

// NotificationService delivers operator alerts off the request path.
// NotifyLowStock never blocks and never fails the caller.
type NotificationService interface {
	NotifyLowStock(ctx context.Context, products []models.LowStockProduct)
	Run(ctx context.Context) error
}

type lowStockJob struct {
	products      []models.LowStockProduct
	correlationID string
}

type notificationService struct {
	repo         repository.NotificationRepository
	users        repository.UserRepository
	emailService sendgrid_client.EmailService
	policy       *bluemonday.Policy
	queue        chan lowStockJob
}

func NewNotificationService(repo repository.NotificationRepository, users repository.UserRepository, emailService sendgrid_client.EmailService, backlog int) NotificationService {
	if backlog < 1 {
		backlog = defaultNotifyBacklog
	}

	return &notificationService{
		repo:         repo,
		users:        users,
		emailService: emailService,
		policy:       bluemonday.StrictPolicy(),
		queue:        make(chan lowStockJob, backlog),
	}
}

// NotifyLowStock enqueues the alert. A full queue drops it with a warning.
func (n *notificationService) NotifyLowStock(ctx context.Context, products []models.LowStockProduct) {

	if len(products) == 0 {
		return
	}

	logger := middleware.LoggerFromContext(ctx)

	job := lowStockJob{products: products, correlationID: uuid.NewString()}

	select {
	case n.queue <- job:
		metrics.SetNotificationQueueDepth(len(n.queue))
		logger.Info("Low stock alert queued", slog.Int("products", len(products)))
	default:
		metrics.RecordNotification(string(models.NotificationKindLowStock), "dropped")
		logger.Warn("Notification queue full, low stock alert dropped", slog.Int("products", len(products)))
	}
}

// Run delivers queued alerts until ctx is cancelled, then drains what is left.
func (n *notificationService) Run(ctx context.Context) error {

	for {
		select {
		case job := <-n.queue:
			n.deliver(context.WithoutCancel(ctx), job)

		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
			defer cancel()

			for {
				select {
				case job := <-n.queue:
					n.deliver(drainCtx, job)
				default:
					return nil
				}
			}
		}
	}
}

func (n *notificationService) deliver(ctx context.Context, job lowStockJob) {

	metrics.SetNotificationQueueDepth(len(n.queue))

	logger := slog.Default().With(slog.String("correlation_id", job.correlationID), slog.String("job", string(models.NotificationKindLowStock)))
	ctx = middleware.WithLogger(ctx, logger)

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	admins, err := n.users.ListAdminEmails(ctx)
	if err != nil {
		logger.Error("Failed to list admins for low stock alert", slog.String("error", err.Error()))
		return
	}

	if len(admins) == 0 {
		logger.Warn("No admin to notify about low stock")
		return
	}

	text, htmlContent := n.renderLowStock(job.products)

	for _, admin := range admins {
		n.sendOne(ctx, job.correlationID, admin, text, htmlContent)
	}
}

func (n *notificationService) sendOne(ctx context.Context, correlationID, recipient, text, htmlContent string) {

	logger := middleware.LoggerFromContext(ctx)

	now := time.Now()
	notification := &models.Notification{
		ID:            uuid.New(),
		Type:          models.NotificationTypeEmail,
		Kind:          models.NotificationKindLowStock,
		CorrelationID: correlationID,
		Recipient:     recipient,
		Subject:       lowStockSubject,
		Content:       text,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := n.repo.CreateNotification(ctx, notification); err != nil {
		logger.Error("Failed to create notification record", slog.String("error", err.Error()))
		return
	}

	err := n.emailService.Send(ctx, &sendgrid_client.EmailMessage{
		To:          recipient,
		Subject:     lowStockSubject,
		Content:     text,
		HTMLContent: htmlContent,
	})
	if err != nil {
		metrics.RecordNotification(string(models.NotificationKindLowStock), string(models.StatusFailed))
		logger.Error("Failed to send low stock email", slog.String("recipient", recipient), slog.String("error", err.Error()))

		if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusFailed, err.Error()); err != nil {
			logger.Error("Failed to update notification status", slog.String("error", err.Error()))
		}
		return
	}

	metrics.RecordNotification(string(models.NotificationKindLowStock), string(models.StatusSent))

	if err := n.repo.UpdateNotificationStatus(ctx, notification.ID, models.StatusSent, ""); err != nil {
		logger.Error("Notification sent but failed to update notification status", slog.String("error", err.Error()))
	}
}

// renderLowStock builds the plain and HTML bodies. Product names are stripped
// of markup and escaped before going into the HTML body.
func (n *notificationService) renderLowStock(products []models.LowStockProduct) (string, string) {

	var text, body strings.Builder

	text.WriteString("The following products are running low:\n")
	body.WriteString("<p>The following products are running low:</p><ul>")

	for _, p := range products {
		sizes := make([]string, 0, len(p.Sizes))
		for _, s := range p.Sizes {
			sizes = append(sizes, string(s))
		}
		joined := strings.Join(sizes, ", ")

		fmt.Fprintf(&text, "- %s: %s\n", p.Name, joined)
		fmt.Fprintf(&body, "<li><strong>%s</strong>: %s</li>", n.policy.Sanitize(p.Name), joined)
	}

	body.WriteString("</ul>")

	return text.String(), body.String()
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	repository "github.com/aaravmahajanofficial/storefront-checkout/internal/repositories"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/google/uuid"
)

const (
	sweeperLockName = "checkout:sweeper"
	// fulfillmentLag is how long a paid order may stay unfulfilled before the
	// sweeper takes over.
	fulfillmentLag = time.Minute
)

type SweepResult struct {
	Settled int
	Resumed int
	Failed  int
}

// Sweeper settles orders the callbacks never reached: pending orders past the
// payment window and paid orders whose fulfillment did not run.
type Sweeper struct {
	checkout CheckoutService
	orders   repository.OrderRepository
	locks    repository.LockRepository
	cfg      config.Checkout
	now      func() time.Time
}

// NewSweeper builds a sweeper. With a nil locks every instance sweeps, which
// is only safe for a single replica.
func NewSweeper(checkout CheckoutService, orders repository.OrderRepository, locks repository.LockRepository, cfg config.Checkout) *Sweeper {
	return &Sweeper{checkout: checkout, orders: orders, locks: locks, cfg: cfg, now: time.Now}
}

// Run sweeps every SweepInterval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				slog.Error("Sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep runs one pass. It returns a zero result when another instance holds the lock.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {

	var result SweepResult

	logger := slog.Default().With(slog.String("job", "sweeper"), slog.String("run_id", uuid.NewString()))
	ctx = middleware.WithLogger(ctx, logger)

	if s.locks != nil {
		token, ok, err := s.locks.AcquireLock(ctx, sweeperLockName, s.cfg.SweepInterval)
		if err != nil {
			return result, err
		}
		if !ok {
			logger.Debug("Sweeper lock held elsewhere")
			return result, nil
		}
		defer func() {
			if err := s.locks.ReleaseLock(context.WithoutCancel(ctx), sweeperLockName, token); err != nil {
				logger.Warn("Failed to release sweeper lock", slog.String("error", err.Error()))
			}
		}()
	}

	now := s.now()

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	stale, err := s.orders.ListStalePending(dbCtx, now.Add(-(s.cfg.PendingTTL + s.cfg.SweepGrace)), s.cfg.SweepBatchSize)
	cancel()
	if err != nil {
		return result, err
	}

	for i := range stale {
		if err := s.checkout.SettleStale(ctx, &stale[i]); err != nil {
			result.Failed++
			logger.Warn("Failed to settle stale order",
				slog.String("orderId", stale[i].ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		result.Settled++
	}

	dbCtx, cancel = utils.WithDBTimeout(ctx)
	unfulfilled, err := s.orders.ListUnfulfilledPaid(dbCtx, now.Add(-fulfillmentLag), s.cfg.SweepBatchSize)
	cancel()
	if err != nil {
		return result, err
	}

	for i := range unfulfilled {
		if err := s.checkout.ResumeFulfillment(ctx, &unfulfilled[i]); err != nil {
			result.Failed++
			logger.Warn("Failed to resume fulfillment",
				slog.String("orderId", unfulfilled[i].ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		result.Resumed++
	}

	if result.Settled+result.Resumed+result.Failed > 0 {
		logger.Info("Sweep finished",
			slog.Int("settled", result.Settled),
			slog.Int("resumed", result.Resumed),
			slog.Int("failed", result.Failed))
	}

	return result, nil
}

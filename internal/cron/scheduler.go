package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"paygate/internal/config"
	"paygate/internal/payment"
	"paygate/internal/pkg/alert"
	"paygate/internal/repository"
)

// Scheduler runs the terminal checkout reconciler. Devices complete
// checkouts out-of-band; when the webhook is lost we chase the provider
// ourselves until the checkout leaves pending.
type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	payments  *payment.Service
	checkouts *repository.CheckoutRepository
	notifier  *alert.Notifier
	logger    *zap.Logger
}

// New creates the scheduler.
func New(cfg *config.Config, payments *payment.Service, checkouts *repository.CheckoutRepository, notifier *alert.Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		cfg:       cfg,
		payments:  payments,
		checkouts: checkouts,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Reconcile pending terminal checkouts - every minute
	s.cron.AddFunc("0 * * * * *", func() {
		s.logger.Debug("Running: reconcile pending checkouts")
		s.reconcilePendingCheckouts()
	})

	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) reconcilePendingCheckouts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Give the webhook a head start before polling the provider.
	records, err := s.checkouts.FindPending(ctx, s.cfg.Cron.ReconcileInterval, 50)
	if err != nil {
		s.logger.Error("pending checkout sweep failed", zap.Error(err))
		return
	}

	for _, record := range records {
		checkout, err := s.payments.GetTerminalCheckoutStatus(ctx, record.TenantID, record.CheckoutID)
		if err != nil {
			s.logger.Warn("checkout status poll failed",
				zap.String("tenant_id", record.TenantID),
				zap.String("checkout_id", record.CheckoutID),
				zap.Error(err))
			continue
		}

		if checkout.Status != payment.CheckoutPending {
			if err := s.checkouts.UpdateStatus(ctx, record.CheckoutID, string(checkout.Status)); err != nil {
				s.logger.Error("checkout record update failed",
					zap.String("checkout_id", record.CheckoutID),
					zap.Error(err))
				continue
			}
			s.logger.Info("checkout reconciled",
				zap.String("checkout_id", record.CheckoutID),
				zap.String("status", string(checkout.Status)))
			continue
		}

		if time.Since(record.CreatedAt) > s.cfg.Cron.StuckAfter {
			s.notifier.CheckoutStuck(record.TenantID, record.CheckoutID)
		}
	}
}

// Package worker runs the background reconciliation loop.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/metrics"
)

type ConfirmService interface {
	Confirm(ctx context.Context, sessionRef string) (*services.ConfirmationResult, error)
}

// Reconciler sweeps orders that opened a checkout session but were
// never confirmed, typically because the customer closed the browser
// before the success redirect fired. Each candidate's session is
// re-resolved through the confirmation service; confirmation is
// idempotent, so re-driving an already settled session is harmless.
type Reconciler struct {
	orders    application.OrderRepository
	confirm   ConfirmService
	interval  time.Duration
	batchSize int
	minAge    time.Duration
	logger    *slog.Logger
}

func NewReconciler(
	orders application.OrderRepository,
	confirm ConfirmService,
	interval time.Duration,
	batchSize int,
	minAge time.Duration,
	logger *slog.Logger,
) *Reconciler {
	return &Reconciler{
		orders:    orders,
		confirm:   confirm,
		interval:  interval,
		batchSize: batchSize,
		minAge:    minAge,
		logger:    logger,
	}
}

func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("starting order reconciler",
		"interval", r.interval,
		"batch_size", r.batchSize,
		"min_age", r.minAge,
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping order reconciler")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single reconciliation sweep.
func (r *Reconciler) RunOnce(ctx context.Context) {
	cutoff := time.Now().Add(-r.minAge)
	stale, err := r.orders.FindUnpaidWithSession(ctx, cutoff, r.batchSize)
	if err != nil {
		r.logger.Error("failed to fetch unconfirmed orders", "error", err)
		metrics.ReconcilerRunsTotal.WithLabelValues("error").Inc()
		return
	}

	if len(stale) == 0 {
		metrics.ReconcilerRunsTotal.WithLabelValues("empty").Inc()
		return
	}

	r.logger.Info("reconciling unconfirmed orders", "count", len(stale))

	for _, order := range stale {
		if ctx.Err() != nil {
			return
		}
		if order.CheckoutSessionID == nil {
			continue
		}

		result, err := r.confirm.Confirm(ctx, *order.CheckoutSessionID)
		if err != nil {
			// Gateway hiccups are expected here; the next sweep picks
			// the order up again.
			r.logger.Warn("reconciliation attempt failed",
				"order_id", order.ID,
				"session_id", *order.CheckoutSessionID,
				"error", err,
			)
			continue
		}

		switch {
		case result.Success:
			r.logger.Info("reconciled order",
				"order_id", order.ID,
				"tracking_id", result.TrackingID,
			)
		case result.AlreadyProcessed:
			r.logger.Info("order already settled", "order_id", order.ID)
		default:
			// Still unpaid at the gateway; nothing to do.
		}
	}

	metrics.ReconcilerRunsTotal.WithLabelValues("ok").Inc()
}

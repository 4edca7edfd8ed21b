package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

const reconcileBatch = 100

// Reconciler settles payments whose settlement job never ran, for example
// because the process restarted while the job sat in the in-memory queue.
type Reconciler struct {
	repos      *repositories.Repositories
	payments   *PaymentService
	pool       *workerpool.Pool
	staleAfter time.Duration
	now        func() time.Time
}

func NewReconciler(repos *repositories.Repositories, payments *PaymentService, pool *workerpool.Pool, staleAfter time.Duration) *Reconciler {
	return &Reconciler{
		repos:      repos,
		payments:   payments,
		pool:       pool,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// Sweep settles up to one batch of stale pending payments and returns how
// many it resolved. The sweep is a payment's last attempt: one that still
// cannot settle is marked failed so later sweeps skip it.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	stale, err := r.repos.Payments.FindStalePending(ctx, r.now().Add(-r.staleAfter), reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("reconcile: find stale payments: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	log := logger.WithCtx(ctx)
	log.Info("reconcile: stale payments found", "count", len(stale))

	var settled atomic.Int64
	err = workerpool.Each(ctx, r.pool, stale, func(ctx context.Context, p models.Payment) {
		if _, err := r.payments.Settle(ctx, p.ID); err != nil {
			log.Error("reconcile: settle failed, marking payment failed", "payment_id", p.ID, "error", err)
			if _, err := r.repos.Payments.SettlePending(ctx, p.ID, models.PaymentFailed); err != nil {
				log.Error("reconcile: mark failed", "payment_id", p.ID, "error", err)
			}
			return
		}
		settled.Add(1)
	})
	return int(settled.Load()), err
}

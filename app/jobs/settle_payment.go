// Package jobs holds the queue jobs dispatched by the storefront services.
package jobs

import (
	"context"

	"github.com/shashiranjanraj/storefront/app/models"
)

// Settler resolves a pending payment against the gateway.
type Settler interface {
	Settle(ctx context.Context, paymentID uint) (*models.Payment, error)
}

// SettlePayment asks the gateway for the outcome of a payment and records
// it. It runs once; a failure lands in failed_jobs. A payment left pending
// gets one more attempt from the reconciliation sweep, which marks it failed
// if that attempt errors too.
type SettlePayment struct {
	PaymentID uint    `json:"paymentId"`
	Settler   Settler `json:"-"`
}

func (j *SettlePayment) Handle(ctx context.Context) error {
	_, err := j.Settler.Settle(ctx, j.PaymentID)
	return err
}

func (*SettlePayment) MaxAttempts() int { return 1 }

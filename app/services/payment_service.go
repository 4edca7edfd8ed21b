package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/gateway"
	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

// InitiatePaymentInput is the body of POST /api/payment.
type InitiatePaymentInput struct {
	OrderID       uint             `json:"orderId"       validate:"required"`
	Amount        *decimal.Decimal `json:"amount"        validate:"required,gt=0"`
	PaymentMethod string           `json:"paymentMethod" validate:"required,in=credit_card,debit_card,paypal,cash"`
}

// Dispatcher enqueues background jobs.
type Dispatcher interface {
	DispatchAfter(ctx context.Context, job queue.Job, delay time.Duration) error
}

// PaymentService records payment attempts and settles them asynchronously.
type PaymentService struct {
	repos   *repositories.Repositories
	gateway gateway.Gateway
	queue   Dispatcher
	events  *event.Bus
	delay   time.Duration
}

func NewPaymentService(repos *repositories.Repositories, gw gateway.Gateway, q Dispatcher, bus *event.Bus, settlementDelay time.Duration) *PaymentService {
	if bus == nil {
		bus = event.New()
	}
	return &PaymentService{repos: repos, gateway: gw, queue: q, events: bus, delay: settlementDelay}
}

// NewTransactionID returns TXN followed by the unix millisecond clock and a
// random suffix.
func NewTransactionID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:9])
	return fmt.Sprintf("TXN%d%s", time.Now().UnixMilli(), suffix)
}

// Initiate records a pending payment for an order and schedules its
// settlement. The amount must equal the order total exactly.
func (s *PaymentService) Initiate(ctx context.Context, in InitiatePaymentInput) (*models.Payment, error) {
	method := models.PaymentMethod(in.PaymentMethod)
	if !method.Valid() {
		return nil, apperr.Validation("Invalid payment method %q", in.PaymentMethod)
	}
	if in.Amount == nil {
		return nil, apperr.Validation("The amount field is required.")
	}

	order, err := s.repos.Orders.FindByID(ctx, in.OrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("initiate payment: %w", err))
	}
	if !in.Amount.Equal(order.TotalAmount) {
		return nil, apperr.Conflict(apperr.CodeAmountMismatch, "Payment amount does not match order total")
	}

	payment := &models.Payment{
		OrderID:       order.ID,
		Amount:        *in.Amount,
		PaymentMethod: method,
		Status:        models.PaymentPending,
		TransactionID: NewTransactionID(),
	}
	if err := s.repos.Payments.Create(ctx, payment); err != nil {
		return nil, apperr.Internal(fmt.Errorf("initiate payment: %w", err))
	}

	log := logger.WithCtx(ctx).With("payment_id", payment.ID, "order_id", order.ID)
	if err := s.queue.DispatchAfter(ctx, &jobs.SettlePayment{PaymentID: payment.ID}, s.delay); err != nil {
		// The reconciliation sweep settles it once it goes stale.
		log.Error("payment: settlement dispatch failed", "error", err)
	}
	log.Info("payment initiated", "transaction_id", payment.TransactionID, "method", method)
	return payment, nil
}

// Settle charges a pending payment through the gateway and records the
// outcome. The status change is conditional on the payment still being
// pending, so repeated or concurrent calls settle it once; later calls
// return the stored result.
func (s *PaymentService) Settle(ctx context.Context, paymentID uint) (*models.Payment, error) {
	payment, err := s.repos.Payments.FindByID(ctx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("settle payment %d: %w", paymentID, apperr.NotFound("Payment not found"))
	}
	if err != nil {
		return nil, fmt.Errorf("settle payment %d: %w", paymentID, err)
	}
	if payment.Settled() {
		return payment, nil
	}
	if payment.Order == nil {
		// Without its order the payment can never complete.
		if _, err := s.repos.Payments.SettlePending(ctx, payment.ID, models.PaymentFailed); err != nil {
			return nil, fmt.Errorf("settle payment %d: mark failed: %w", paymentID, err)
		}
		return nil, fmt.Errorf("settle payment %d: %w", paymentID, apperr.NotFound("Order not found"))
	}

	paid, err := s.gateway.Charge(ctx, payment.TransactionID, payment.Amount)
	if err != nil {
		return nil, fmt.Errorf("settle payment %d: gateway: %w", paymentID, err)
	}
	status := models.PaymentFailed
	if paid {
		status = models.PaymentCompleted
	}

	var applied bool
	err = s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		ok, err := tx.Payments.SettlePending(ctx, payment.ID, status)
		if err != nil || !ok {
			return err
		}
		applied = true
		if status == models.PaymentCompleted {
			return tx.Orders.SetStatus(ctx, payment.OrderID, models.OrderProcessing)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle payment %d: %w", paymentID, err)
	}
	if !applied {
		return s.Get(ctx, paymentID)
	}

	payment.Status = status
	if status == models.PaymentCompleted {
		payment.Order.Status = models.OrderProcessing
	}
	metrics.RecordSettlement(string(status), payment.CreatedAt)
	logger.WithCtx(ctx).Info("payment settled",
		"payment_id", payment.ID, "order_id", payment.OrderID, "status", status)

	s.events.FireAsync(ctx, events.PaymentSettled, events.PaymentSettledPayload{
		Payment: payment,
		UserID:  payment.Order.UserID,
	})
	return payment, nil
}

// Get returns a payment with its order.
func (s *PaymentService) Get(ctx context.Context, id uint) (*models.Payment, error) {
	p, err := s.repos.Payments.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Payment not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get payment %d: %w", id, err))
	}
	return p, nil
}

// ListByOrder returns every attempt for an order, newest first. An unknown
// order yields an empty list.
func (s *PaymentService) ListByOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	payments, err := s.repos.Payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list payments for order %d: %w", orderID, err))
	}
	return payments, nil
}

// UpdateStatus overwrites a payment status without touching its order.
func (s *PaymentService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Payment, error) {
	st := models.PaymentStatus(status)
	if !st.Valid() {
		return nil, apperr.Validation("Invalid payment status %q", status)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repos.Payments.SetStatus(ctx, id, st); err != nil {
		return nil, apperr.Internal(fmt.Errorf("update payment %d status: %w", id, err))
	}
	logger.WithCtx(ctx).Info("payment status updated", "payment_id", id, "status", st)
	return s.Get(ctx, id)
}

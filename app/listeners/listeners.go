// Package listeners reacts to domain events: it keeps the catalog cache
// fresh and tells customers and external systems about settled payments.
package listeners

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Invalidator drops cached catalog listings.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Pusher delivers a message to every live connection of an account.
type Pusher interface {
	SendTo(accountID uint, data []byte) bool
}

// Deps are the collaborators the listeners need. Nil members disable the
// matching listener.
type Deps struct {
	Catalog Invalidator
	Hub     Pusher
	Webhook *Webhook
}

// Register subscribes every enabled listener on bus.
func Register(bus *event.Bus, d Deps) {
	if d.Catalog != nil {
		bus.Listen(events.OrderPlaced, func(ctx context.Context, _ any) {
			// Stock changed; cached listings are stale.
			d.Catalog.Invalidate(ctx)
		})
	}
	if d.Hub != nil {
		bus.Listen(events.PaymentSettled, pushSettlement(d.Hub))
	}
	if d.Webhook != nil {
		bus.Listen(events.PaymentSettled, d.Webhook.PaymentSettled)
	}
}

// SettlementMessage is the JSON sent over the websocket feed and the
// webhook when a payment settles.
type SettlementMessage struct {
	Event         string               `json:"event"`
	PaymentID     uint                 `json:"paymentId"`
	OrderID       uint                 `json:"orderId"`
	TransactionID string               `json:"transactionId"`
	Status        models.PaymentStatus `json:"status"`
	Amount        decimal.Decimal      `json:"amount"`
	OrderStatus   models.OrderStatus   `json:"orderStatus,omitempty"`
	SettledAt     time.Time            `json:"settledAt"`
}

// NewSettlementMessage builds the message for a settled payment.
func NewSettlementMessage(p *models.Payment) SettlementMessage {
	msg := SettlementMessage{
		Event:         events.PaymentSettled,
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		Amount:        p.Amount,
		SettledAt:     time.Now().UTC(),
	}
	if p.Order != nil {
		msg.OrderStatus = p.Order.Status
	}
	return msg
}

func pushSettlement(hub Pusher) event.Handler {
	return func(ctx context.Context, payload any) {
		evt, ok := payload.(events.PaymentSettledPayload)
		if !ok || evt.Payment == nil {
			return
		}
		data, err := json.Marshal(NewSettlementMessage(evt.Payment))
		if err != nil {
			logger.WithCtx(ctx).Error("listeners: encode settlement", "error", err)
			return
		}
		if !hub.SendTo(evt.UserID, data) {
			logger.WithCtx(ctx).Warn("listeners: websocket hub saturated", "payment_id", evt.Payment.ID)
		}
	}
}

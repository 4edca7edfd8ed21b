// Package events names the domain events fired on the bus and their
// payloads.
package events

import "github.com/shashiranjanraj/storefront/app/models"

const (
	OrderPlaced    = "order.placed"
	PaymentSettled = "payment.settled"
)

// OrderPlacedPayload accompanies OrderPlaced. Order has items and products
// loaded.
type OrderPlacedPayload struct {
	Order *models.Order
}

// PaymentSettledPayload accompanies PaymentSettled once a payment has left
// pending. UserID is the account that owns the order.
type PaymentSettledPayload struct {
	Payment *models.Payment
	UserID  uint
}

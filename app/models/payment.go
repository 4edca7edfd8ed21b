package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the settlement state of a payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodPayPal     PaymentMethod = "paypal"
	MethodCash       PaymentMethod = "cash"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodCash:
		return true
	}
	return false
}

// Payment is one attempt to pay an order. An order may have several.
type Payment struct {
	ID            uint            `gorm:"primaryKey"                              json:"id"`
	OrderID       uint            `gorm:"not null;index"                          json:"orderId"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null"             json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null"                        json:"paymentMethod"`
	Status        PaymentStatus   `gorm:"size:20;not null;default:pending;index"  json:"status"`
	TransactionID string          `gorm:"size:100;uniqueIndex"                    json:"transactionId"`
	Order         *Order          `json:"order,omitempty"`
	CreatedAt     time.Time       `gorm:"index"                                   json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Settled reports whether the payment has left the pending state.
func (p Payment) Settled() bool { return p.Status != PaymentPending }

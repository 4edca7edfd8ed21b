package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every known order status.
var OrderStatuses = []OrderStatus{OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled}

// Valid reports whether s is a known status. Transitions between statuses
// are not restricted.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Order groups the items one account bought in a single checkout.
// TotalAmount is the sum of item price × quantity at creation time.
type Order struct {
	ID              uint            `gorm:"primaryKey"                                  json:"id"`
	UserID          uint            `gorm:"not null;index"                              json:"userId"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null"                 json:"totalAmount"`
	Status          OrderStatus     `gorm:"size:20;not null;default:pending;index"      json:"status"`
	ShippingAddress string          `gorm:"type:text"                                   json:"shippingAddress"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments        []Payment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem is one product line. Price is the product price captured when
// the order was placed.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                        json:"id"`
	OrderID   uint            `gorm:"not null;index"                    json:"orderId"`
	ProductID uint            `gorm:"not null;index"                    json:"productId"`
	Quantity  int             `gorm:"not null"                          json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"       json:"price"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT"      json:"product,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Subtotal returns price × quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

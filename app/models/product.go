package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock never goes below zero; decrements go
// through a conditional update in the order repository.
type Product struct {
	ID          uint            `gorm:"primaryKey"                   json:"id"`
	Name        string          `gorm:"size:255;not null;index"      json:"name"`
	Description string          `gorm:"type:text"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"  json:"price"`
	Stock       int             `gorm:"not null;default:0"           json:"stock"`
	Category    string          `gorm:"size:100;index"               json:"category"`
	ImageURL    string          `gorm:"size:500"                     json:"imageUrl"`
	IsActive    bool            `gorm:"not null;default:true;index"  json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

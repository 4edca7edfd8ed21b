package models

import "time"

// Roles an account can hold.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User is a storefront account. The password hash is never serialised.
type User struct {
	ID        uint      `gorm:"primaryKey"                         json:"id"`
	Email     string    `gorm:"uniqueIndex;size:255;not null"      json:"email"`
	Password  string    `gorm:"size:255;not null"                  json:"-"`
	FirstName string    `gorm:"size:100;not null"                  json:"firstName"`
	LastName  string    `gorm:"size:100;not null"                  json:"lastName"`
	Role      string    `gorm:"size:20;not null;default:customer"  json:"role"`
	IsActive  bool      `gorm:"not null;default:true"              json:"isActive"`
	Orders    []Order   `gorm:"constraint:OnDelete:RESTRICT"       json:"orders,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Package repositories holds the gorm-backed data access for the storefront.
// Repositories return gorm errors unchanged; services translate them into
// apperr kinds.
package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles every repository over one connection or transaction.
type Repositories struct {
	db       *gorm.DB
	Users    *UserRepository
	Products *ProductRepository
	Orders   *OrderRepository
	Payments *PaymentRepository
}

// New builds the repositories over db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:       db,
		Users:    &UserRepository{db: db},
		Products: &ProductRepository{db: db},
		Orders:   &OrderRepository{db: db},
		Payments: &PaymentRepository{db: db},
	}
}

// DB returns the underlying handle.
func (r *Repositories) DB() *gorm.DB { return r.db }

// Transaction runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

// OrderRepository handles database operations for orders and their items.
type OrderRepository struct {
	db *gorm.DB
}

// Create inserts the order together with its items.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

// FindByID loads an order with its items and their products.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns an account's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	return orders, err
}

// SetStatus overwrites the order status.
func (r *OrderRepository) SetStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

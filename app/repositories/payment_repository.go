package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

// PaymentRepository handles database operations for payment attempts.
type PaymentRepository struct {
	db *gorm.DB
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Omit("Order").Create(p).Error
}

// FindByID loads a payment with its order.
func (r *PaymentRepository) FindByID(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Preload("Order").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByOrder returns every attempt for an order, newest first.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID uint) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("order_id = ?", orderID).
		Order("created_at DESC").Order("id DESC").
		Find(&payments).Error
	return payments, err
}

// SetStatus overwrites the payment status regardless of its current value.
func (r *PaymentRepository) SetStatus(ctx context.Context, id uint, status models.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SettlePending moves a pending payment to status. It reports false when the
// payment had already left pending, so each payment settles at most once.
func (r *PaymentRepository) SettlePending(ctx context.Context, id uint, status models.PaymentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, models.PaymentPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindStalePending returns pending payments created before the cutoff,
// oldest first.
func (r *PaymentRepository) FindStalePending(ctx context.Context, before time.Time, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}

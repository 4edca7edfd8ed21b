package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

// UserRepository handles database operations for accounts.
type UserRepository struct {
	db *gorm.DB
}

// FindByEmail looks up an account by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID looks up an account by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether an account already uses email.
func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update persists the given columns of an existing account.
func (r *UserRepository) Update(ctx context.Context, user *models.User, columns ...string) error {
	q := r.db.WithContext(ctx).Model(user)
	if len(columns) > 0 {
		q = q.Select(columns)
	}
	return q.Updates(user).Error
}

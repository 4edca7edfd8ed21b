package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
)

// ProductFilter narrows a catalog listing. A nil IsActive means active only.
type ProductFilter struct {
	Category string
	IsActive *bool
}

// ProductRepository handles database operations for the catalog.
type ProductRepository struct {
	db *gorm.DB
}

// List returns products matching f, newest first.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	active := true
	if f.IsActive != nil {
		active = *f.IsActive
	}

	q := r.db.WithContext(ctx).Where("is_active = ?", active)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	products := []models.Product{}
	err := q.Order("created_at DESC").Order("id DESC").Find(&products).Error
	return products, err
}

// FindByName returns the first product with exactly this name.
func (r *ProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts p. is_active has a column default, so an inactive product
// needs a second write.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	inactive := !p.IsActive
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	if inactive {
		p.IsActive = false
		return r.db.WithContext(ctx).Model(p).Update("is_active", false).Error
	}
	return nil
}

// UpdateColumns writes only the named columns. A map keeps zero values such
// as isActive=false or stock=0, and stock is never touched unless listed so
// a concurrent DecrementStock is not overwritten.
func (r *ProductRepository) UpdateColumns(ctx context.Context, id uint, cols map[string]any) error {
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(cols).Error
}

func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// CountOrderItems returns how many order lines reference the product.
func (r *ProductRepository) CountOrderItems(ctx context.Context, id uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&n).Error
	return n, err
}

// DecrementStock subtracts qty from the product stock only if enough units
// remain. It reports false when the guard rejected the update, which is the
// only way stock is ever reduced, so concurrent orders cannot oversell.
func (r *ProductRepository) DecrementStock(ctx context.Context, id uint, qty int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

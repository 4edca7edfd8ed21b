package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// ProductCachePrefix prefixes every cached catalog key.
const ProductCachePrefix = "products:"

const productCacheTTL = 5 * time.Minute

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// CreateProductInput is the body of POST /api/store/products.
type CreateProductInput struct {
	Name        string           `json:"name"        validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"required,gte=0"`
	Stock       int              `json:"stock"       validate:"gte=0"`
	Category    string           `json:"category"    validate:"nullable,max=100"`
	ImageURL    string           `json:"imageUrl"    validate:"nullable,url"`
	IsActive    *bool            `json:"isActive"`
}

// UpdateProductInput is the body of PUT /api/store/products/{id}. Absent
// fields are left unchanged.
type UpdateProductInput struct {
	Name        *string          `json:"name"        validate:"nullable,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"       validate:"nullable,gte=0"`
	Stock       *int             `json:"stock"       validate:"nullable,gte=0"`
	Category    *string          `json:"category"    validate:"nullable,max=100"`
	ImageURL    *string          `json:"imageUrl"    validate:"nullable,url"`
	IsActive    *bool            `json:"isActive"`
}

// CatalogService manages products. Listings are cached and invalidated on
// every catalog write.
type CatalogService struct {
	repos *repositories.Repositories
	cache cache.Store
	disk  storage.Disk
}

func NewCatalogService(repos *repositories.Repositories, store cache.Store, disk storage.Disk) *CatalogService {
	if store == nil {
		store = cache.Null{}
	}
	return &CatalogService{repos: repos, cache: store, disk: disk}
}

// List returns products for the filter, newest first.
func (s *CatalogService) List(ctx context.Context, f repositories.ProductFilter) ([]models.Product, error) {
	active := f.IsActive == nil || *f.IsActive
	key := fmt.Sprintf("%slist:%s:%t", ProductCachePrefix, f.Category, active)

	var products []models.Product
	if hit, err := s.cache.Get(ctx, key, &products); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache read failed", "key", key, "error", err)
	} else if hit {
		return products, nil
	}

	products, err := s.repos.Products.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list products: %w", err))
	}
	if err := s.cache.Set(ctx, key, products, productCacheTTL); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache write failed", "key", key, "error", err)
	}
	return products, nil
}

// Get returns one product.
func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.repos.Products.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Product not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get product %d: %w", id, err))
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if in.Price == nil || in.Price.IsNegative() {
		return nil, apperr.Validation("Price must be zero or greater")
	}
	if in.Stock < 0 {
		return nil, apperr.Validation("Stock must be zero or greater")
	}

	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       *in.Price,
		Stock:       in.Stock,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.repos.Products.Create(ctx, p); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create product: %w", err))
	}

	s.Invalidate(ctx)
	logger.WithCtx(ctx).Info("product created", "product_id", p.ID)
	return p, nil
}

func (s *CatalogService) Update(ctx context.Context, id uint, in UpdateProductInput) (*models.Product, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	cols := map[string]any{}
	if in.Name != nil {
		cols["name"] = *in.Name
	}
	if in.Description != nil {
		cols["description"] = *in.Description
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, apperr.Validation("Price must be zero or greater")
		}
		cols["price"] = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return nil, apperr.Validation("Stock must be zero or greater")
		}
		cols["stock"] = *in.Stock
	}
	if in.Category != nil {
		cols["category"] = *in.Category
	}
	if in.ImageURL != nil {
		cols["image_url"] = *in.ImageURL
	}
	if in.IsActive != nil {
		cols["is_active"] = *in.IsActive
	}

	if err := s.repos.Products.UpdateColumns(ctx, id, cols); err != nil {
		return nil, apperr.Internal(fmt.Errorf("update product %d: %w", id, err))
	}
	s.Invalidate(ctx)
	return s.Get(ctx, id)
}

// Delete removes a product that no order references. Referenced products
// must be deactivated instead so order history keeps its lines.
func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.repos.Products.CountOrderItems(ctx, id)
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete product %d: %w", id, err))
	}
	if refs > 0 {
		return apperr.Conflict(apperr.CodeProductInUse,
			"Product %s is part of existing orders; deactivate it instead", p.Name)
	}

	if err := s.repos.Products.Delete(ctx, id); err != nil {
		return apperr.Internal(fmt.Errorf("delete product %d: %w", id, err))
	}
	s.Invalidate(ctx)
	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	return nil
}

// UploadImage stores an image on the configured disk and points the
// product's imageUrl at it.
func (s *CatalogService) UploadImage(ctx context.Context, id uint, filename, contentType string, r io.Reader) (*models.Product, error) {
	if s.disk == nil {
		return nil, apperr.Internal(errors.New("upload image: no storage disk configured"))
	}
	ext := strings.ToLower(path.Ext(filename))
	if !imageExtensions[ext] || (contentType != "" && !strings.HasPrefix(contentType, "image/")) {
		return nil, apperr.Validation("The image must be a jpg, png, gif or webp file")
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("products/%d/%s%s", p.ID, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, key, r, contentType); err != nil {
		return nil, apperr.Internal(fmt.Errorf("upload image for product %d: %w", id, err))
	}

	cols := map[string]any{"image_url": s.disk.URL(key)}
	if err := s.repos.Products.UpdateColumns(ctx, id, cols); err != nil {
		_ = s.disk.Delete(ctx, key)
		return nil, apperr.Internal(fmt.Errorf("upload image for product %d: %w", id, err))
	}
	s.Invalidate(ctx)
	return s.Get(ctx, id)
}

// Invalidate drops every cached catalog listing.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, ProductCachePrefix); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "error", err)
	}
}

package seeders

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

func product(name, description, price, category string, stock int, image string) models.Product {
	return models.Product{
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Stock:       stock,
		ImageURL:    "https://placehold.co/400x400/" + image,
		IsActive:    true,
	}
}

var demoProducts = []models.Product{
	product("Handwoven Bamboo Basket", "Beautifully crafted bamboo basket made by skilled artisans. Perfect for storage or decoration.",
		"45.00", "Baskets", 25, "e8d5b7/6b4423?text=Handwoven+Basket"),
	product("Ceramic Pottery Set", "Traditional hand-thrown ceramic set with intricate patterns. Includes 4 pieces.",
		"85.00", "Pottery", 15, "d4a574/5c3a1f?text=Ceramic+Pottery"),
	product("Wooden Carving Art", "Intricate hand-carved wooden art piece showcasing traditional craftsmanship.",
		"120.00", "Woodwork", 10, "8b7355/3d2817?text=Wooden+Carving"),
	product("Textile Art Tapestry", "Hand-stitched traditional patterns on high-quality fabric. Perfect wall decoration.",
		"65.00", "Textiles", 20, "c9a96e/5d4a2f?text=Textile+Art"),
	product("Handmade Leather Wallet", "Premium leather wallet with hand-stitched details. Durable and elegant.",
		"55.00", "Leather", 30, "a0826d/4a3a2a?text=Leather+Wallet"),
	product("Artisan Soap Collection", "Natural handmade soaps with organic ingredients. Set of 6 bars.",
		"35.00", "Personal Care", 50, "f4e4c1/8b7355?text=Artisan+Soap"),
	product("Woven Placemats Set", "Colorful handwoven placemats. Set of 4 pieces with traditional patterns.",
		"28.00", "Textiles", 40, "d4a574/6b4423?text=Placemats"),
	product("Handcrafted Jewelry Box", "Beautifully carved wooden jewelry box with velvet interior.",
		"75.00", "Woodwork", 12, "8b7355/4a3a2a?text=Jewelry+Box"),
}

// SeedProducts creates the artisan catalog, matching existing rows by name.
func SeedProducts(ctx context.Context, db *gorm.DB) error {
	products := repositories.New(db).Products

	for _, p := range demoProducts {
		_, err := products.FindByName(ctx, p.Name)
		if err == nil {
			logger.Debug("seed: product exists", "name", p.Name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row := p
		if err := products.Create(ctx, &row); err != nil {
			return fmt.Errorf("create %s: %w", p.Name, err)
		}
		logger.Info("seed: product created", "name", p.Name, "product_id", row.ID)
	}
	return nil
}

package seeders

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// CustomerEmail owns the sample orders.
const CustomerEmail = "customer@test.com"

type demoAccount struct {
	email, password, first, last, role string
}

var demoAccounts = []demoAccount{
	{"admin@test.com", "admin123", "Admin", "User", models.RoleAdmin},
	{CustomerEmail, "customer123", "John", "Doe", models.RoleCustomer},
	{"jane@test.com", "jane123", "Jane", "Smith", models.RoleCustomer},
}

// SeedAccounts creates the demo admin and customer accounts.
func SeedAccounts(ctx context.Context, db *gorm.DB) error {
	users := repositories.New(db).Users

	for _, a := range demoAccounts {
		_, err := users.FindByEmail(ctx, a.email)
		if err == nil {
			logger.Debug("seed: account exists", "email", a.email)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.email, err)
		}
		user := &models.User{
			Email:     a.email,
			Password:  hash,
			FirstName: a.first,
			LastName:  a.last,
			Role:      a.role,
			IsActive:  true,
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create %s: %w", a.email, err)
		}
		logger.Info("seed: account created", "email", a.email, "role", a.role)
	}
	return nil
}

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

const sampleAddress = "123 Main Street, City, State 12345"

type sampleLine struct {
	product  int // index into the first catalog products
	quantity int
}

type sampleOrder struct {
	status models.OrderStatus
	lines  []sampleLine
}

var sampleOrders = []sampleOrder{
	{models.OrderDelivered, []sampleLine{{0, 2}, {1, 1}}},
	{models.OrderProcessing, []sampleLine{{1, 3}}},
	{models.OrderPending, []sampleLine{{0, 1}}},
}

// SeedOrders gives the demo customer an order history. An order is skipped
// when one with the same customer, total and status already exists. Sample
// orders do not consume stock.
func SeedOrders(ctx context.Context, db *gorm.DB) error {
	repos := repositories.New(db)

	customer, err := repos.Users.FindByEmail(ctx, CustomerEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn("seed: customer account missing, skipping orders", "email", CustomerEmail)
		return nil
	}
	if err != nil {
		return err
	}

	var products []models.Product
	if err := db.WithContext(ctx).Order("id ASC").Limit(3).Find(&products).Error; err != nil {
		return err
	}
	if len(products) < 2 {
		logger.Warn("seed: not enough products, skipping orders", "found", len(products))
		return nil
	}

	for _, s := range sampleOrders {
		order := models.Order{
			UserID:          customer.ID,
			Status:          s.status,
			ShippingAddress: sampleAddress,
			TotalAmount:     decimal.Zero,
		}
		for _, l := range s.lines {
			p := products[l.product]
			item := models.OrderItem{ProductID: p.ID, Quantity: l.quantity, Price: p.Price}
			order.Items = append(order.Items, item)
			order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
		}

		var existing int64
		err := db.WithContext(ctx).Model(&models.Order{}).
			Where("user_id = ? AND total_amount = ? AND status = ?", order.UserID, order.TotalAmount, order.Status).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			logger.Debug("seed: order exists", "status", order.Status)
			continue
		}

		if err := repos.Orders.Create(ctx, &order); err != nil {
			return fmt.Errorf("create %s order: %w", order.Status, err)
		}
		logger.Info("seed: order created", "order_id", order.ID, "status", order.Status)
	}
	return nil
}

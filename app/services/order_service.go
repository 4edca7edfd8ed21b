package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"  validate:"required,gt=0"`
}

// PlaceOrderInput is the body of POST /api/store/orders.
type PlaceOrderInput struct {
	Items           []OrderLine `json:"items"           validate:"required,min=1,dive"`
	ShippingAddress string      `json:"shippingAddress" validate:"required"`
}

// UpdateStatusInput is the body of the status update endpoints.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
}

// OrderService assembles orders from catalog products.
type OrderService struct {
	repos  *repositories.Repositories
	events *event.Bus
}

func NewOrderService(repos *repositories.Repositories, bus *event.Bus) *OrderService {
	if bus == nil {
		bus = event.New()
	}
	return &OrderService{repos: repos, events: bus}
}

// Place creates a pending order for the account. Every product is re-read
// and its stock decremented inside one transaction; the first failing line
// rolls back the whole order.
func (s *OrderService) Place(ctx context.Context, userID uint, in PlaceOrderInput) (*models.Order, error) {
	if err := checkLines(in.Items); err != nil {
		metrics.OrdersPlaced.WithLabelValues("rejected").Inc()
		return nil, err
	}

	var orderID uint
	err := s.repos.Transaction(ctx, func(tx *repositories.Repositories) error {
		order := &models.Order{
			UserID:          userID,
			Status:          models.OrderPending,
			ShippingAddress: in.ShippingAddress,
			TotalAmount:     decimal.Zero,
		}

		for _, line := range in.Items {
			product, err := tx.Products.FindByID(ctx, line.ProductID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Product with id %d not found", line.ProductID)
			}
			if err != nil {
				return fmt.Errorf("load product %d: %w", line.ProductID, err)
			}
			if !product.IsActive {
				return apperr.Validation("Product %s is not available", product.Name)
			}

			ok, err := tx.Products.DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", product.ID, err)
			}
			if !ok {
				return apperr.Conflict(apperr.CodeInsufficientStock, "Insufficient stock for product %s", product.Name)
			}

			item := models.OrderItem{ProductID: product.ID, Quantity: line.Quantity, Price: product.Price}
			order.Items = append(order.Items, item)
			order.TotalAmount = order.TotalAmount.Add(item.Subtotal())
		}

		if err := tx.Orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		outcome := "rejected"
		if apperr.HasCode(err, apperr.CodeInsufficientStock) {
			outcome = "insufficient_stock"
		}
		metrics.OrdersPlaced.WithLabelValues(outcome).Inc()
		if apperr.KindOf(err) == apperr.KindInternal {
			return nil, apperr.Internal(fmt.Errorf("place order: %w", err))
		}
		return nil, err
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.WithLabelValues("placed").Inc()
	logger.WithCtx(ctx).Info("order placed", "order_id", order.ID, "user_id", userID, "total", order.TotalAmount.StringFixed(2))
	s.events.FireAsync(ctx, events.OrderPlaced, events.OrderPlacedPayload{Order: order})
	return order, nil
}

func checkLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return apperr.Validation("Order must contain at least one item")
	}
	for _, l := range lines {
		if l.ProductID == 0 {
			return apperr.Validation("Each item needs a productId")
		}
		if l.Quantity <= 0 {
			return apperr.Validation("Quantity for product %d must be greater than 0", l.ProductID)
		}
	}
	return nil
}

// Get returns an order with its items and products.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Order not found")
	}
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("get order %d: %w", id, err))
	}
	return order, nil
}

// ListForUser returns the account's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.repos.Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list orders for user %d: %w", userID, err))
	}
	return orders, nil
}

// UpdateStatus sets any known status; transitions are not restricted.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Order, error) {
	st := models.OrderStatus(status)
	if !st.Valid() {
		return nil, apperr.Validation("Invalid order status %q", status)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repos.Orders.SetStatus(ctx, id, st); err != nil {
		return nil, apperr.Internal(fmt.Errorf("update order %d status: %w", id, err))
	}
	logger.WithCtx(ctx).Info("order status updated", "order_id", id, "status", st)
	return s.Get(ctx, id)
}

package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/events"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/event"
)

func TestPlaceOrderDecrementsStockAndSnapshotsPrice(t *testing.T) {
	repos, _ := newRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx := context.Background()

	user := seedUser(t, repos, "c@test.com")
	vase := seedProduct(t, repos, "Vase", "20.00", 5)
	bowl := seedProduct(t, repos, "Bowl", "12.50", 10)

	order, err := svc.Place(ctx, user.ID, services.PlaceOrderInput{
		Items:           []services.OrderLine{{ProductID: vase.ID, Quantity: 3}, {ProductID: bowl.ID, Quantity: 2}},
		ShippingAddress: "123 Main Street",
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "85.00", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, "20.00", order.Items[0].Price.StringFixed(2))
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Vase", order.Items[0].Product.Name)

	assert.Equal(t, 2, stockOf(t, repos, vase.ID))
	assert.Equal(t, 8, stockOf(t, repos, bowl.ID))

	// A later price change does not touch the placed order.
	newPrice := money("99.00")
	_, err = services.NewCatalogService(repos, nil, nil).Update(ctx, vase.ID, services.UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	reloaded, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "85.00", reloaded.TotalAmount.StringFixed(2))
}

func TestPlaceOrderInsufficientStockLeavesStockUntouched(t *testing.T) {
	repos, db := newRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx := context.Background()

	user := seedUser(t, repos, "c@test.com")
	p := seedProduct(t, repos, "Vase", "20.00", 5)
	in := services.PlaceOrderInput{Items: []services.OrderLine{{ProductID: p.ID, Quantity: 3}}, ShippingAddress: "x"}

	_, err := svc.Place(ctx, user.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 2, stockOf(t, repos, p.ID))

	_, err = svc.Place(ctx, user.ID, in)
	assert.True(t, apperr.HasCode(err, apperr.CodeInsufficientStock))
	assert.Equal(t, "Insufficient stock for product Vase", apperr.Message(err))
	assert.Equal(t, 2, stockOf(t, repos, p.ID))

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPlaceOrderRollsBackEarlierLines(t *testing.T) {
	repos, db := newRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx := context.Background()

	user := seedUser(t, repos, "c@test.com")
	plenty := seedProduct(t, repos, "Soap", "35.00", 50)
	scarce := seedProduct(t, repos, "Carving", "120.00", 1)

	_, err := svc.Place(ctx, user.ID, services.PlaceOrderInput{
		Items:           []services.OrderLine{{ProductID: plenty.ID, Quantity: 4}, {ProductID: scarce.ID, Quantity: 2}},
		ShippingAddress: "x",
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeInsufficientStock))
	assert.Equal(t, 50, stockOf(t, repos, plenty.ID))

	var items int64
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestPlaceOrderRejectsBadLines(t *testing.T) {
	repos, _ := newRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx := context.Background()
	user := seedUser(t, repos, "c@test.com")

	_, err := svc.Place(ctx, user.ID, services.PlaceOrderInput{ShippingAddress: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Place(ctx, user.ID, services.PlaceOrderInput{Items: []services.OrderLine{{ProductID: 1, Quantity: 0}}, ShippingAddress: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.Place(ctx, user.ID, services.PlaceOrderInput{Items: []services.OrderLine{{ProductID: 999, Quantity: 1}}, ShippingAddress: "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Product with id 999 not found", apperr.Message(err))

	p := seedProduct(t, repos, "Retired", "10.00", 10)
	require.NoError(t, repos.DB().Model(p).Update("is_active", false).Error)
	_, err = svc.Place(ctx, user.ID, services.PlaceOrderInput{Items: []services.OrderLine{{ProductID: p.ID, Quantity: 1}}, ShippingAddress: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, 10, stockOf(t, repos, p.ID))
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	repos, db := newRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx := context.Background()

	user := seedUser(t, repos, "c@test.com")
	p := seedProduct(t, repos, "Basket", "45.00", 5)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Place(ctx, user.ID, services.PlaceOrderInput{
				Items:           []services.OrderLine{{ProductID: p.ID, Quantity: 2}},
				ShippingAddress: "x",
			})
		}()
	}
	wg.Wait()

	var placed int
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		assert.True(t, apperr.HasCode(err, apperr.CodeInsufficientStock), err.Error())
	}
	assert.Equal(t, 2, placed)
	assert.Equal(t, 1, stockOf(t, repos, p.ID))

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)
}

func TestPlaceOrderFiresEvent(t *testing.T) {
	repos, _ := newRepos(t)
	bus := event.New()
	svc := services.NewOrderService(repos, bus)

	var got events.OrderPlacedPayload
	bus.Listen(events.OrderPlaced, func(_ context.Context, payload any) {
		got = payload.(events.OrderPlacedPayload)
	})

	user := seedUser(t, repos, "c@test.com")
	p := seedProduct(t, repos, "Basket", "45.00", 5)
	order, err := svc.Place(context.Background(), user.ID, services.PlaceOrderInput{
		Items: []services.OrderLine{{ProductID: p.ID, Quantity: 1}}, ShippingAddress: "x",
	})
	require.NoError(t, err)

	bus.Wait()
	require.NotNil(t, got.Order)
	assert.Equal(t, order.ID, got.Order.ID)
}

func TestOrderStatusAndListing(t *testing.T) {
	repos, _ := newRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx := context.Background()

	user := seedUser(t, repos, "c@test.com")
	other := seedUser(t, repos, "o@test.com")
	p := seedProduct(t, repos, "Basket", "45.00", 10)
	in := services.PlaceOrderInput{Items: []services.OrderLine{{ProductID: p.ID, Quantity: 1}}, ShippingAddress: "x"}

	first, err := svc.Place(ctx, user.ID, in)
	require.NoError(t, err)
	second, err := svc.Place(ctx, user.ID, in)
	require.NoError(t, err)
	_, err = svc.Place(ctx, other.ID, in)
	require.NoError(t, err)

	mine, err := svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)
	require.Len(t, mine[0].Items, 1)
	assert.NotNil(t, mine[0].Items[0].Product)

	shipped, err := svc.UpdateStatus(ctx, first.ID, "delivered")
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, shipped.Status)

	// Any known status is accepted, including going backwards.
	back, err := svc.UpdateStatus(ctx, first.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, back.Status)

	_, err = svc.UpdateStatus(ctx, first.ID, "lost")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateStatus(ctx, 999, "shipped")
	assert.Equal(t, "Order not found", apperr.Message(err))
}

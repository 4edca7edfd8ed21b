//go:build integration

package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

// Run with: go test -tags integration ./app/services/...
func newPostgresRepos(t *testing.T) *repositories.Repositories {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("storefront"),
		postgres.WithPassword("storefront"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open("postgres", dsn, database.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db).Up(ctx)
	require.NoError(t, err)
	return repositories.New(db)
}

func TestConcurrentOrdersNeverOversellOnPostgres(t *testing.T) {
	repos := newPostgresRepos(t)
	svc := services.NewOrderService(repos, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user := seedUser(t, repos, "buyer@test.com")
	p := seedProduct(t, repos, "Raku Vase", "30.00", 5)

	const buyers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Place(ctx, user.ID, services.PlaceOrderInput{
				Items:           []services.OrderLine{{ProductID: p.ID, Quantity: 1}},
				ShippingAddress: "1 Kiln Road",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case apperr.HasCode(err, apperr.CodeInsufficientStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, placed)
	assert.Equal(t, buyers-5, rejected)
	assert.Equal(t, 0, stockOf(t, repos, p.ID))

	orders, err := repos.Orders.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 5)
	for _, o := range orders {
		assert.Equal(t, models.OrderPending, o.Status)
	}
}

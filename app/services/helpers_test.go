package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/testkit"

	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

func newRepos(t *testing.T) (*repositories.Repositories, *gorm.DB) {
	t.Helper()
	db := testkit.SQLite(t)
	_, err := migration.New(db).Up(context.Background())
	require.NoError(t, err)
	return repositories.New(db), db
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func seedProduct(t *testing.T, repos *repositories.Repositories, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: money(price), Stock: stock, Category: "Pottery", IsActive: true}
	require.NoError(t, repos.Products.Create(context.Background(), p))
	return p
}

func seedUser(t *testing.T, repos *repositories.Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", FirstName: "Test", LastName: "User", Role: models.RoleCustomer, IsActive: true}
	require.NoError(t, repos.Users.Create(context.Background(), u))
	return u
}

func stockOf(t *testing.T, repos *repositories.Repositories, id uint) int {
	t.Helper()
	p, err := repos.Products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

type dispatched struct {
	job   queue.Job
	delay time.Duration
}

// recordingQueue captures dispatched jobs instead of running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []dispatched
}

func (q *recordingQueue) DispatchAfter(_ context.Context, job queue.Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, dispatched{job: job, delay: delay})
	return nil
}

func (q *recordingQueue) all() []dispatched {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]dispatched(nil), q.jobs...)
}

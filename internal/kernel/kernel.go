// Package kernel assembles the storefront: database, cache, storage, queue,
// event listeners, services and the HTTP handler. Every CLI command boots
// the pieces it needs from here.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/gateway"
	"github.com/shashiranjanraj/storefront/app/jobs"
	"github.com/shashiranjanraj/storefront/app/listeners"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/schema"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/httpclient"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
	"github.com/shashiranjanraj/storefront/pkg/ws"

	// Register migrations and seeders with their runners.
	_ "github.com/shashiranjanraj/storefront/database/migrations"
	_ "github.com/shashiranjanraj/storefront/database/seeders"
)

const reconcileWorkers = 4

// Kernel holds the wired application.
type Kernel struct {
	DB    *gorm.DB
	Redis *redis.Client // nil unless a redis driver is configured

	Repos     *repositories.Repositories
	Cache     cache.Store
	Disk      storage.Disk
	Events    *event.Bus
	Queue     *queue.Queue
	Failed    *queue.FailedJobStore
	Hub       *ws.Hub
	Pool      *workerpool.Pool
	Scheduler *schedule.Scheduler

	Accounts   *services.AccountService
	Catalog    *services.CatalogService
	Orders     *services.OrderService
	Payments   *services.PaymentService
	Reconciler *services.Reconciler

	Limiter *middleware.Limiter

	redisDriver  *queue.RedisDriver
	memoryDriver *queue.MemoryDriver
}

// OpenDB loads config and connects to the database only. Used by the
// migrate and seed commands.
func OpenDB() (*gorm.DB, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return database.Connect()
}

// Boot wires every component. Call Close when done.
func Boot(ctx context.Context) (*Kernel, error) {
	db, err := OpenDB()
	if err != nil {
		return nil, err
	}
	k := &Kernel{DB: db, Repos: repositories.New(db), Events: event.New()}

	if config.QueueDriver() == "redis" || config.CacheDriver() == "redis" {
		if k.Redis, err = cache.NewRedisClient(ctx); err != nil {
			k.Close()
			return nil, err
		}
	}

	if k.Cache, err = cache.New(k.Redis); err != nil {
		k.Close()
		return nil, err
	}
	if k.Disk, err = storage.New(ctx); err != nil {
		k.Close()
		return nil, err
	}

	k.Failed = queue.NewFailedJobStore(db)
	var driver queue.Driver
	switch d := config.QueueDriver(); d {
	case "redis":
		k.redisDriver = queue.NewRedisDriver(k.Redis)
		driver = k.redisDriver
	case "memory", "sync", "":
		k.memoryDriver = queue.NewMemoryDriver()
		driver = k.memoryDriver
	default:
		k.Close()
		return nil, fmt.Errorf("queue: unknown driver %q", d)
	}
	k.Queue = queue.New(driver, queue.WithFailedJobs(k.Failed))

	k.Accounts = services.NewAccountService(k.Repos)
	k.Catalog = services.NewCatalogService(k.Repos, k.Cache, k.Disk)
	k.Orders = services.NewOrderService(k.Repos, k.Events)
	k.Payments = services.NewPaymentService(
		k.Repos,
		gateway.NewSimulated(config.PaymentSuccessRate()),
		k.Queue,
		k.Events,
		config.SettlementDelay(),
	)
	k.Queue.Register(func() queue.Job { return &jobs.SettlePayment{Settler: k.Payments} })

	k.Hub = ws.NewHub()
	listeners.Register(k.Events, listeners.Deps{
		Catalog: k.Catalog,
		Hub:     k.Hub,
		Webhook: listeners.NewWebhook(httpclient.New(nil), config.PaymentWebhookURL()),
	})

	k.Pool = workerpool.New(reconcileWorkers)
	k.Reconciler = services.NewReconciler(k.Repos, k.Payments, k.Pool, config.SettlementStaleAfter())

	k.Scheduler = schedule.New()
	k.Scheduler.EveryMinute().Name("reconcile-payments").WithoutOverlapping().Run(func(ctx context.Context) error {
		n, err := k.Reconciler.Sweep(ctx)
		if n > 0 {
			logger.Info("reconcile: settled stale payments", "count", n)
		}
		return err
	})

	k.Limiter = middleware.NewLimiter(200, time.Minute)
	return k, nil
}

// Handler builds the HTTP handler with the global middleware stack.
func (k *Kernel) Handler() (http.Handler, error) {
	catalogSchema, err := schema.New(k.Catalog)
	if err != nil {
		return nil, err
	}

	h := routes.Handlers{
		Health:    controllers.NewHealthController(k.Ping),
		Accounts:  controllers.NewAccountController(k.Accounts),
		Products:  controllers.NewProductController(k.Catalog),
		Orders:    controllers.NewOrderController(k.Orders),
		Payments:  controllers.NewPaymentController(k.Payments, k.Hub),
		GraphQL:   graphql.Handler(catalogSchema),
		AdminRole: config.StoreAdminRole(),
	}
	if local, ok := k.Disk.(*storage.LocalDisk); ok {
		h.Files = http.FileServer(http.Dir(local.Root()))
	}

	r := newRouter(k.Limiter)
	routes.Register(r, h)
	return r.Handler(), nil
}

// newRouter applies the global middleware, outermost first: metrics for
// total latency, recovery, request id before anything logs, the request
// logger, CORS, then the rate limiter.
func newRouter(limiter *middleware.Limiter) *router.Router {
	r := router.New()
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	if limiter != nil {
		r.Use(limiter.Middleware)
	}
	return r
}

// RouteTable lists every route without booting any dependency.
func RouteTable() []router.RouteInfo {
	r := newRouter(nil)
	routes.Register(r, routes.Handlers{GraphQL: http.NotFoundHandler(), Files: http.NotFoundHandler()})
	return r.Routes()
}

// Ping reports database reachability.
func (k *Kernel) Ping(ctx context.Context) error {
	return database.Ping(ctx, k.DB)
}

// RunWorkers processes queued jobs with n workers until ctx ends.
func (k *Kernel) RunWorkers(ctx context.Context, n int) {
	k.Queue.Run(ctx, n)
}

// PendingJobs reports the redis queue depth. It errors for in-process
// drivers, whose jobs live only in the serving process.
func (k *Kernel) PendingJobs(ctx context.Context) (ready, delayed int64, err error) {
	if k.redisDriver == nil {
		return 0, 0, errors.New("queue depth is only tracked by the redis driver")
	}
	return k.redisDriver.Pending(ctx)
}

// RetryFailed re-queues a failed job. With the in-process driver nobody
// else would pick it up, so it is worked off before returning.
func (k *Kernel) RetryFailed(ctx context.Context, id uint) error {
	if err := k.Queue.Retry(ctx, id); err != nil {
		return err
	}
	if k.memoryDriver == nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		k.Queue.Run(runCtx, 1)
		close(done)
	}()
	for k.memoryDriver.Len() > 0 && ctx.Err() == nil {
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	<-done
	k.Events.Wait()
	return nil
}

// Close waits for in-flight listeners and releases connections.
func (k *Kernel) Close() {
	if k.Events != nil {
		k.Events.Wait()
	}
	if k.Pool != nil {
		k.Pool.Shutdown()
	}
	if k.Redis != nil {
		_ = k.Redis.Close()
	}
	if k.DB != nil {
		_ = database.Close(k.DB)
	}
}

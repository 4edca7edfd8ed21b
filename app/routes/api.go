// Package routes mounts the storefront HTTP surface.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/rbac"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Handlers are the endpoints the route table points at.
type Handlers struct {
	Health   *controllers.HealthController
	Accounts *controllers.AccountController
	Products *controllers.ProductController
	Orders   *controllers.OrderController
	Payments *controllers.PaymentController

	// GraphQL serves the read-only catalog query endpoint. Optional.
	GraphQL http.Handler
	// Files serves uploaded images from the local disk under /storage/.
	// Nil when images live in S3.
	Files http.Handler

	// AdminRole gates catalog writes. Empty lets any authenticated
	// account through.
	AdminRole string
}

// Register mounts every route on r.
func Register(r *router.Router, h Handlers) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", "health", ctx.Wrap(h.Health.Show))
	r.Get("/metrics", "metrics", metrics.Handler())
	if h.GraphQL != nil {
		r.Handle("/graphql", h.GraphQL)
	}
	if h.Files != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage", h.Files))
	}

	api := r.Group("/api")

	account := api.Group("/account")
	account.Post("/register", "account.register", ctx.Wrap(h.Accounts.Register))
	account.Post("/login", "account.login", ctx.Wrap(h.Accounts.Login))
	account.Get("/profile", "account.profile", ctx.Wrap(h.Accounts.Profile), middleware.Authenticate)
	account.Put("/profile", "account.profile.update", ctx.Wrap(h.Accounts.UpdateProfile), middleware.Authenticate)

	store := api.Group("/store")
	store.Get("/products", "products.index", ctx.Wrap(h.Products.Index))
	store.Get("/products/{id}", "products.show", ctx.Wrap(h.Products.Show))

	admin := store.Group("", middleware.Authenticate, rbac.HasRole(h.AdminRole))
	admin.Post("/products", "products.store", ctx.Wrap(h.Products.Store))
	admin.Put("/products/{id}", "products.update", ctx.Wrap(h.Products.Update))
	admin.Delete("/products/{id}", "products.destroy", ctx.Wrap(h.Products.Destroy))
	admin.Post("/products/{id}/image", "products.image", ctx.Wrap(h.Products.UploadImage))

	orders := store.Group("/orders", middleware.Authenticate)
	orders.Post("", "orders.store", ctx.Wrap(h.Orders.Store))
	orders.Get("", "orders.index", ctx.Wrap(h.Orders.Index))
	orders.Get("/{id}", "orders.show", ctx.Wrap(h.Orders.Show))
	orders.Put("/{id}/status", "orders.status", ctx.Wrap(h.Orders.UpdateStatus))

	// The stream authenticates itself from ?token=.
	api.Get("/payment/ws", "payment.ws", ctx.Wrap(h.Payments.Stream))

	payment := api.Group("/payment", middleware.Authenticate)
	payment.Post("", "payment.store", ctx.Wrap(h.Payments.Store))
	payment.Get("/order/{orderId}", "payment.by_order", ctx.Wrap(h.Payments.ByOrder))
	payment.Get("/{id}", "payment.show", ctx.Wrap(h.Payments.Show))
	payment.Put("/{id}/status", "payment.status", ctx.Wrap(h.Payments.UpdateStatus))
}

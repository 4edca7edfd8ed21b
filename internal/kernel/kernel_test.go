package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storefront/internal/kernel"
)

func TestRouteTableListsStoreSurface(t *testing.T) {
	byName := map[string]string{}
	for _, r := range kernel.RouteTable() {
		byName[r.Name] = r.Method + " " + r.Path
	}

	want := map[string]string{
		"health":           "GET /health",
		"account.register": "POST /api/account/register",
		"account.login":    "POST /api/account/login",
		"products.index":   "GET /api/store/products",
		"products.show":    "GET /api/store/products/{id}",
		"products.image":   "POST /api/store/products/{id}/image",
		"orders.show":      "GET /api/store/orders/{id}",
		"orders.status":    "PUT /api/store/orders/{id}/status",
		"payment.ws":       "GET /api/payment/ws",
		"payment.by_order": "GET /api/payment/order/{orderId}",
		"payment.status":   "PUT /api/payment/{id}/status",
	}
	for name, route := range want {
		assert.Equal(t, route, byName[name], name)
	}
}

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupPrefixAndMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := New()
	store := r.Group("/api").Group("store", mw("group"))
	store.Put("/orders/{id}/status", "orders.status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, mw("route"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/store/orders/3/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"group", "route"}, order)
}

func TestNamedRouteURL(t *testing.T) {
	r := New()
	r.Group("/api/payment").Get("/order/{orderId}", "payments.by_order", func(http.ResponseWriter, *http.Request) {})

	url, err := r.URL("payments.by_order", map[string]string{"orderId": "8"})
	require.NoError(t, err)
	assert.Equal(t, "/api/payment/order/8", url)

	_, err = r.URL("payments.by_order", nil)
	assert.Error(t, err)
}

func TestRoutesSorted(t *testing.T) {
	r := New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Delete("/b", "b.delete", noop)
	r.Get("/a", "a.index", noop)
	r.Get("/b", "b.show", noop)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, "/a", routes[0].Path)
	assert.Equal(t, http.MethodDelete, routes[1].Method)
}

func TestNotFoundHandler(t *testing.T) {
	r := New()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

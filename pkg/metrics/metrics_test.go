package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/store/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	before := testutil.CollectAndCount(RequestDuration)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/store/orders/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/store/orders/2", nil))

	assert.Equal(t, before+1, testutil.CollectAndCount(RequestDuration))
}

func TestRecordSettlement(t *testing.T) {
	before := testutil.ToFloat64(PaymentsSettled.WithLabelValues("completed"))
	RecordSettlement("completed", time.Now().Add(-2*time.Second))
	assert.Equal(t, before+1, testutil.ToFloat64(PaymentsSettled.WithLabelValues("completed")))
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordCache("redis", true)
	rec := httptest.NewRecorder()
	Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_cache_lookups_total")
}

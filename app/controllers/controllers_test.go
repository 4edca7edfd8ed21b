package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/gateway"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/schema"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/migration"
	"github.com/shashiranjanraj/storefront/pkg/queue"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/router"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
	"github.com/shashiranjanraj/storefront/pkg/ws"

	_ "github.com/shashiranjanraj/storefront/database/migrations"
)

// nopQueue accepts settlement jobs without running them.
type nopQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (q *nopQueue) DispatchAfter(_ context.Context, job queue.Job, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type testApp struct {
	handler http.Handler
	tokens  map[string]string
	repos   *repositories.Repositories
	hub     *ws.Hub
	root    string
}

// newApp wires the full route table over a fresh sqlite database seeded
// with an admin (id 1), a customer (id 2) and two products (ids 1 and 2).
func newApp(t *testing.T) *testApp {
	t.Helper()
	config.Set("JWT_SECRET", "controller-test-secret")
	config.Set("APP_ENV", "test")

	db := testkit.SQLite(t)
	_, err := migration.New(db).Up(context.Background())
	require.NoError(t, err)
	repos := repositories.New(db)

	tokens := map[string]string{}
	for _, u := range []struct{ key, email, role string }{
		{"admin", "admin@test.com", models.RoleAdmin},
		{"customer", "customer@test.com", models.RoleCustomer},
	} {
		hash, err := auth.HashPassword(u.key + "123")
		require.NoError(t, err)
		user := &models.User{Email: u.email, Password: hash, FirstName: "Test", LastName: u.key, Role: u.role, IsActive: true}
		require.NoError(t, repos.Users.Create(context.Background(), user))
		tokens[u.key], err = auth.GenerateToken(user.ID, user.Email, user.Role)
		require.NoError(t, err)
	}

	for _, p := range []models.Product{
		{Name: "Ceramic Pottery Set", Price: decimal.RequireFromString("45.00"), Stock: 5, Category: "Pottery", IsActive: true},
		{Name: "Wooden Bowl", Price: decimal.RequireFromString("40.00"), Stock: 10, Category: "Woodwork", IsActive: true},
	} {
		p := p
		require.NoError(t, repos.Products.Create(context.Background(), &p))
	}

	root := t.TempDir()
	disk, err := storage.NewLocal(root, "/storage")
	require.NoError(t, err)

	bus := event.New()
	catalog := services.NewCatalogService(repos, cache.NewMemory(), disk)
	payments := services.NewPaymentService(repos, gateway.NewSimulated(1), &nopQueue{}, bus, time.Second)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	catalogSchema, err := schema.New(catalog)
	require.NoError(t, err)

	r := router.New()
	routes.Register(r, routes.Handlers{
		Health:    controllers.NewHealthController(func(ctx context.Context) error { return database.Ping(ctx, db) }),
		Accounts:  controllers.NewAccountController(services.NewAccountService(repos)),
		Products:  controllers.NewProductController(catalog),
		Orders:    controllers.NewOrderController(services.NewOrderService(repos, bus)),
		Payments:  controllers.NewPaymentController(payments, hub),
		GraphQL:   graphql.Handler(catalogSchema),
		Files:     http.FileServer(http.Dir(root)),
		AdminRole: models.RoleAdmin,
	})

	return &testApp{handler: r.Handler(), tokens: tokens, repos: repos, hub: hub, root: root}
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob("testdata/*.json")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		f := f
		t.Run(strings.TrimSuffix(filepath.Base(f), ".json"), func(t *testing.T) {
			app := newApp(t)
			testkit.RunFile(t, app.handler, f, testkit.Options{Tokens: app.tokens})
		})
	}
}

func serve(app *testApp, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "Server is running", body["message"])
	assert.Equal(t, "connected", body["database"])
}

func TestUnknownRoute(t *testing.T) {
	app := newApp(t)
	rec := serve(app, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Message)
}

func TestGraphQLCatalog(t *testing.T) {
	app := newApp(t)
	body := `{"query":"{ products(category: \"Woodwork\") { name price } }"}`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(app, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{"products":[{"name":"Wooden Bowl","price":"40.00"}]}}`, rec.Body.String())
}

func uploadRequest(t *testing.T, url, token, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part := textproto.MIMEHeader{}
	part.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	part.Set("Content-Type", "image/png")
	fw, err := mw.CreatePart(part)
	require.NoError(t, err)
	_, err = fw.Write([]byte("\x89PNG fake image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploadProductImage(t *testing.T) {
	app := newApp(t)

	rec := serve(app, uploadRequest(t, "/api/store/products/1/image", app.tokens["admin"], "set.png"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Data models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, strings.HasPrefix(env.Data.ImageURL, "/storage/products/1/"), env.Data.ImageURL)

	key := strings.TrimPrefix(env.Data.ImageURL, "/storage/")
	_, err := os.Stat(filepath.Join(app.root, filepath.FromSlash(key)))
	require.NoError(t, err)

	file := serve(app, httptest.NewRequest(http.MethodGet, env.Data.ImageURL, nil))
	assert.Equal(t, http.StatusOK, file.Code)
	assert.Equal(t, "\x89PNG fake image", file.Body.String())
}

func TestUploadRejectsCustomersAndBadFiles(t *testing.T) {
	app := newApp(t)

	rec := serve(app, uploadRequest(t, "/api/store/products/1/image", app.tokens["customer"], "set.png"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(app, uploadRequest(t, "/api/store/products/1/image", app.tokens["admin"], "set.exe"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(app, uploadRequest(t, "/api/store/products/99/image", app.tokens["admin"], "set.png"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentStreamRequiresToken(t *testing.T) {
	app := newApp(t)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/api/payment/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/api/payment/ws?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPaymentStreamDeliversToAccount(t *testing.T) {
	app := newApp(t)
	srv := httptest.NewServer(app.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/payment/ws?token=" + app.tokens["customer"]
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, app.hub.SendTo(2, []byte(`{"event":"payment.settled"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"payment.settled"}`, string(msg))
}

package schema_test

import (
	"context"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/schema"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

type fakeCatalog struct {
	products []models.Product
	lastCat  string
}

func (f *fakeCatalog) List(_ context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	f.lastCat = filter.Category
	return f.products, nil
}

func (f *fakeCatalog) Get(_ context.Context, id uint) (*models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("Product not found")
}

func run(t *testing.T, cat *fakeCatalog, query string) *graphql.Result {
	t.Helper()
	s, err := schema.New(cat)
	require.NoError(t, err)
	res := graphql.Do(graphql.Params{Schema: s, RequestString: query, Context: context.Background()})
	require.False(t, res.HasErrors(), "%v", res.Errors)
	return res
}

func catalog() *fakeCatalog {
	return &fakeCatalog{products: []models.Product{
		{ID: 1, Name: "Ceramic Pottery Set", Price: decimal.RequireFromString("85"), Stock: 15, Category: "Pottery", IsActive: true},
		{ID: 2, Name: "Handwoven Bamboo Basket", Price: decimal.RequireFromString("45.5"), Stock: 25, Category: "Baskets", IsActive: true},
	}}
}

func TestProductsQuery(t *testing.T) {
	cat := catalog()
	res := run(t, cat, `{ products(category: "Pottery") { id name price } }`)

	assert.Equal(t, "Pottery", cat.lastCat)
	data := res.Data.(map[string]any)
	list := data["products"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "Ceramic Pottery Set", first["name"])
	assert.Equal(t, "85.00", first["price"])
}

func TestProductQuery(t *testing.T) {
	res := run(t, catalog(), `{ product(id: 2) { name price stock } }`)
	p := res.Data.(map[string]any)["product"].(map[string]any)
	assert.Equal(t, "Handwoven Bamboo Basket", p["name"])
	assert.Equal(t, "45.50", p["price"])
	assert.Equal(t, 25, p["stock"])
}

func TestProductQueryMissingIsNull(t *testing.T) {
	res := run(t, catalog(), `{ product(id: 99) { name } }`)
	assert.Nil(t, res.Data.(map[string]any)["product"])
}

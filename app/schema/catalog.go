// Package schema defines the read-only GraphQL view of the catalog.
package schema

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

// Catalog is the subset of the catalog service the schema reads from.
type Catalog interface {
	List(ctx context.Context, f repositories.ProductFilter) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
}

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description": &graphql.Field{Type: graphql.String},
		"price": &graphql.Field{
			Type: graphql.NewNonNull(graphql.String),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(models.Product).Price.StringFixed(2), nil
			},
		},
		"stock":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"category": &graphql.Field{Type: graphql.String},
		"imageUrl": &graphql.Field{Type: graphql.String},
		"isActive": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
		"createdAt": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(models.Product).CreatedAt.UTC().Format(time.RFC3339), nil
			},
		},
	},
})

// New builds the schema:
//
//	{ products(category: "Pottery") { id name price stock } }
//	{ product(id: 3) { name imageUrl } }
func New(catalog Catalog) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: graphql.NewList(productType),
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"isActive": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					var f repositories.ProductFilter
					if c, ok := p.Args["category"].(string); ok {
						f.Category = c
					}
					if a, ok := p.Args["isActive"].(bool); ok {
						f.IsActive = &a
					}
					return catalog.List(p.Context, f)
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, nil
					}
					product, err := catalog.Get(p.Context, uint(id))
					if apperr.Is(err, apperr.KindNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return *product, nil
				},
			},
		},
	})
	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

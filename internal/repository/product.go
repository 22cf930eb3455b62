// Package repository implements the domain persistence interfaces over the
// flat-file collection store.
package repository

import (
	"context"

	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/store"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository persists the product catalog in the "products"
// collection.
type ProductRepository struct {
	collection *store.Collection[product.Product]
}

// NewProductRepository returns a ProductRepository backed by the given store.
func NewProductRepository(s *store.Store) *ProductRepository {
	return &ProductRepository{
		collection: store.NewCollection[product.Product](s, "products"),
	}
}

// All loads the full catalog. A read failure surfaces as an empty catalog.
func (r *ProductRepository) All(ctx context.Context) []product.Product {
	return r.collection.Load(ctx)
}

// ReplaceAll persists the full catalog.
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []product.Product) error {
	return r.collection.Save(ctx, products)
}

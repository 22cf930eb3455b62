package repository

import (
	"context"

	"github.com/webkite/storefront/internal/domain/order"
	"github.com/webkite/storefront/internal/store"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository persists orders in the "orders" collection.
type OrderRepository struct {
	collection *store.Collection[order.Order]
}

// NewOrderRepository returns an OrderRepository backed by the given store.
func NewOrderRepository(s *store.Store) *OrderRepository {
	return &OrderRepository{
		collection: store.NewCollection[order.Order](s, "orders"),
	}
}

// All loads every stored order. A read failure surfaces as an empty
// collection.
func (r *OrderRepository) All(ctx context.Context) []order.Order {
	return r.collection.Load(ctx)
}

// ReplaceAll persists the full order collection.
func (r *OrderRepository) ReplaceAll(ctx context.Context, orders []order.Order) error {
	return r.collection.Save(ctx, orders)
}

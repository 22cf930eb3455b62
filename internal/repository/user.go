package repository

import (
	"context"

	"github.com/webkite/storefront/internal/domain/user"
	"github.com/webkite/storefront/internal/store"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository persists accounts in the "users" collection.
type UserRepository struct {
	collection *store.Collection[user.User]
}

// NewUserRepository returns a UserRepository backed by the given store.
func NewUserRepository(s *store.Store) *UserRepository {
	return &UserRepository{
		collection: store.NewCollection[user.User](s, "users"),
	}
}

// All loads every account. A read failure surfaces as an empty collection.
func (r *UserRepository) All(ctx context.Context) []user.User {
	return r.collection.Load(ctx)
}

// ReplaceAll persists the full user collection.
func (r *UserRepository) ReplaceAll(ctx context.Context, users []user.User) error {
	return r.collection.Save(ctx, users)
}

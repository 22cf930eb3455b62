// Package user defines the user entity referenced by orders and the role
// model used for authorization.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// Role is the authorization role carried by a caller identity.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is an account holder. Email is unique case-insensitively.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Repository defines whole-collection persistence for users. Reads are
// fail-open (a storage read problem surfaces as an empty collection), writes
// report failure.
type Repository interface {
	All(ctx context.Context) []User
	ReplaceAll(ctx context.Context, users []User) error
}

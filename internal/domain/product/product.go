// Package product defines the catalog entity and its persistence contract.
package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// DuplicateNameError indicates a create or rename collides with an existing
// product name. Names are unique case-insensitively.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("product name %q already exists", e.Name)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Repository defines whole-collection persistence for the catalog. Reads are
// fail-open, writes report failure.
type Repository interface {
	All(ctx context.Context) []Product
	ReplaceAll(ctx context.Context, products []Product) error
}

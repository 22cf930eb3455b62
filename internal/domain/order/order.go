// Package order implements the order entity, its validation and pricing
// rules, and the repository operations built on top of them.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the order lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// InvalidStatusError indicates a status transition to an unknown status.
type InvalidStatusError struct {
	Status Status
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("invalid order status %q", e.Status)
}

// ValidationError indicates a missing or malformed input field. Validation
// stops at the first failing field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// UnknownProductError indicates a line item references a product that does
// not exist in the catalog. The whole order is rejected.
type UnknownProductError struct {
	ProductID int64
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// TotalMismatchError indicates the client-declared total disagrees with the
// total recomputed from catalog prices beyond the accepted tolerance.
type TotalMismatchError struct {
	Computed decimal.Decimal
	Declared decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("order total mismatch: computed %s, provided %s", e.Computed, e.Declared)
}

// CustomerInfo is the billing snapshot captured at order time. It is not
// live-linked to the user account.
type CustomerInfo struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
}

// LineItem is one product entry within an order. Name and price are captured
// from the catalog at order time and stay fixed even if the catalog changes.
type LineItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order is a persisted customer order. UserID is nil for guest checkouts;
// the reference is weak, deleting a user does not cascade.
type Order struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	UserID        *int64          `json:"userId"`
	CustomerInfo  CustomerInfo    `json:"customerInfo"`
	Items         []LineItem      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        Status          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Repository defines whole-collection persistence for orders. Reads are
// fail-open, writes report failure.
type Repository interface {
	All(ctx context.Context) []Order
	ReplaceAll(ctx context.Context, orders []Order) error
}

// Package catalog provides read access to the product catalog for order
// validation and listings, plus the admin-side create/update/delete
// operations.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/webkite/storefront/internal/auth"
	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/domain/user"
	"github.com/webkite/storefront/internal/query"
)

// DefaultFeaturedLimit bounds the featured listing when the caller does not
// specify a limit.
const DefaultFeaturedLimit = 8

// ValidationError indicates a missing or malformed product input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// ProductInput holds the fields for creating or updating a catalog product.
type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Category    string
	Description string
	Image       string
	Featured    bool
}

// ListQuery holds the filter and pagination parameters for product listings.
// A zero Limit returns the whole catalog on one page.
type ListQuery struct {
	Category string
	Search   string
	Featured *bool
	Page     int
	Limit    int
}

// Service implements catalog lookups and admin mutations over the product
// repository.
type Service struct {
	products product.Repository
	now      func() time.Time
}

// NewService creates a catalog Service.
func NewService(products product.Repository) *Service {
	return &Service{
		products: products,
		now:      time.Now,
	}
}

// List returns a filtered, paginated page of products in catalog order.
func (s *Service) List(ctx context.Context, q ListQuery) (query.Result[product.Product], error) {
	page := q.Page
	if page == 0 {
		page = 1
	}
	limit := q.Limit
	switch {
	case limit == 0:
		limit = query.NoLimit
	case limit < 0:
		// Negative limits must not alias the unpaginated mode.
		return query.Result[product.Product]{}, errors.Wrapf(query.ErrInvalidQuery, "limit %d", limit)
	}

	var filters []query.Predicate[product.Product]
	if q.Category != "" {
		filters = append(filters, func(p product.Product) bool {
			return strings.EqualFold(p.Category, q.Category)
		})
	}
	if q.Featured != nil {
		want := *q.Featured
		filters = append(filters, func(p product.Product) bool {
			return p.Featured == want
		})
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		filters = append(filters, func(p product.Product) bool {
			return matchesSearch(p, term)
		})
	}

	return query.Run(s.products.All(ctx), filters, nil, page, limit)
}

// FindByID returns a single product by its identifier.
func (s *Service) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	for _, p := range s.products.All(ctx) {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// FindByName returns the product whose name matches case-insensitively.
func (s *Service) FindByName(ctx context.Context, name string) (*product.Product, error) {
	for _, p := range s.products.All(ctx) {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

// DistinctCategories returns the set of category names, sorted.
func (s *Service) DistinctCategories(ctx context.Context) []string {
	seen := make(map[string]struct{})
	var categories []string
	for _, p := range s.products.All(ctx) {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories
}

// Featured returns up to limit products flagged as featured. When nothing is
// flagged it falls back to the first limit products in catalog order, so the
// storefront front page is never empty.
func (s *Service) Featured(ctx context.Context, limit int) []product.Product {
	if limit <= 0 {
		limit = DefaultFeaturedLimit
	}

	all := s.products.All(ctx)
	featured := make([]product.Product, 0, limit)
	for _, p := range all {
		if p.Featured {
			featured = append(featured, p)
		}
	}
	if len(featured) == 0 {
		featured = all
	}
	if len(featured) > limit {
		featured = featured[:limit]
	}
	return featured
}

// Create adds a product to the catalog. Admin only; names are unique
// case-insensitively.
func (s *Service) Create(ctx context.Context, input ProductInput, ident auth.Identity) (*product.Product, error) {
	if err := auth.Require(ident.Role, user.RoleAdmin); err != nil {
		return nil, err
	}
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	all := s.products.All(ctx)
	if conflictsByName(all, input.Name, 0) {
		return nil, &product.DuplicateNameError{Name: input.Name}
	}

	now := s.now().UTC()
	p := product.Product{
		ID:          nextID(all),
		Name:        input.Name,
		Price:       input.Price,
		Category:    input.Category,
		Description: input.Description,
		Image:       input.Image,
		Featured:    input.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	all = append(all, p)
	if err := s.products.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist product")
	}
	return &p, nil
}

// Update replaces a product's mutable fields. Admin only; renames must not
// collide with another product's name.
func (s *Service) Update(ctx context.Context, id int64, input ProductInput, ident auth.Identity) (*product.Product, error) {
	if err := auth.Require(ident.Role, user.RoleAdmin); err != nil {
		return nil, err
	}
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	all := s.products.All(ctx)
	i := indexByID(all, id)
	if i < 0 {
		return nil, product.ErrNotFound
	}
	if conflictsByName(all, input.Name, id) {
		return nil, &product.DuplicateNameError{Name: input.Name}
	}

	all[i].Name = input.Name
	all[i].Price = input.Price
	all[i].Category = input.Category
	all[i].Description = input.Description
	all[i].Image = input.Image
	all[i].Featured = input.Featured
	all[i].UpdatedAt = s.now().UTC()

	if err := s.products.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist product update")
	}
	p := all[i]
	return &p, nil
}

// Delete removes a product and returns the deleted record. Admin only.
// Existing orders keep their captured name and price.
func (s *Service) Delete(ctx context.Context, id int64, ident auth.Identity) (*product.Product, error) {
	if err := auth.Require(ident.Role, user.RoleAdmin); err != nil {
		return nil, err
	}

	all := s.products.All(ctx)
	i := indexByID(all, id)
	if i < 0 {
		return nil, product.ErrNotFound
	}

	deleted := all[i]
	all = append(all[:i], all[i+1:]...)
	if err := s.products.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist product delete")
	}
	return &deleted, nil
}

func validateInput(input ProductInput) (ProductInput, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	if input.Name == "" {
		return ProductInput{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if !input.Price.IsPositive() {
		return ProductInput{}, &ValidationError{Field: "price", Reason: "must be greater than 0"}
	}
	return input, nil
}

func matchesSearch(p product.Product, term string) bool {
	for _, field := range []string{p.Name, p.Description, p.Category} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// conflictsByName reports whether another product (id != selfID) already uses
// the name, case-insensitively.
func conflictsByName(products []product.Product, name string, selfID int64) bool {
	for _, p := range products {
		if p.ID != selfID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func indexByID(products []product.Product, id int64) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func nextID(products []product.Product) int64 {
	var maxID int64
	for _, p := range products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

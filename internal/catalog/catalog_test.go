package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webkite/storefront/internal/auth"
	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/domain/user"
	"github.com/webkite/storefront/internal/query"
)

type mockProductRepo struct {
	products []product.Product
	saveErr  error
}

func (m *mockProductRepo) All(_ context.Context) []product.Product {
	return append([]product.Product{}, m.products...)
}

func (m *mockProductRepo) ReplaceAll(_ context.Context, products []product.Product) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.products = products
	return nil
}

func seedProducts() []product.Product {
	return []product.Product{
		{ID: 1, Name: "Waffle with Berries", Price: decimal.RequireFromString("6.50"), Category: "Waffle"},
		{ID: 2, Name: "Vanilla Panna Cotta", Price: decimal.RequireFromString("7.00"), Category: "Dessert", Featured: true},
		{ID: 3, Name: "Macaron Mix", Price: decimal.RequireFromString("8.00"), Category: "Macaron"},
		{ID: 4, Name: "Classic Tiramisu", Price: decimal.RequireFromString("5.50"), Category: "Dessert"},
	}
}

var (
	asAdmin    = auth.Identity{UserID: 1, Role: user.RoleAdmin}
	asCustomer = auth.Identity{UserID: 2, Role: user.RoleCustomer}
)

func validInput(name string) ProductInput {
	return ProductInput{Name: name, Price: decimal.RequireFromString("4.20"), Category: "Cake"}
}

func TestList_NoLimitReturnsWholeCatalog(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	result, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)

	assert.Len(t, result.Items, 4)
	assert.Equal(t, 1, result.TotalPages)
}

func TestList_CategoryFilterIsCaseInsensitive(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	result, err := svc.List(context.Background(), ListQuery{Category: "dessert"})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, int64(2), result.Items[0].ID)
	assert.Equal(t, int64(4), result.Items[1].ID)
}

func TestList_SearchMatchesName(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	result, err := svc.List(context.Background(), ListQuery{Search: "tiramisu"})
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(4), result.Items[0].ID)
}

func TestList_InvalidPage(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.List(context.Background(), ListQuery{Page: -1, Limit: 2})
	assert.ErrorIs(t, err, query.ErrInvalidQuery)
}

func TestList_NegativeLimitRejected(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	// Negative limits must not alias the unpaginated mode.
	_, err := svc.List(context.Background(), ListQuery{Limit: -1})
	assert.ErrorIs(t, err, query.ErrInvalidQuery)
}

func TestFindByID(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	p, err := svc.FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Macaron Mix", p.Name)

	_, err = svc.FindByID(context.Background(), 99)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestFindByName_CaseInsensitive(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	p, err := svc.FindByName(context.Background(), "macaron mix")
	require.NoError(t, err)
	assert.Equal(t, int64(3), p.ID)

	_, err = svc.FindByName(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestDistinctCategories_SortedAndUnique(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	got := svc.DistinctCategories(context.Background())
	assert.Equal(t, []string{"Dessert", "Macaron", "Waffle"}, got)
}

func TestFeatured_ReturnsFlaggedProducts(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	got := svc.Featured(context.Background(), 8)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestFeatured_FallsBackToFirstN(t *testing.T) {
	products := seedProducts()
	products[1].Featured = false
	svc := NewService(&mockProductRepo{products: products})

	got := svc.Featured(context.Background(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)
}

func TestCreate(t *testing.T) {
	repo := &mockProductRepo{products: seedProducts()}
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), validInput("Lemon Cake"), asAdmin)
	require.NoError(t, err)

	assert.Equal(t, int64(5), p.ID)
	assert.Equal(t, "Lemon Cake", p.Name)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Len(t, repo.products, 5)
}

func TestCreate_AdminOnly(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Create(context.Background(), validInput("Lemon Cake"), asCustomer)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestCreate_DuplicateNameCaseInsensitive(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Create(context.Background(), validInput("MACARON MIX"), asAdmin)

	var dup *product.DuplicateNameError
	require.ErrorAs(t, err, &dup)
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(&mockProductRepo{})

	tests := []struct {
		name  string
		input ProductInput
		field string
	}{
		{"blank name", ProductInput{Name: "  ", Price: decimal.NewFromInt(1)}, "name"},
		{"zero price", ProductInput{Name: "x", Price: decimal.Zero}, "price"},
		{"negative price", ProductInput{Name: "x", Price: decimal.NewFromInt(-1)}, "price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input, asAdmin)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestUpdate(t *testing.T) {
	repo := &mockProductRepo{products: seedProducts()}
	svc := NewService(repo)

	input := validInput("Macaron Mix Deluxe")
	p, err := svc.Update(context.Background(), 3, input, asAdmin)
	require.NoError(t, err)

	assert.Equal(t, "Macaron Mix Deluxe", p.Name)
	assert.True(t, p.Price.Equal(input.Price))
	assert.Equal(t, "Macaron Mix Deluxe", repo.products[2].Name)
}

func TestUpdate_KeepingOwnNameIsNotAConflict(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Update(context.Background(), 3, validInput("macaron mix"), asAdmin)
	assert.NoError(t, err)
}

func TestUpdate_RenameCollision(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Update(context.Background(), 3, validInput("classic tiramisu"), asAdmin)

	var dup *product.DuplicateNameError
	require.ErrorAs(t, err, &dup)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Update(context.Background(), 99, validInput("x"), asAdmin)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo := &mockProductRepo{products: seedProducts()}
	svc := NewService(repo)

	p, err := svc.Delete(context.Background(), 2, asAdmin)
	require.NoError(t, err)

	assert.Equal(t, int64(2), p.ID)
	assert.Len(t, repo.products, 3)
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Delete(context.Background(), 99, asAdmin)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestDelete_AdminOnly(t *testing.T) {
	svc := NewService(&mockProductRepo{products: seedProducts()})

	_, err := svc.Delete(context.Background(), 1, asCustomer)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webkite/storefront/internal/auth"
	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/domain/user"
	"github.com/webkite/storefront/internal/query"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID map[int64]product.Product
}

func (m *mockCatalog) FindByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

type mockOrderRepo struct {
	orders  []Order
	saveErr error
	saves   int
}

func (m *mockOrderRepo) All(_ context.Context) []Order {
	return append([]Order{}, m.orders...)
}

func (m *mockOrderRepo) ReplaceAll(_ context.Context, orders []Order) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.orders = orders
	m.saves++
	return nil
}

// --- Helpers ---

func newCatalog(products ...product.Product) *mockCatalog {
	byID := make(map[int64]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockCatalog{byID: byID}
}

func testProduct(id int64, name, price string) product.Product {
	return product.Product{
		ID:    id,
		Name:  name,
		Price: decimal.RequireFromString(price),
	}
}

func newTestService(catalog Catalog, repo Repository) *Service {
	svc := NewService(catalog, repo)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func validRequest(items []ItemRequest, total string) CreateRequest {
	return CreateRequest{
		CustomerInfo: CustomerInfo{
			Email:     "jo@example.com",
			FirstName: "Jo",
			LastName:  "Smith",
			Address:   "1 Main St",
			City:      "Springfield",
			ZipCode:   "12345",
		},
		PaymentMethod: "card",
		Items:         items,
		DeclaredTotal: decimal.RequireFromString(total),
	}
}

var (
	admin    = auth.Identity{UserID: 99, Role: user.RoleAdmin}
	customer = auth.Identity{UserID: 1, Role: user.RoleCustomer}
)

func userID(id int64) *int64 { return &id }

// --- Create ---

func TestCreate_PricesFromCatalog(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), repo)

	o, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 2}}, "19.98",
	))
	require.NoError(t, err)

	assert.True(t, o.Total.Equal(decimal.RequireFromString("19.98")), "total %s", o.Total)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, "paid", o.PaymentStatus)
	assert.Equal(t, int64(1), o.ID)
	assert.NotEmpty(t, o.OrderNumber)

	require.Len(t, o.Items, 1)
	item := o.Items[0]
	assert.Equal(t, "Waffle", item.Name)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.Subtotal.Equal(decimal.RequireFromString("19.98")))

	require.Len(t, repo.orders, 1, "order persisted")
}

func TestCreate_TotalMismatch(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), repo)

	_, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 2}}, "25.00",
	))

	var mismatch *TotalMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Computed.Equal(decimal.RequireFromString("19.98")))
	assert.True(t, mismatch.Declared.Equal(decimal.RequireFromString("25.00")))
	assert.Empty(t, repo.orders, "no partial persistence")
}

func TestCreate_TotalWithinTolerance(t *testing.T) {
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), &mockOrderRepo{})

	// Off by exactly 0.01: accepted, and the computed value is stored.
	o, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 2}}, "19.97",
	))
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(decimal.RequireFromString("19.98")))
}

func TestCreate_TotalJustOutsideTolerance(t *testing.T) {
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), &mockOrderRepo{})

	_, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 2}}, "19.96",
	))

	var mismatch *TotalMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestCreate_UnknownProduct(t *testing.T) {
	repo := &mockOrderRepo{}
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), repo)

	_, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 1}, {ProductID: 42, Quantity: 1}}, "9.99",
	))

	var unknown *UnknownProductError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(42), unknown.ProductID)
	assert.Empty(t, repo.orders)
}

func TestCreate_InvalidQuantity(t *testing.T) {
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), &mockOrderRepo{})

	_, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 0}}, "9.99",
	))

	var invalid *InvalidQuantityError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, int64(1), invalid.ProductID)
}

func TestCreate_MissingFields(t *testing.T) {
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), &mockOrderRepo{})

	tests := []struct {
		name   string
		mutate func(*CreateRequest)
		field  string
	}{
		{"email", func(r *CreateRequest) { r.CustomerInfo.Email = "  " }, "email"},
		{"first name", func(r *CreateRequest) { r.CustomerInfo.FirstName = "" }, "firstName"},
		{"zip code", func(r *CreateRequest) { r.CustomerInfo.ZipCode = "" }, "zipCode"},
		{"payment method", func(r *CreateRequest) { r.PaymentMethod = "" }, "paymentMethod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest([]ItemRequest{{ProductID: 1, Quantity: 1}}, "9.99")
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreate_EmptyItems(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	_, err := svc.Create(context.Background(), validRequest(nil, "9.99"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items", verr.Field)
}

func TestCreate_NonPositiveTotal(t *testing.T) {
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), &mockOrderRepo{})

	req := validRequest([]ItemRequest{{ProductID: 1, Quantity: 1}}, "9.99")
	req.DeclaredTotal = decimal.Zero
	_, err := svc.Create(context.Background(), req)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total", verr.Field)
}

func TestCreate_AssignsMonotonicIDs(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{{ID: 7}}}
	svc := newTestService(newCatalog(testProduct(1, "Waffle", "9.99")), repo)

	o, err := svc.Create(context.Background(), validRequest(
		[]ItemRequest{{ProductID: 1, Quantity: 1}}, "9.99",
	))
	require.NoError(t, err)
	assert.Equal(t, int64(8), o.ID)
}

// --- List ---

func seededOrders(base time.Time) []Order {
	return []Order{
		{ID: 1, UserID: userID(1), Status: StatusCompleted, OrderNumber: "ORD-1", CreatedAt: base},
		{ID: 2, UserID: userID(2), Status: StatusPending, OrderNumber: "ORD-2", CreatedAt: base.Add(time.Hour)},
		{ID: 3, UserID: userID(1), Status: StatusPending, OrderNumber: "ORD-3", CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, UserID: nil, Status: StatusCompleted, OrderNumber: "ORD-4", CreatedAt: base.Add(3 * time.Hour)},
	}
}

func TestList_ScopedToOwnOrders(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	result, err := svc.List(context.Background(), ListQuery{}, customer)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	for _, o := range result.Items {
		require.NotNil(t, o.UserID)
		assert.Equal(t, int64(1), *o.UserID)
	}
	assert.Equal(t, 2, result.Total)
}

func TestList_AdminSeesAll_NewestFirst(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	result, err := svc.List(context.Background(), ListQuery{}, admin)
	require.NoError(t, err)

	require.Len(t, result.Items, 4)
	ids := []int64{result.Items[0].ID, result.Items[1].ID, result.Items[2].ID, result.Items[3].ID}
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)
}

func TestList_StatusFilter(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	result, err := svc.List(context.Background(), ListQuery{Status: "pending"}, admin)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	for _, o := range result.Items {
		assert.Equal(t, StatusPending, o.Status)
	}
}

func TestList_PageBeyondLast(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	result, err := svc.List(context.Background(), ListQuery{Page: 5, Limit: 2}, admin)
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.TotalPages)
}

func TestList_NegativeLimitRejected(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	// A negative limit must not alias the internal unpaginated mode and dump
	// the whole collection.
	_, err := svc.List(context.Background(), ListQuery{Limit: -1}, admin)
	assert.ErrorIs(t, err, query.ErrInvalidQuery)

	_, err = svc.List(context.Background(), ListQuery{Limit: -2}, admin)
	assert.ErrorIs(t, err, query.ErrInvalidQuery)
}

func TestList_SearchByOrderNumber(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	result, err := svc.List(context.Background(), ListQuery{Search: "ord-3"}, admin)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(3), result.Items[0].ID)
}

// --- Get ---

func TestGet_OwnerAndAdmin(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	o, err := svc.Get(context.Background(), 1, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), o.ID)

	o, err = svc.Get(context.Background(), 2, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), o.ID)
}

func TestGet_ForbiddenForOtherUser(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	_, err := svc.Get(context.Background(), 2, customer)
	assert.ErrorIs(t, err, auth.ErrForbidden)

	// Guest orders are only visible to admins.
	_, err = svc.Get(context.Background(), 4, customer)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	_, err := svc.Get(context.Background(), 123, admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- UpdateStatus ---

func TestUpdateStatus(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	o, err := svc.UpdateStatus(context.Background(), 1, StatusRefunded, admin)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, o.Status)
	assert.Equal(t, svc.now(), o.UpdatedAt)
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	_, err := svc.UpdateStatus(context.Background(), 1, StatusRefunded, customer)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	_, err := svc.UpdateStatus(context.Background(), 1, Status("shipped"), admin)

	var invalid *InvalidStatusError
	require.ErrorAs(t, err, &invalid)
}

// --- Delete ---

func TestDelete(t *testing.T) {
	repo := &mockOrderRepo{orders: seededOrders(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))}
	svc := newTestService(newCatalog(), repo)

	o, err := svc.Delete(context.Background(), 2, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), o.ID)
	assert.Len(t, repo.orders, 3)
}

func TestDelete_NotFound(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	_, err := svc.Delete(context.Background(), 7, admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_AdminOnly(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	_, err := svc.Delete(context.Background(), 1, customer)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

// --- Stats ---

func TestStatsSummary_Empty(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	st, err := svc.StatsSummary(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 0, st.TotalOrders)
	assert.True(t, st.TotalRevenue.IsZero())
	assert.True(t, st.AverageOrderValue.IsZero(), "no division fault on zero orders")
}

func TestStatsSummary(t *testing.T) {
	repo := &mockOrderRepo{orders: []Order{
		{ID: 1, Status: StatusCompleted, Total: decimal.RequireFromString("10.00")},
		{ID: 2, Status: StatusPending, Total: decimal.RequireFromString("20.00")},
		{ID: 3, Status: StatusCancelled, Total: decimal.RequireFromString("3.00")},
	}}
	svc := newTestService(newCatalog(), repo)

	st, err := svc.StatsSummary(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 3, st.TotalOrders)
	assert.True(t, st.TotalRevenue.Equal(decimal.RequireFromString("33.00")))
	assert.Equal(t, 1, st.CompletedOrders)
	assert.Equal(t, 1, st.PendingOrders)
	assert.Equal(t, 1, st.CancelledOrders)
	assert.True(t, st.AverageOrderValue.Equal(decimal.RequireFromString("11.00")))
}

func TestStatsSummary_AdminOnly(t *testing.T) {
	svc := newTestService(newCatalog(), &mockOrderRepo{})

	_, err := svc.StatsSummary(context.Background(), customer)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

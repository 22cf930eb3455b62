package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/webkite/storefront/internal/auth"
	"github.com/webkite/storefront/internal/domain/product"
	"github.com/webkite/storefront/internal/domain/user"
	"github.com/webkite/storefront/internal/query"
)

// DefaultPageSize is used when a listing caller does not specify a limit.
const DefaultPageSize = 10

// totalTolerance is the maximum absolute difference allowed between the
// client-declared total and the total recomputed from catalog prices.
var totalTolerance = decimal.New(1, -2) // 0.01

// Catalog resolves products during order validation. Prices always come from
// here, never from the request.
type Catalog interface {
	FindByID(ctx context.Context, id int64) (*product.Product, error)
}

// ItemRequest is one requested line: a product reference and a quantity.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	CustomerInfo  CustomerInfo
	PaymentMethod string
	Items         []ItemRequest
	DeclaredTotal decimal.Decimal
	UserID        *int64
}

// ListQuery holds the filter and pagination parameters for listing orders.
// Zero Page and Limit fall back to page 1 and DefaultPageSize.
type ListQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// Stats is the admin summary over all orders.
type Stats struct {
	TotalOrders       int             `json:"totalOrders"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	CompletedOrders   int             `json:"completedOrders"`
	PendingOrders     int             `json:"pendingOrders"`
	CancelledOrders   int             `json:"cancelledOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// Service encapsulates order validation, pricing, and repository operations.
type Service struct {
	catalog Catalog
	orders  Repository
	now     func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(catalog Catalog, orders Repository) *Service {
	return &Service{
		catalog: catalog,
		orders:  orders,
		now:     time.Now,
	}
}

// Create validates the request, prices every line from the catalog,
// reconciles the declared total, and persists the order. No real payment is
// captured: the stored order is completed and marked paid. Validation fails
// before any mutation; there are no partial orders.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	info, err := validateCustomerInfo(req.CustomerInfo)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, &ValidationError{Field: "paymentMethod", Reason: "required"}
	}
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	if !req.DeclaredTotal.IsPositive() {
		return nil, &ValidationError{Field: "total", Reason: "must be greater than 0"}
	}

	// Resolve each line against the catalog and accumulate the server-side
	// total. An unresolved product or bad quantity aborts the whole order.
	items := make([]LineItem, len(req.Items))
	computed := decimal.Zero
	for i, item := range req.Items {
		p, err := s.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &UnknownProductError{ProductID: item.ProductID}
			}
			return nil, errors.Wrapf(err, "resolve product %d", item.ProductID)
		}
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID, Quantity: item.Quantity}
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		items[i] = LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		}
		computed = computed.Add(subtotal)
	}

	// The one integrity check that must never be skipped: the client's total
	// may be stale or tampered with, so it only passes within tolerance of
	// the recomputed one, and the recomputed value is what gets stored.
	if computed.Sub(req.DeclaredTotal).Abs().GreaterThan(totalTolerance) {
		return nil, &TotalMismatchError{Computed: computed, Declared: req.DeclaredTotal}
	}

	all := s.orders.All(ctx)
	now := s.now().UTC()
	id := nextID(all)

	o := Order{
		ID:            id,
		OrderNumber:   fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), id),
		UserID:        req.UserID,
		CustomerInfo:  info,
		Items:         items,
		Total:         computed,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		Status:        StatusCompleted,
		PaymentStatus: "paid",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	all = append(all, o)
	if err := s.orders.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist order")
	}
	return &o, nil
}

// List returns a filtered, newest-first, paginated page of orders. Admins see
// every order; any other caller is scoped to their own orders regardless of
// the supplied filters.
func (s *Service) List(ctx context.Context, q ListQuery, ident auth.Identity) (query.Result[Order], error) {
	page := q.Page
	if page == 0 {
		page = 1
	}
	limit := q.Limit
	switch {
	case limit == 0:
		limit = DefaultPageSize
	case limit < 0:
		// Negative limits must not alias the unpaginated mode.
		return query.Result[Order]{}, errors.Wrapf(query.ErrInvalidQuery, "limit %d", limit)
	}

	var filters []query.Predicate[Order]
	if !ident.IsAdmin() {
		callerID := ident.UserID
		filters = append(filters, func(o Order) bool {
			return o.UserID != nil && *o.UserID == callerID
		})
	}
	if q.Status != "" {
		filters = append(filters, func(o Order) bool {
			return o.Status == Status(q.Status)
		})
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		filters = append(filters, func(o Order) bool {
			return matchesSearch(o, term)
		})
	}

	newestFirst := func(a, b Order) bool { return a.CreatedAt.After(b.CreatedAt) }

	return query.Run(s.orders.All(ctx), filters, newestFirst, page, limit)
}

// Get returns a single order. Callers that are neither admin nor the order's
// owner get ErrForbidden.
func (s *Service) Get(ctx context.Context, id int64, ident auth.Identity) (*Order, error) {
	all := s.orders.All(ctx)
	i := indexByID(all, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	o := all[i]
	if !ident.IsAdmin() && (o.UserID == nil || *o.UserID != ident.UserID) {
		return nil, auth.ErrForbidden
	}
	return &o, nil
}

// UpdateStatus transitions an order to a new status. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, ident auth.Identity) (*Order, error) {
	if err := auth.Require(ident.Role, user.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, &InvalidStatusError{Status: status}
	}

	all := s.orders.All(ctx)
	i := indexByID(all, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	all[i].Status = status
	all[i].UpdatedAt = s.now().UTC()
	if err := s.orders.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist status update")
	}
	o := all[i]
	return &o, nil
}

// Delete removes an order and returns the deleted record. Admin only.
func (s *Service) Delete(ctx context.Context, id int64, ident auth.Identity) (*Order, error) {
	if err := auth.Require(ident.Role, user.RoleAdmin); err != nil {
		return nil, err
	}

	all := s.orders.All(ctx)
	i := indexByID(all, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	deleted := all[i]
	all = append(all[:i], all[i+1:]...)
	if err := s.orders.ReplaceAll(ctx, all); err != nil {
		return nil, errors.Wrap(err, "persist delete")
	}
	return &deleted, nil
}

// StatsSummary aggregates order counts and revenue. Admin only. With zero
// orders every figure is zero, including the average.
func (s *Service) StatsSummary(ctx context.Context, ident auth.Identity) (*Stats, error) {
	if err := auth.Require(ident.Role, user.RoleAdmin); err != nil {
		return nil, err
	}

	all := s.orders.All(ctx)
	st := &Stats{
		TotalOrders:       len(all),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}
	for _, o := range all {
		st.TotalRevenue = st.TotalRevenue.Add(o.Total)
		switch o.Status {
		case StatusCompleted:
			st.CompletedOrders++
		case StatusPending:
			st.PendingOrders++
		case StatusCancelled:
			st.CancelledOrders++
		}
	}
	if st.TotalOrders > 0 {
		st.AverageOrderValue = st.TotalRevenue.
			Div(decimal.NewFromInt(int64(st.TotalOrders))).
			Round(2)
	}
	return st, nil
}

func validateCustomerInfo(info CustomerInfo) (CustomerInfo, error) {
	trimmed := CustomerInfo{
		Email:     strings.TrimSpace(info.Email),
		FirstName: strings.TrimSpace(info.FirstName),
		LastName:  strings.TrimSpace(info.LastName),
		Address:   strings.TrimSpace(info.Address),
		City:      strings.TrimSpace(info.City),
		ZipCode:   strings.TrimSpace(info.ZipCode),
	}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"email", trimmed.Email},
		{"firstName", trimmed.FirstName},
		{"lastName", trimmed.LastName},
		{"address", trimmed.Address},
		{"city", trimmed.City},
		{"zipCode", trimmed.ZipCode},
	} {
		if f.value == "" {
			return CustomerInfo{}, &ValidationError{Field: f.name, Reason: "required"}
		}
	}
	return trimmed, nil
}

func matchesSearch(o Order, term string) bool {
	for _, field := range []string{
		o.OrderNumber,
		o.CustomerInfo.Email,
		o.CustomerInfo.FirstName,
		o.CustomerInfo.LastName,
	} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func indexByID(orders []Order, id int64) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func nextID(orders []Order) int64 {
	var maxID int64
	for _, o := range orders {
		if o.ID > maxID {
			maxID = o.ID
		}
	}
	return maxID + 1
}

package api

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webkite/storefront/internal/domain/order"
)

type orderItemRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type createOrderRequest struct {
	Email         string             `json:"email"`
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Address       string             `json:"address"`
	City          string             `json:"city"`
	ZipCode       string             `json:"zipCode"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []orderItemRequest `json:"items"`
	Total         float64            `json:"total"`
	UserID        *int64             `json:"userId"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type lineItemResponse struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type orderResponse struct {
	ID            int64              `json:"id"`
	OrderNumber   string             `json:"orderNumber"`
	UserID        *int64             `json:"userId"`
	CustomerInfo  order.CustomerInfo `json:"customerInfo"`
	Items         []lineItemResponse `json:"items"`
	Total         float64            `json:"total"`
	PaymentMethod string             `json:"paymentMethod"`
	Status        order.Status       `json:"status"`
	PaymentStatus string             `json:"paymentStatus"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type orderListResponse struct {
	Items      []orderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

type statsResponse struct {
	TotalOrders       int     `json:"totalOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	CompletedOrders   int     `json:"completedOrders"`
	PendingOrders     int     `json:"pendingOrders"`
	CancelledOrders   int     `json:"cancelledOrders"`
	AverageOrderValue float64 `json:"averageOrderValue"`
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]lineItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = lineItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price.InexactFloat64(),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		CustomerInfo:  o.CustomerInfo,
		Items:         items,
		Total:         o.Total.InexactFloat64(),
		PaymentMethod: o.PaymentMethod,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	items := make([]order.ItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = order.ItemRequest{ProductID: item.ID, Quantity: item.Quantity}
	}

	// An authenticated caller owns the order; guests may pass a userId
	// reference explicitly or none at all. A bad token is rejected, not
	// treated as a guest.
	ident, ok, err := h.identity(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID := req.UserID
	if ok {
		id := ident.UserID
		userID = &id
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		CustomerInfo: order.CustomerInfo{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Address:   req.Address,
			City:      req.City,
			ZipCode:   req.ZipCode,
		},
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		DeclaredTotal: decimal.NewFromFloat(req.Total),
		UserID:        userID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(*o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	page, err := queryPositiveInt(r, "page", 1)
	if err != nil {
		badRequest(w, "invalid page")
		return
	}
	limit, err := queryPositiveInt(r, "limit", order.DefaultPageSize)
	if err != nil {
		badRequest(w, "invalid limit")
		return
	}

	result, err := h.orders.List(r.Context(), order.ListQuery{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}, ident)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]orderResponse, len(result.Items))
	for i, o := range result.Items {
		items[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid order id")
		return
	}

	o, err := h.orders.Get(r.Context(), id, ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, order.Status(req.Status), ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid order id")
		return
	}

	o, err := h.orders.Delete(r.Context(), id, ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	st, err := h.orders.StatsSummary(r.Context(), ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalOrders:       st.TotalOrders,
		TotalRevenue:      st.TotalRevenue.InexactFloat64(),
		CompletedOrders:   st.CompletedOrders,
		PendingOrders:     st.PendingOrders,
		CancelledOrders:   st.CancelledOrders,
		AverageOrderValue: st.AverageOrderValue.InexactFloat64(),
	})
}

// Package api exposes the HTTP surface: routing, request decoding,
// field-level validation, identity resolution, and mapping of typed domain
// results onto status codes.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/webkite/storefront/internal/auth"
	"github.com/webkite/storefront/internal/catalog"
	"github.com/webkite/storefront/internal/domain/order"
)

// Handler carries the services behind the HTTP routes.
type Handler struct {
	auth    *auth.Service
	tokens  *auth.TokenManager
	catalog *catalog.Service
	orders  *order.Service
}

// NewHandler constructs a Handler with the required services.
func NewHandler(
	authSvc *auth.Service,
	tokens *auth.TokenManager,
	catalogSvc *catalog.Service,
	orderSvc *order.Service,
) *Handler {
	return &Handler{
		auth:    authSvc,
		tokens:  tokens,
		catalog: catalogSvc,
		orders:  orderSvc,
	}
}

// Routes returns the API route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/categories", h.listCategories)
	mux.HandleFunc("GET /api/products/featured", h.listFeatured)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)

	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/stats/summary", h.orderStats)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", h.deleteOrder)

	return mux
}

// identity resolves the caller from the Authorization header. A missing
// header yields an anonymous caller with no error; a presented token that
// fails verification yields the verification error, so bad credentials are
// never downgraded to a guest.
func (h *Handler) identity(r *http.Request) (auth.Identity, bool, error) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return auth.Identity{}, false, nil
	}
	ident, err := h.tokens.Verify(token)
	if err != nil {
		return auth.Identity{}, false, err
	}
	return ident, true, nil
}

// requireIdentity resolves the caller and writes the error response when no
// valid bearer token is presented. The second return value reports whether
// the request may proceed.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok, err := h.identity(r)
	if err != nil {
		writeError(w, r, err)
		return auth.Identity{}, false
	}
	if !ok {
		unauthorized(w)
		return auth.Identity{}, false
	}
	return ident, true
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// queryPositiveInt parses an optional integer query parameter, returning def
// when it is absent and an error when it is malformed or less than 1. An
// explicit zero or negative value is rejected rather than coerced onto a
// default.
func queryPositiveInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, errors.Errorf("%s must be at least 1", name)
	}
	return v, nil
}

func logError(r *http.Request, msg string, err error) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
}

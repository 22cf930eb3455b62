package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webkite/storefront/internal/catalog"
	"github.com/webkite/storefront/internal/domain/product"
)

type productRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Featured    bool    `json:"featured"`
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type productListResponse struct {
	Items      []productResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

func toProductResponse(p product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price.InexactFloat64(),
		Category:    p.Category,
		Description: p.Description,
		Image:       p.Image,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductResponses(products []product.Product) []productResponse {
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := queryPositiveInt(r, "page", 1)
	if err != nil {
		badRequest(w, "invalid page")
		return
	}
	// Products default to an unpaginated listing when limit is absent; an
	// explicit limit must be positive.
	limit, err := queryPositiveInt(r, "limit", 0)
	if err != nil {
		badRequest(w, "invalid limit")
		return
	}

	q := catalog.ListQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Page:     page,
		Limit:    limit,
	}
	if raw := r.URL.Query().Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "invalid featured")
			return
		}
		q.Featured = &featured
	}

	result, err := h.catalog.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, productListResponse{
		Items:      toProductResponses(result.Items),
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid product id")
		return
	}

	p, err := h.catalog.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.catalog.DistinctCategories(r.Context())
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func (h *Handler) listFeatured(w http.ResponseWriter, r *http.Request) {
	limit, err := queryPositiveInt(r, "limit", catalog.DefaultFeaturedLimit)
	if err != nil {
		badRequest(w, "invalid limit")
		return
	}

	featured := h.catalog.Featured(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string][]productResponse{
		"items": toProductResponses(featured),
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	p, err := h.catalog.Create(r.Context(), toProductInput(req), ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid product id")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "malformed request body")
		return
	}

	p, err := h.catalog.Update(r.Context(), id, toProductInput(req), ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ident, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid product id")
		return
	}

	p, err := h.catalog.Delete(r.Context(), id, ident)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func toProductInput(req productRequest) catalog.ProductInput {
	return catalog.ProductInput{
		Name:        req.Name,
		Price:       decimal.NewFromFloat(req.Price),
		Category:    req.Category,
		Description: req.Description,
		Image:       req.Image,
		Featured:    req.Featured,
	}
}

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leogadddd/ordura-v2/internal/service"
	"github.com/leogadddd/ordura-v2/pkg/httputil"
	"github.com/leogadddd/ordura-v2/pkg/pagination"
	"github.com/leogadddd/ordura-v2/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON request body for creating a product.
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"required,min=1,max=100"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	CostCents   int64  `json:"cost_cents" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	MinStock    int    `json:"min_stock" validate:"gte=0"`
	Barcode     string `json:"barcode" validate:"max=64"`
	IsDraft     bool   `json:"is_draft"`
}

// UpdateProductRequest is the JSON request body for updating a product.
// Absent fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=100"`
	PriceCents  *int64  `json:"price_cents" validate:"omitempty,gte=0"`
	CostCents   *int64  `json:"cost_cents" validate:"omitempty,gte=0"`
	Stock       *int    `json:"stock" validate:"omitempty,gte=0"`
	MinStock    *int    `json:"min_stock" validate:"omitempty,gte=0"`
	Barcode     *string `json:"barcode" validate:"omitempty,max=64"`
	Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE OUT_OF_STOCK"`
	IsDraft     *bool   `json:"is_draft"`
}

// --- Handlers ---

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.Create(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		CostCents:   req.CostCents,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Barcode:     req.Barcode,
		IsDraft:     req.IsDraft,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "product created", product)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "product", product)
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := r.URL.Query()

	products, total, err := h.service.List(r.Context(), service.ListProductsInput{
		Category:      q.Get("category"),
		Status:        q.Get("status"),
		Search:        q.Get("search"),
		IncludeDrafts: q.Get("include_drafts") == "true",
		Page:          params.Page,
		PerPage:       params.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "products",
		httputil.NewPaginatedData(products, total, params.Page, params.PerPage))
}

// Update handles PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := chi.URLParam(r, "id")

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.Update(r.Context(), id, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		CostCents:   req.CostCents,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Barcode:     req.Barcode,
		Status:      req.Status,
		IsDraft:     req.IsDraft,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "product updated", product)
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "product deleted", nil)
}

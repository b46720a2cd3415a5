package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/httputil"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.StockService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

type createProductRequest struct {
	GTIN         string `json:"gtin" validate:"required"`
	Name         string `json:"name" validate:"required,min=1,max=200"`
	Manufacturer string `json:"manufacturer" validate:"max=200"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type updateProductRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	Manufacturer *string `json:"manufacturer" validate:"omitempty,max=200"`
	Status       *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type issueFEFORequest struct {
	Cantidad     int    `json:"cantidad" validate:"required,min=1"`
	Motivo       string `json:"motivo" validate:"max=200"`
	DocumentoRef string `json:"documento_ref" validate:"max=100"`
}

// List lists products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	products, total, err := h.service.ListProducts(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, paginationMeta(page, perPage, total))
}

// Get gets a product with its lots
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Create registers a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), service.CreateProductInput{
		GTIN:         req.GTIN,
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Status:       req.Status,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// Update updates a product's mutable fields
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Status:       req.Status,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Delete deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListLots lists a product's lots, soonest expiry first
func (h *ProductHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lots, err := h.service.ListLotsByProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lots)
}

// IssueFEFO issues stock from the product's soonest-expiring sufficient lot
func (h *ProductHandler) IssueFEFO(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req issueFEFORequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if req.Motivo == "" {
		req.Motivo = "Egreso FEFO"
	}

	movement, lot, err := h.service.IssueFEFO(r.Context(), id, req.Cantidad, req.Motivo, req.DocumentoRef)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"movement": movement,
		"lot":      lot,
	})
}

func pagination(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	return page, perPage
}

func paginationMeta(page, perPage int, total int64) *httputil.Meta {
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/httputil"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

// ScanHandler handles barcode scan endpoints
type ScanHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(svc *service.StockService, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		service: svc,
		logger:  log,
	}
}

type scanIngressRequest struct {
	GTIN         string     `json:"gtin" validate:"required"`
	Lote         string     `json:"lote" validate:"max=100"`
	FechaVenc    string     `json:"fecha_venc" validate:"omitempty,datetime=2006-01-02"`
	Cantidad     *scanCount `json:"cantidad"`
	Motivo       string     `json:"motivo" validate:"max=200"`
	DocumentoRef string     `json:"documento_ref" validate:"max=100"`
}

// scanCount binds cantidad leniently: scanner clients send it as a number or
// a numeric string, and anything unparsable counts as a single unit. Explicit
// non-positive values are kept so the ledger rejects them.
type scanCount int

func (c *scanCount) UnmarshalJSON(data []byte) error {
	n, err := strconv.Atoi(strings.Trim(string(data), `"`))
	if err != nil {
		n = 1
	}
	*c = scanCount(n)
	return nil
}

// Ingress receives a scanned unit into stock, creating the product and lot
// on first sight.
func (h *ScanHandler) Ingress(w http.ResponseWriter, r *http.Request) {
	var req scanIngressRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	cantidad := 1
	if req.Cantidad != nil {
		cantidad = int(*req.Cantidad)
	}
	if req.Motivo == "" {
		req.Motivo = "Ingreso SCAN"
	}
	if req.DocumentoRef == "" {
		req.DocumentoRef = "SCAN"
	}

	product, lot, movement, err := h.service.IngressByScan(r.Context(), service.IngressInput{
		GTIN:      req.GTIN,
		LotNumber: req.Lote,
		Expiry:    req.FechaVenc,
		Quantity:  cantidad,
		Reason:    req.Motivo,
		DocRef:    req.DocumentoRef,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"product":  product,
		"lot":      lot,
		"movement": movement,
	})
}

// Lookup resolves a scanned code to its product
func (h *ScanHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	product, err := h.service.GetProductByGTIN(r.Context(), code)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

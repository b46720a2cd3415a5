package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farmatrack/farmatrack-backend/internal/stock/repository"
	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/errors"
	"github.com/farmatrack/farmatrack-backend/pkg/httputil"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

// LotHandler handles lot and lot-movement endpoints
type LotHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewLotHandler creates a new lot handler
func NewLotHandler(svc *service.StockService, log *logger.Logger) *LotHandler {
	return &LotHandler{
		service: svc,
		logger:  log,
	}
}

type createLotRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Lote      string `json:"lote" validate:"max=100"`
	FechaVenc string `json:"fecha_venc" validate:"omitempty,datetime=2006-01-02"`
}

type applyMovementRequest struct {
	Tipo         string `json:"tipo" validate:"required"`
	Cantidad     int    `json:"cantidad"`
	Motivo       string `json:"motivo" validate:"max=200"`
	DocumentoRef string `json:"documento_ref" validate:"max=100"`
}

// movementKind maps the wire movement type to a ledger kind. Both the Spanish
// vocabulary and the canonical kinds are accepted.
func movementKind(tipo string) (string, error) {
	switch tipo {
	case "INGRESO", repository.KindReceipt:
		return repository.KindReceipt, nil
	case "EGRESO", repository.KindIssue:
		return repository.KindIssue, nil
	case "AJUSTE", repository.KindAdjustment:
		return repository.KindAdjustment, nil
	default:
		return "", errors.BadRequest("tipo must be one of INGRESO, EGRESO, AJUSTE")
	}
}

// List lists lots
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	lots, total, err := h.service.ListLots(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, lots, paginationMeta(page, perPage, total))
}

// Get gets a lot by ID
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, lot)
}

// Create registers a new lot with zero stock
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	lot, err := h.service.CreateLot(r.Context(), service.CreateLotInput{
		ProductID: req.ProductID,
		LotNumber: req.Lote,
		Expiry:    req.FechaVenc,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, lot)
}

// Delete deletes a lot
func (h *LotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteLot(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ListMovements lists a lot's movements, newest first
func (h *LotHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	movements, err := h.service.ListMovementsByLot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, movements)
}

// ApplyMovement applies a stock movement to a lot
func (h *LotHandler) ApplyMovement(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req applyMovementRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	kind, err := movementKind(req.Tipo)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	movement, lot, err := h.service.ApplyMovement(r.Context(), id, kind, req.Cantidad, req.Motivo, req.DocumentoRef)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"movement": movement,
		"lot":      lot,
	})
}

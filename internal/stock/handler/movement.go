package handler

import (
	"net/http"

	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/httputil"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

// MovementHandler handles ledger-wide movement endpoints
type MovementHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(svc *service.StockService, log *logger.Logger) *MovementHandler {
	return &MovementHandler{
		service: svc,
		logger:  log,
	}
}

// List lists movements across all lots, newest first
func (h *MovementHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)

	movements, total, err := h.service.ListMovements(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, paginationMeta(page, perPage, total))
}

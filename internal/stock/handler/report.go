package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/farmatrack/farmatrack-backend/internal/stock/service"
	"github.com/farmatrack/farmatrack-backend/pkg/httputil"
	"github.com/farmatrack/farmatrack-backend/pkg/logger"
)

// ReportHandler handles reporting endpoints
type ReportHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *service.StockService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  log,
	}
}

// Expiring reports lots with stock expiring within ?dias= days. The default
// of 60 applies only when the parameter is absent or unparsable; dias=0 asks
// for lots expired or expiring today.
func (h *ReportHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	dias, err := strconv.Atoi(r.URL.Query().Get("dias"))
	if err != nil {
		dias = service.DefaultReportDays
	}

	lots, err := h.service.LotsExpiringWithin(r.Context(), dias)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"hoy":  time.Now().Format("2006-01-02"),
		"dias": dias,
		"lots": lots,
	})
}

package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/najdeno/internal/report"
	"github.com/erazemk/najdeno/internal/service"
)

// ReportsHandler serves the staff dashboard figures and the CSV export.
type ReportsHandler struct {
	Service *service.Service
}

// Analytics handles GET /api/analytics.
func (h *ReportsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.Service.Analytics(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, a)
}

// Export handles GET /api/export-report.
func (h *ReportsHandler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.ItemReport(r.Context(), callerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(time.Now())))
	if err := report.WriteCSV(w, rows); err != nil {
		slog.Error("failed to write report", "user", callerFrom(r).ID, "error", err)
	}
}

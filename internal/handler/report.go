package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repair-commons/repaircafe/internal/service"
)

// ReportHandler serves post-event impact reports. Admin-only.
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Get handles GET /api/admin/events/{eventID}/report
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Build(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "report": report})
}

// Stats handles GET /api/admin/events/{eventID}/stats
// Live registration and item breakdowns for the day-of dashboard.
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

// ExportCSV handles GET /api/admin/events/{eventID}/report.csv
func (h *ReportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	report, err := h.svc.Build(r.Context(), eventID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event-report-"+eventID+".csv"))
	w.WriteHeader(http.StatusOK)
	_ = report.WriteCSV(w)
}

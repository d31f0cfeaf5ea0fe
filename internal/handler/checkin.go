package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/service"
)

// CheckinHandler serves the front-desk check-in flow. All routes are
// admin-only.
type CheckinHandler struct {
	svc *service.CheckinService
}

// NewCheckinHandler constructs a CheckinHandler.
func NewCheckinHandler(svc *service.CheckinService) *CheckinHandler {
	return &CheckinHandler{svc: svc}
}

// Lookup handles GET /api/admin/events/{eventID}/checkin?qr=...
// Resolves a scanned QR code to its registration.
func (h *CheckinHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.LookupByQR(r.Context(), chi.URLParam(r, "eventID"), r.URL.Query().Get("qr"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "registration": reg})
}

// Search handles GET /api/admin/events/{eventID}/checkin/search?q=...
// Name/email fallback when the attendee has no QR code handy.
func (h *CheckinHandler) Search(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.Search(r.Context(), chi.URLParam(r, "eventID"), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "registrations": regs})
}

// Confirm handles POST /api/admin/events/{eventID}/checkin/{registrationID}
// Marks the registration checked in; repeats are rejected.
func (h *CheckinHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	err := h.svc.CheckIn(r.Context(), chi.URLParam(r, "eventID"), chi.URLParam(r, "registrationID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/service"
)

// RegistrationHandler serves the attendee registration lifecycle.
type RegistrationHandler struct {
	svc *service.RegistrationService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// principal builds the caller identity from the session user and the
// capability token query parameter.
func principal(r *http.Request) service.Principal {
	return service.Principal{
		User:  UserFrom(r.Context()),
		Token: r.URL.Query().Get("token"),
	}
}

// Create handles POST /api/registrations
// Registers an attendee (creating the account if needed) and returns the
// registration with its waitlist decision and QR code.
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":          true,
		"registration":     reg,
		"management_token": reg.ManagementToken,
	})
}

// Get handles GET /api/registrations/{id}
// Accessible to the owning session user, an admin, or the bearer of the
// management token.
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"registration":     reg,
		"management_token": reg.ManagementToken,
	})
}

// UpdateItems handles PUT /api/registrations/{id}/items
// Replaces the registration's item list.
func (h *RegistrationHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []model.ItemInput `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	items, err := h.svc.UpdateItems(r.Context(), chi.URLParam(r, "id"), principal(r), req.Items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items})
}

// Cancel handles DELETE /api/registrations/{id}
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cancel(r.Context(), chi.URLParam(r, "id"), principal(r)); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// QRImage handles GET /api/registrations/{id}/qr
// Renders the check-in code as a PNG, behind the same authorization as Get.
func (h *RegistrationHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	reg, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), principal(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	png, err := qrcode.Encode(reg.QRCode, qrcode.Medium, 256)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

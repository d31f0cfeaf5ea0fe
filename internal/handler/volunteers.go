package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
	"github.com/repair-commons/repaircafe/internal/service"
)

// VolunteerHandler serves fixer and helper onboarding plus notification
// preferences.
type VolunteerHandler struct {
	svc   *service.VolunteerService
	prefs *service.PreferenceService
}

// NewVolunteerHandler constructs a VolunteerHandler.
func NewVolunteerHandler(svc *service.VolunteerService, prefs *service.PreferenceService) *VolunteerHandler {
	return &VolunteerHandler{svc: svc, prefs: prefs}
}

// RegisterFixer handles POST /api/fixers
// Public fixer application form.
func (h *VolunteerHandler) RegisterFixer(w http.ResponseWriter, r *http.Request) {
	var req service.FixerRegistration
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fixer, err := h.svc.RegisterFixer(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "fixer": fixer})
}

// Profile handles GET /api/fixers/me
func (h *VolunteerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	fixer, err := h.svc.Profile(r.Context(), UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "fixer": fixer})
}

// UpdateProfile handles PUT /api/fixers/me
func (h *VolunteerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	fixer, err := h.svc.UpdateProfile(r.Context(), UserFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "fixer": fixer})
}

// ListSkills handles GET /api/skills
// Public catalogue for the application form.
func (h *VolunteerHandler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.svc.ListSkills(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if skills == nil {
		skills = []model.Skill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "skills": skills})
}

// ListFixers handles GET /api/admin/fixers
// Pending applications sort first.
func (h *VolunteerHandler) ListFixers(w http.ResponseWriter, r *http.Request) {
	fixers, err := h.svc.ListFixers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if fixers == nil {
		fixers = []model.Fixer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "fixers": fixers})
}

// SetFixerStatus handles PATCH /api/admin/fixers/{id}/status
func (h *VolunteerHandler) SetFixerStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.SetFixerStatus(r.Context(), chi.URLParam(r, "id"), model.FixerStatus(req.Status)); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// RegisterHelper handles POST /api/helpers
// Public helper sign-up form.
func (h *VolunteerHandler) RegisterHelper(w http.ResponseWriter, r *http.Request) {
	var req service.HelperRegistration
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	helper, err := h.svc.RegisterHelper(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "helper": helper})
}

// ListHelpers handles GET /api/admin/helpers
func (h *VolunteerHandler) ListHelpers(w http.ResponseWriter, r *http.Request) {
	helpers, err := h.svc.ListHelpers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if helpers == nil {
		helpers = []model.Helper{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "helpers": helpers})
}

// SetHelperStatus handles PATCH /api/admin/helpers/{id}/status
func (h *VolunteerHandler) SetHelperStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.SetHelperStatus(r.Context(), chi.URLParam(r, "id"), model.HelperStatus(req.Status)); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetPreferences handles GET /api/preferences
func (h *VolunteerHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefs.Get(r.Context(), UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "preferences": prefs})
}

// UpdatePreferences handles PATCH /api/preferences
// Absent flags keep their stored values.
func (h *VolunteerHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotifyComments    *bool `json:"notify_comments"`
		NotifyEvents      *bool `json:"notify_events"`
		NotifyDailyDigest *bool `json:"notify_daily_digest"`
		NotifyWeekly      *bool `json:"notify_weekly_digest"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	prefs, err := h.prefs.Update(r.Context(), UserFrom(r.Context()), repository.PreferencePatch{
		NotifyComments:    req.NotifyComments,
		NotifyEvents:      req.NotifyEvents,
		NotifyDailyDigest: req.NotifyDailyDigest,
		NotifyWeekly:      req.NotifyWeekly,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "preferences": prefs})
}

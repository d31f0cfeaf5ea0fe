package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
	"github.com/repair-commons/repaircafe/internal/service"
)

// EventHandler serves the public event listing and the admin event CRUD.
type EventHandler struct {
	svc *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ListPublished handles GET /api/events
// Returns upcoming published events with live spots-left counts.
func (h *EventHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListPublished(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": events})
}

// Get handles GET /api/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": event})
}

// ListVenues handles GET /api/venues
func (h *EventHandler) ListVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := h.svc.ListVenues(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "venues": venues})
}

// ListAll handles GET /api/admin/events
// Includes drafts and cancelled events.
func (h *EventHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListAll(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "events": events})
}

// Create handles POST /api/admin/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "event": event})
}

type updateEventRequest struct {
	Title               *string    `json:"title"`
	Description         *string    `json:"description"`
	Date                *time.Time `json:"date"`
	StartTime           *string    `json:"start_time"`
	EndTime             *string    `json:"end_time"`
	VenueID             *string    `json:"venue_id"`
	Capacity            *int       `json:"capacity"`
	WaitlistEnabled     *bool      `json:"waitlist_enabled"`
	Status              *string    `json:"status"`
	RegistrationOpensAt *time.Time `json:"registration_opens_at"`
}

// Update handles PATCH /api/admin/events/{id}
// Absent fields keep their stored values.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	patch := repository.EventPatch{
		Title:               req.Title,
		Description:         req.Description,
		Date:                req.Date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		VenueID:             req.VenueID,
		Capacity:            req.Capacity,
		WaitlistEnabled:     req.WaitlistEnabled,
		RegistrationOpensAt: req.RegistrationOpensAt,
	}
	if req.Status != nil {
		status := model.EventStatus(*req.Status)
		patch.Status = &status
	}

	event, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "event": event})
}

// Delete handles DELETE /api/admin/events/{id}
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/service"
)

// ItemHandler serves the fixer-facing repair queue and item workflow.
type ItemHandler struct {
	svc *service.ItemService
}

// NewItemHandler constructs an ItemHandler.
func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

// Queue handles GET /api/events/{eventID}/queue
// Returns the event's items ordered for the floor, with the caller's
// skill tags and per-item match flags.
func (h *ItemHandler) Queue(w http.ResponseWriter, r *http.Request) {
	items, skills, err := h.svc.Queue(r.Context(), chi.URLParam(r, "eventID"), UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	if skills == nil {
		skills = []model.Skill{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "items": items, "skills": skills})
}

// Claim handles POST /api/events/{eventID}/items/{itemID}/claim
// First fixer wins; a second claim attempt gets a conflict.
func (h *ItemHandler) Claim(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Claim(r.Context(),
		chi.URLParam(r, "eventID"), chi.URLParam(r, "itemID"), UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

// Outcome handles POST /api/events/{eventID}/items/{itemID}/outcome
// Records the repair result and completes the item.
func (h *ItemHandler) Outcome(w http.ResponseWriter, r *http.Request) {
	var req service.OutcomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.LogOutcome(r.Context(),
		chi.URLParam(r, "eventID"), chi.URLParam(r, "itemID"), UserFrom(r.Context()), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

// Comments handles GET /api/items/{itemID}/comments
func (h *ItemHandler) Comments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.Comments(r.Context(), chi.URLParam(r, "itemID"), UserFrom(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if comments == nil {
		comments = []model.ItemComment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "comments": comments})
}

// AddComment handles POST /api/items/{itemID}/comments
// The item's owner gets an email unless they wrote the comment.
func (h *ItemHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	comment, err := h.svc.AddComment(r.Context(), chi.URLParam(r, "itemID"), UserFrom(r.Context()), req.Comment)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "comment": comment})
}

// UpdateStatus handles PATCH /api/events/{eventID}/items/{itemID}/status
// Moves an item between registered, in-progress, and completed; moving a
// completed item back to registered reverts its outcome.
func (h *ItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
		service.OutcomeRequest
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.UpdateStatus(r.Context(),
		chi.URLParam(r, "eventID"), chi.URLParam(r, "itemID"), UserFrom(r.Context()),
		model.ItemStatus(req.Status), req.OutcomeRequest)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "item": item})
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

// EventStore is the persistence surface for event administration.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	ListPublished(ctx context.Context) ([]model.Event, error)
	ListAll(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, id string, patch repository.EventPatch) error
	Delete(ctx context.Context, id string) error
	ListVenues(ctx context.Context) ([]model.Venue, error)
}

const defaultCapacity = 40

// EventService covers the public event listing and admin event CRUD.
type EventService struct {
	events EventStore
}

// NewEventService constructs an EventService.
func NewEventService(events EventStore) *EventService {
	return &EventService{events: events}
}

// CreateEventRequest is the admin payload for creating an event.
type CreateEventRequest struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Date                time.Time  `json:"date"`
	StartTime           string     `json:"start_time"`
	EndTime             string     `json:"end_time"`
	VenueID             *string    `json:"venue_id"`
	Capacity            int        `json:"capacity"`
	WaitlistEnabled     *bool      `json:"waitlist_enabled"`
	Status              string     `json:"status"`
	RegistrationOpensAt *time.Time `json:"registration_opens_at"`
}

// Create validates and inserts an event. Capacity defaults to 40, status
// to draft, and registration opens two weeks before the event date unless
// given explicitly.
func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", model.ErrValidation)
	}
	if req.StartTime == "" || req.EndTime == "" {
		return nil, fmt.Errorf("%w: start_time and end_time are required", model.ErrValidation)
	}
	if req.Capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must not be negative", model.ErrValidation)
	}
	if req.Capacity == 0 {
		req.Capacity = defaultCapacity
	}
	if req.Capacity > 100_000 {
		return nil, fmt.Errorf("%w: capacity cannot exceed 100,000", model.ErrValidation)
	}

	status := model.EventDraft
	if req.Status != "" {
		status = model.EventStatus(req.Status)
		if !status.Valid() {
			return nil, fmt.Errorf("%w: invalid status %q", model.ErrValidation, req.Status)
		}
	}

	opensAt := req.Date.AddDate(0, 0, -14)
	if req.RegistrationOpensAt != nil {
		opensAt = *req.RegistrationOpensAt
	}

	waitlist := true
	if req.WaitlistEnabled != nil {
		waitlist = *req.WaitlistEnabled
	}

	return s.events.Create(ctx, &model.Event{
		Title:               req.Title,
		Description:         strings.TrimSpace(req.Description),
		Date:                req.Date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		VenueID:             req.VenueID,
		Capacity:            req.Capacity,
		WaitlistEnabled:     waitlist,
		Status:              status,
		RegistrationOpensAt: opensAt,
	})
}

// ListPublished returns upcoming published events with spots-left data.
func (s *EventService) ListPublished(ctx context.Context) ([]model.Event, error) {
	return s.events.ListPublished(ctx)
}

// ListAll returns every event for the admin table.
func (s *EventService) ListAll(ctx context.Context) ([]model.Event, error) {
	return s.events.ListAll(ctx)
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: event id is required", model.ErrValidation)
	}
	return s.events.GetByID(ctx, id)
}

// Update applies a partial admin edit.
func (s *EventService) Update(ctx context.Context, id string, patch repository.EventPatch) (*model.Event, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", model.ErrValidation, *patch.Status)
	}
	if patch.Capacity != nil && *patch.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be a positive integer", model.ErrValidation)
	}
	if err := s.events.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, id)
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, id string) error {
	return s.events.Delete(ctx, id)
}

// ListVenues returns the venue reference data.
func (s *EventService) ListVenues(ctx context.Context) ([]model.Venue, error) {
	return s.events.ListVenues(ctx)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

func TestEventCreateDefaults(t *testing.T) {
	events := newMemEvents()
	svc := NewEventService(events)
	ctx := context.Background()
	date := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)

	event, err := svc.Create(ctx, CreateEventRequest{
		Title:     "  Autumn Repair Café ",
		Date:      date,
		StartTime: "10:00",
		EndTime:   "14:00",
	})
	require.NoError(t, err)

	assert.Equal(t, "Autumn Repair Café", event.Title)
	assert.Equal(t, 40, event.Capacity)
	assert.Equal(t, model.EventDraft, event.Status)
	assert.True(t, event.WaitlistEnabled)
	// Registration opens two weeks out by default.
	assert.Equal(t, date.AddDate(0, 0, -14), event.RegistrationOpensAt)
}

func TestEventCreateValidation(t *testing.T) {
	svc := NewEventService(newMemEvents())
	ctx := context.Background()
	date := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		req  CreateEventRequest
	}{
		{"missing title", CreateEventRequest{Date: date, StartTime: "10:00", EndTime: "14:00"}},
		{"missing date", CreateEventRequest{Title: "T", StartTime: "10:00", EndTime: "14:00"}},
		{"missing times", CreateEventRequest{Title: "T", Date: date}},
		{"negative capacity", CreateEventRequest{Title: "T", Date: date, StartTime: "10:00", EndTime: "14:00", Capacity: -1}},
		{"absurd capacity", CreateEventRequest{Title: "T", Date: date, StartTime: "10:00", EndTime: "14:00", Capacity: 200_000}},
		{"bad status", CreateEventRequest{Title: "T", Date: date, StartTime: "10:00", EndTime: "14:00", Status: "archived"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestEventUpdate(t *testing.T) {
	events := newMemEvents()
	svc := NewEventService(events)
	ctx := context.Background()

	event := events.add(model.Event{Title: "Draft", Capacity: 40, Status: model.EventDraft})

	published := model.EventPublished
	capacity := 60
	got, err := svc.Update(ctx, event.ID, repository.EventPatch{Status: &published, Capacity: &capacity})
	require.NoError(t, err)
	assert.Equal(t, model.EventPublished, got.Status)
	assert.Equal(t, 60, got.Capacity)

	bad := model.EventStatus("archived")
	_, err = svc.Update(ctx, event.ID, repository.EventPatch{Status: &bad})
	assert.ErrorIs(t, err, model.ErrValidation)

	negative := -5
	_, err = svc.Update(ctx, event.ID, repository.EventPatch{Capacity: &negative})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Update(ctx, "missing", repository.EventPatch{Capacity: &capacity})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEventUpdateVenue(t *testing.T) {
	events := newMemEvents()
	svc := NewEventService(events)
	ctx := context.Background()

	event := events.add(model.Event{Title: "Draft", Capacity: 40, Status: model.EventDraft})

	venue := "venue-1"
	got, err := svc.Update(ctx, event.ID, repository.EventPatch{VenueID: &venue})
	require.NoError(t, err)
	require.NotNil(t, got.VenueID)
	assert.Equal(t, "venue-1", *got.VenueID)

	// An empty venue id detaches the venue again.
	none := ""
	got, err = svc.Update(ctx, event.ID, repository.EventPatch{VenueID: &none})
	require.NoError(t, err)
	assert.Nil(t, got.VenueID)
}

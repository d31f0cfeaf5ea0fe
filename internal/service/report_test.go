package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repair-commons/repaircafe/internal/model"
)

func TestCompute(t *testing.T) {
	items := []model.Item{
		{Status: model.ItemCompleted, Outcome: model.OutcomeFixed, WeightKg: 2, PctMetal: 50, PctPlastic: 50},
		{Status: model.ItemCompleted, Outcome: model.OutcomeFixed},
		{Status: model.ItemCompleted, Outcome: model.OutcomePartiallyFixed},
		{Status: model.ItemCompleted, Outcome: model.OutcomeNotRepairable},
		{Status: model.ItemInProgress},
		{Status: model.ItemRegistered},
	}

	r := Compute(items)

	assert.Equal(t, 6, r.Summary.TotalItems)
	assert.Equal(t, 4, r.Summary.CompletedItems)
	assert.Equal(t, 1, r.Summary.InProgressItems)
	assert.Equal(t, 1, r.Summary.RegisteredItems)

	assert.Equal(t, 2, r.Outcomes.Fixed)
	assert.Equal(t, 1, r.Outcomes.PartiallyFixed)
	assert.Equal(t, 1, r.Outcomes.NotRepairable)
	assert.Equal(t, 2, r.Outcomes.NotAttempted)

	// 3 of 4 completed items were fixed or partially fixed.
	assert.Equal(t, 75, r.SuccessRate)

	// Half an hour and two people per item.
	assert.Equal(t, 6.0, r.VolunteerHours)

	assert.Equal(t, 1.0, r.Materials.Metal)
	assert.Equal(t, 1.0, r.Materials.Plastic)
	assert.Equal(t, 2.0, r.Materials.Total)
}

func TestComputeNoCompletedItems(t *testing.T) {
	r := Compute([]model.Item{{Status: model.ItemRegistered}})
	assert.Equal(t, 0, r.SuccessRate)
}

func TestComputeEmpty(t *testing.T) {
	r := Compute(nil)
	assert.Equal(t, 0, r.Summary.TotalItems)
	assert.Equal(t, 0, r.SuccessRate)
	assert.Equal(t, 0.0, r.VolunteerHours)
}

func TestComputeMaterialRounding(t *testing.T) {
	r := Compute([]model.Item{
		{Status: model.ItemCompleted, Outcome: model.OutcomeFixed, WeightKg: 1, PctElectronic: 33.33},
	})
	assert.Equal(t, 0.33, r.Materials.Electronic)
}

func TestReportBuild(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, RegisterRequest{
		EventID: event.ID, Email: "ada@example.org", Name: "Ada",
		Items: []model.ItemInput{{Name: "Toaster", Problem: "won't heat"}},
	})
	require.NoError(t, err)

	items := newMemItems()
	items.add(model.Item{EventID: event.ID, Status: model.ItemCompleted, Outcome: model.OutcomeFixed})

	checkin := NewCheckinService(f.regs)
	require.NoError(t, checkin.CheckIn(ctx, event.ID, reg.ID))

	svc := NewReportService(f.events, items, f.regs, f.events)
	report, err := svc.Build(ctx, event.ID)
	require.NoError(t, err)

	assert.Equal(t, event.ID, report.Event.ID)
	assert.Equal(t, 1, report.Summary.TotalRegistrations)
	assert.Equal(t, 1, report.Summary.CheckedIn)
	assert.Equal(t, 100, report.SuccessRate)

	_, err = svc.Build(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestEventStats(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(1, true)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, RegisterRequest{
		EventID: event.ID, Email: "ada@example.org", Name: "Ada",
	})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, RegisterRequest{
		EventID: event.ID, Email: "grace@example.org", Name: "Grace",
	})
	require.NoError(t, err)

	checkin := NewCheckinService(f.regs)
	require.NoError(t, checkin.CheckIn(ctx, event.ID, first.ID))

	items := newMemItems()
	items.add(model.Item{EventID: event.ID, Status: model.ItemRegistered})
	items.add(model.Item{EventID: event.ID, Status: model.ItemInProgress})
	items.add(model.Item{EventID: event.ID, Status: model.ItemCompleted, Outcome: model.OutcomeFixed})
	items.add(model.Item{EventID: event.ID, Status: model.ItemCancelled})

	svc := NewReportService(f.events, items, f.regs, f.events)
	stats, err := svc.Stats(ctx, event.ID)
	require.NoError(t, err)

	assert.Equal(t, event.ID, stats.Event.ID)
	assert.Equal(t, 2, stats.Registrations.Total)
	assert.Equal(t, 1, stats.Registrations.CheckedIn)
	assert.Equal(t, 1, stats.Registrations.Waitlisted)
	assert.Equal(t, 0, stats.Registrations.Cancelled)
	assert.Equal(t, 2, stats.Registrations.Active)

	// Cancelled items stay out of the dashboard counts.
	assert.Equal(t, 3, stats.Items.Total)
	assert.Equal(t, 1, stats.Items.Queued)
	assert.Equal(t, 1, stats.Items.InProgress)
	assert.Equal(t, 1, stats.Items.Completed)
	assert.Equal(t, 100, stats.SuccessRate)

	_, err = svc.Stats(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestWriteCSV(t *testing.T) {
	r := Compute([]model.Item{{Status: model.ItemCompleted, Outcome: model.OutcomeFixed}})
	r.Event = &model.Event{
		Title: `Fix-It Friday, "Autumn" Edition`,
		Date:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, r.WriteCSV(&buf))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "metric,value", lines[0])
	// The comma and quotes in the title survive the round trip.
	assert.Contains(t, out, `"Fix-It Friday, ""Autumn"" Edition"`)
	assert.Contains(t, out, "date,2026-09-12")
	assert.Contains(t, out, "success_rate_pct,100")
	assert.Contains(t, out, "volunteer_hours,1.0")
}

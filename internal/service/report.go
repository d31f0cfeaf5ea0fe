package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

// ReportStore is the read surface the reporting aggregator needs.
type ReportStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]model.Item, error)
}

// RegistrationCounter summarizes an event's registrations.
type RegistrationCounter interface {
	Summary(ctx context.Context, eventID string) (total, checkedIn int, err error)
	StatusCounts(ctx context.Context, eventID string) (repository.StatusCounts, error)
}

// RSVPCounter counts fixers who confirmed attendance for an event.
type RSVPCounter interface {
	FixerRSVPCount(ctx context.Context, eventID string) (int, error)
}

// Report is the impact summary for one event.
type Report struct {
	Event       *model.Event     `json:"event"`
	Summary     ReportSummary    `json:"summary"`
	Outcomes    OutcomeBreakdown `json:"outcomes"`
	SuccessRate int              `json:"success_rate"`
	// VolunteerHours estimates effort at half an hour and two people
	// per item, rounded to one decimal.
	VolunteerHours float64        `json:"volunteer_hours"`
	Materials      MaterialTotals `json:"materials"`
}

// ReportSummary holds the headline counts.
type ReportSummary struct {
	TotalItems         int `json:"total_items"`
	CompletedItems     int `json:"completed_items"`
	InProgressItems    int `json:"in_progress_items"`
	RegisteredItems    int `json:"registered_items"`
	TotalRegistrations int `json:"total_registrations"`
	CheckedIn          int `json:"checked_in"`
	VolunteerCount     int `json:"volunteer_count"`
}

// OutcomeBreakdown counts items per outcome classification.
type OutcomeBreakdown struct {
	Fixed          int `json:"fixed"`
	PartiallyFixed int `json:"partially_fixed"`
	NotRepairable  int `json:"not_repairable"`
	NeedsParts     int `json:"needs_parts"`
	Referred       int `json:"referred"`
	NotAttempted   int `json:"not_attempted"`
}

// MaterialTotals are diverted-material estimates in kilograms, each rounded
// to two decimals.
type MaterialTotals struct {
	Electronic float64 `json:"electronic"`
	Metal      float64 `json:"metal"`
	Plastic    float64 `json:"plastic"`
	Textile    float64 `json:"textile"`
	Other      float64 `json:"other"`
	Total      float64 `json:"total"`
}

// ReportService aggregates registrations and items into event impact
// reports.
type ReportService struct {
	events EventGetter
	items  ReportStore
	regs   RegistrationCounter
	rsvps  RSVPCounter
}

// NewReportService constructs a ReportService.
func NewReportService(events EventGetter, items ReportStore, regs RegistrationCounter, rsvps RSVPCounter) *ReportService {
	return &ReportService{events: events, items: items, regs: regs, rsvps: rsvps}
}

// Build computes the report for an event.
func (s *ReportService) Build(ctx context.Context, eventID string) (*Report, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	total, checkedIn, err := s.regs.Summary(ctx, eventID)
	if err != nil {
		return nil, err
	}
	volunteers, err := s.rsvps.FixerRSVPCount(ctx, eventID)
	if err != nil {
		return nil, err
	}

	report := Compute(items)
	report.Event = event
	report.Summary.TotalRegistrations = total
	report.Summary.CheckedIn = checkedIn
	report.Summary.VolunteerCount = volunteers
	return report, nil
}

// EventStats is the live per-status breakdown for the admin dashboard
// during an event.
type EventStats struct {
	Event         *model.Event            `json:"event"`
	Registrations repository.StatusCounts `json:"registrations"`
	Items         ItemCounts              `json:"items"`
	SuccessRate   int                     `json:"success_rate"`
}

// ItemCounts tallies an event's items per queue state, cancelled items
// excluded.
type ItemCounts struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// Stats returns the live dashboard numbers for an event.
func (s *ReportService) Stats(ctx context.Context, eventID string) (*EventStats, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := s.regs.StatusCounts(ctx, eventID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var ic ItemCounts
	for _, it := range items {
		switch it.Status {
		case model.ItemRegistered:
			ic.Queued++
		case model.ItemInProgress:
			ic.InProgress++
		case model.ItemCompleted:
			ic.Completed++
		default:
			continue
		}
		ic.Total++
	}

	return &EventStats{
		Event:         event,
		Registrations: counts,
		Items:         ic,
		SuccessRate:   Compute(items).SuccessRate,
	}, nil
}

// Compute derives the item-driven portions of a report. Success rate is
// (fixed + partially fixed) over completed items as a rounded percentage,
// exactly 0 when nothing is completed.
func Compute(items []model.Item) *Report {
	r := &Report{}
	for _, it := range items {
		r.Summary.TotalItems++
		switch it.Status {
		case model.ItemCompleted:
			r.Summary.CompletedItems++
		case model.ItemInProgress:
			r.Summary.InProgressItems++
		case model.ItemRegistered:
			r.Summary.RegisteredItems++
		}

		switch it.Outcome {
		case model.OutcomeFixed:
			r.Outcomes.Fixed++
		case model.OutcomePartiallyFixed:
			r.Outcomes.PartiallyFixed++
		case model.OutcomeNotRepairable:
			r.Outcomes.NotRepairable++
		case model.OutcomeNeedsParts:
			r.Outcomes.NeedsParts++
		case model.OutcomeReferred:
			r.Outcomes.Referred++
		default:
			r.Outcomes.NotAttempted++
		}

		if it.WeightKg > 0 {
			r.Materials.Electronic += it.WeightKg * it.PctElectronic / 100
			r.Materials.Metal += it.WeightKg * it.PctMetal / 100
			r.Materials.Plastic += it.WeightKg * it.PctPlastic / 100
			r.Materials.Textile += it.WeightKg * it.PctTextile / 100
			r.Materials.Other += it.WeightKg * it.PctOther / 100
			r.Materials.Total += it.WeightKg
		}
	}

	if r.Summary.CompletedItems > 0 {
		repaired := r.Outcomes.Fixed + r.Outcomes.PartiallyFixed
		r.SuccessRate = int(math.Round(float64(repaired) / float64(r.Summary.CompletedItems) * 100))
	}
	r.VolunteerHours = math.Round(float64(r.Summary.TotalItems)*0.5*2*10) / 10

	r.Materials.Electronic = round2(r.Materials.Electronic)
	r.Materials.Metal = round2(r.Materials.Metal)
	r.Materials.Plastic = round2(r.Materials.Plastic)
	r.Materials.Textile = round2(r.Materials.Textile)
	r.Materials.Other = round2(r.Materials.Other)
	r.Materials.Total = round2(r.Materials.Total)
	return r
}

// WriteCSV renders the report as CSV. encoding/csv handles quoting, so
// event titles with embedded commas round-trip correctly.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"event", r.Event.Title},
		{"date", r.Event.Date.Format("2006-01-02")},
		{"total_items", strconv.Itoa(r.Summary.TotalItems)},
		{"completed_items", strconv.Itoa(r.Summary.CompletedItems)},
		{"in_progress_items", strconv.Itoa(r.Summary.InProgressItems)},
		{"registered_items", strconv.Itoa(r.Summary.RegisteredItems)},
		{"total_registrations", strconv.Itoa(r.Summary.TotalRegistrations)},
		{"checked_in", strconv.Itoa(r.Summary.CheckedIn)},
		{"volunteer_count", strconv.Itoa(r.Summary.VolunteerCount)},
		{"fixed", strconv.Itoa(r.Outcomes.Fixed)},
		{"partially_fixed", strconv.Itoa(r.Outcomes.PartiallyFixed)},
		{"not_repairable", strconv.Itoa(r.Outcomes.NotRepairable)},
		{"needs_parts", strconv.Itoa(r.Outcomes.NeedsParts)},
		{"referred", strconv.Itoa(r.Outcomes.Referred)},
		{"success_rate_pct", strconv.Itoa(r.SuccessRate)},
		{"volunteer_hours", strconv.FormatFloat(r.VolunteerHours, 'f', 1, 64)},
		{"materials_total_kg", strconv.FormatFloat(r.Materials.Total, 'f', 2, 64)},
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write report csv: %w", err)
	}
	return nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repair-commons/repaircafe/internal/model"
)

const eventColumns = `
	e.id, e.title, COALESCE(e.description, ''), e.date, e.start_time, e.end_time,
	e.venue_id, e.capacity, e.waitlist_enabled, e.status, e.registration_opens_at, e.created_at,
	COALESCE(v.name, ''), COALESCE(v.address, ''), COALESCE(v.city, ''),
	(SELECT COUNT(*) FROM registrations r
	 WHERE r.event_id = e.id AND r.status != 'cancelled')`

// EventRepository handles persistence for events and venues.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, date, start_time, end_time,
		                     venue_id, capacity, waitlist_enabled, status,
		                     registration_opens_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Title, e.Description, e.Date, e.StartTime, e.EndTime,
		e.VenueID, e.Capacity, e.WaitlistEnabled, e.Status,
		e.RegistrationOpensAt, e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// ListPublished returns published events from today onward with venue data
// and a live non-cancelled registration count, soonest first.
func (r *EventRepository) ListPublished(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e LEFT JOIN venues v ON e.venue_id = v.id
		 WHERE e.status = 'published' AND e.date >= CURRENT_DATE
		 ORDER BY e.date ASC, e.start_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListAll returns every event, newest date first. Admin listing.
func (r *EventRepository) ListAll(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e LEFT JOIN venues v ON e.venue_id = v.id
		 ORDER BY e.date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetByID returns a single event with venue data and registration count,
// or model.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+`
		 FROM events e LEFT JOIN venues v ON e.venue_id = v.id
		 WHERE e.id = $1`,
		id,
	)
	e, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// EventPatch holds optional field updates for an event. Nil means unchanged.
// A VenueID pointing at the empty string detaches the venue.
type EventPatch struct {
	Title               *string
	Description         *string
	Date                *time.Time
	StartTime           *string
	EndTime             *string
	VenueID             *string
	Capacity            *int
	WaitlistEnabled     *bool
	Status              *model.EventStatus
	RegistrationOpensAt *time.Time
}

// Update applies the non-nil fields of patch to the event.
func (r *EventRepository) Update(ctx context.Context, id string, patch EventPatch) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if patch.StartTime != nil {
		add("start_time", *patch.StartTime)
	}
	if patch.EndTime != nil {
		add("end_time", *patch.EndTime)
	}
	if patch.VenueID != nil {
		if *patch.VenueID == "" {
			add("venue_id", nil)
		} else {
			add("venue_id", *patch.VenueID)
		}
	}
	if patch.Capacity != nil {
		add("capacity", *patch.Capacity)
	}
	if patch.WaitlistEnabled != nil {
		add("waitlist_enabled", *patch.WaitlistEnabled)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.RegistrationOpensAt != nil {
		add("registration_opens_at", *patch.RegistrationOpensAt)
	}
	if len(sets) == 0 {
		return fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}

	args = append(args, id)
	query := "UPDATE events SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Delete removes an event. Fails while registrations reference it.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListUpcomingForReminders returns published events exactly 7 or 1 days out.
func (r *EventRepository) ListUpcomingForReminders(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events e LEFT JOIN venues v ON e.venue_id = v.id
		 WHERE e.date IN (CURRENT_DATE + INTERVAL '7 days', CURRENT_DATE + INTERVAL '1 day')
		   AND e.status = 'published'
		 ORDER BY e.date`,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminder events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListVenues returns all venues ordered by name.
func (r *EventRepository) ListVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, address, city FROM venues ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.City); err != nil {
			return nil, fmt.Errorf("scan venue: %w", err)
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// FixerRSVPCount returns the number of fixers who answered yes for an event.
func (r *EventRepository) FixerRSVPCount(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM fixer_event_rsvps
		 WHERE event_id = $1 AND response = 'yes'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count fixer rsvps: %w", err)
	}
	return n, nil
}

func scanEvents(rows pgx.Rows) ([]model.Event, error) {
	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.StartTime, &e.EndTime,
		&e.VenueID, &e.Capacity, &e.WaitlistEnabled, &e.Status,
		&e.RegistrationOpensAt, &e.CreatedAt,
		&e.VenueName, &e.VenueAddress, &e.VenueCity,
		&e.RegistrationCount,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

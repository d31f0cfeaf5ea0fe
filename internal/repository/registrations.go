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

// RegistrationRepository handles persistence for registrations and their
// check-in state.
type RegistrationRepository struct {
	db *pgxpool.Pool
}

// NewRegistrationRepository constructs a RegistrationRepository.
func NewRegistrationRepository(db *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// CreateParams carries everything needed to insert a registration.
// Items are assumed pre-filtered to non-empty {name, problem} pairs.
type CreateParams struct {
	EventID         string
	UserID          string
	QRCode          string
	ManagementToken string
	Items           []model.ItemInput
}

// Create performs the whole admission sequence inside one transaction:
// an exclusive lock on the event row serialises concurrent submissions so
// the duplicate check, the capacity decision, and the position assignment
// all observe the same registration count.
func (r *RegistrationRepository) Create(ctx context.Context, p CreateParams) (*model.Registration, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row. Concurrent Create calls for the same event queue
	// up here until commit.
	var capacity int
	var waitlistEnabled bool
	err = tx.QueryRow(ctx,
		`SELECT capacity, waitlist_enabled FROM events WHERE id = $1 FOR UPDATE`,
		p.EventID,
	).Scan(&capacity, &waitlistEnabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND user_id = $2 AND status != 'cancelled'`,
		p.EventID, p.UserID,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		return nil, model.ErrAlreadyRegistered
	}

	var regCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations
		 WHERE event_id = $1 AND status != 'cancelled'`,
		p.EventID,
	).Scan(&regCount)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}

	status, err := model.DecideAdmission(regCount, capacity, waitlistEnabled)
	if err != nil {
		return nil, err
	}

	reg := &model.Registration{
		ID:              uuid.New().String(),
		EventID:         p.EventID,
		UserID:          p.UserID,
		Status:          status,
		Position:        regCount + 1,
		QRCode:          p.QRCode,
		ManagementToken: p.ManagementToken,
		CreatedAt:       time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, event_id, user_id, status, position, qr_code, token, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reg.ID, reg.EventID, reg.UserID, reg.Status, reg.Position,
		reg.QRCode, reg.ManagementToken, reg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	for _, it := range p.Items {
		item := model.Item{
			ID:             uuid.New().String(),
			RegistrationID: reg.ID,
			EventID:        p.EventID,
			UserID:         p.UserID,
			Name:           it.Name,
			Problem:        it.Problem,
			Status:         model.ItemRegistered,
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO items (id, registration_id, event_id, user_id, name, problem, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.RegistrationID, item.EventID, item.UserID,
			item.Name, item.Problem, item.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		reg.Items = append(reg.Items, item)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return reg, nil
}

const registrationColumns = `
	r.id, r.event_id, r.user_id, r.status, r.position, r.qr_code,
	COALESCE(r.token, ''), r.checked_in_at, r.created_at,
	u.name, u.email`

// GetDetail returns a registration with its owner and items, or
// model.ErrNotFound.
func (r *RegistrationRepository) GetDetail(ctx context.Context, id string) (*model.Registration, error) {
	reg, err := r.scanOne(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations r JOIN users u ON r.user_id = u.id
		 WHERE r.id = $1`,
		id,
	)
	if err != nil {
		return nil, err
	}
	if reg.Items, err = r.itemsFor(ctx, reg.ID); err != nil {
		return nil, err
	}
	return reg, nil
}

// TokenMatches reports whether token is the registration's management token.
func (r *RegistrationRepository) TokenMatches(ctx context.Context, id, token string) (bool, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE id = $1 AND token = $2`,
		id, token,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return n > 0, nil
}

// SetManagementToken stores a lazily minted self-service token.
func (r *RegistrationRepository) SetManagementToken(ctx context.Context, id, token string) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE registrations SET token = $1, updated_at = NOW() WHERE id = $2`,
		token, id); err != nil {
		return fmt.Errorf("set management token: %w", err)
	}
	return nil
}

// Cancel marks the registration and all of its non-cancelled items
// cancelled. When the registration held a capacity slot and a waitlist
// exists, the oldest waitlisted registration is promoted to registered in
// the same transaction; the promoted registration (with owner contact data)
// is returned so the caller can notify. Cancelling an already-cancelled
// registration is a no-op.
func (r *RegistrationRepository) Cancel(ctx context.Context, id string) (promoted *model.Registration, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var eventID string
	var status model.RegistrationStatus
	err = tx.QueryRow(ctx,
		`SELECT event_id, status FROM registrations WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&eventID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("lock registration: %w", err)
	}
	if status == model.RegistrationCancelled {
		return nil, tx.Commit(ctx)
	}

	// Serialise against concurrent admissions for the same event.
	if _, err = tx.Exec(ctx,
		`SELECT 1 FROM events WHERE id = $1 FOR UPDATE`, eventID); err != nil {
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	if _, err = tx.Exec(ctx,
		`UPDATE registrations SET status = 'cancelled', updated_at = NOW() WHERE id = $1`,
		id); err != nil {
		return nil, fmt.Errorf("cancel registration: %w", err)
	}
	if _, err = tx.Exec(ctx,
		`UPDATE items SET status = 'cancelled', updated_at = NOW()
		 WHERE registration_id = $1 AND status != 'cancelled'`,
		id); err != nil {
		return nil, fmt.Errorf("cancel items: %w", err)
	}

	// A waitlisted registration never held a slot, so its cancellation
	// frees nothing.
	if status == model.RegistrationWaitlisted {
		return nil, tx.Commit(ctx)
	}

	var p model.Registration
	err = tx.QueryRow(ctx,
		`UPDATE registrations SET status = 'registered', updated_at = NOW()
		 WHERE id = (
		   SELECT id FROM registrations
		   WHERE event_id = $1 AND status = 'waitlisted'
		   ORDER BY created_at ASC LIMIT 1
		 )
		 RETURNING id, event_id, user_id, status, position, qr_code,
		           COALESCE(token, ''), checked_in_at, created_at`,
		eventID,
	).Scan(&p.ID, &p.EventID, &p.UserID, &p.Status, &p.Position, &p.QRCode,
		&p.ManagementToken, &p.CheckedInAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tx.Commit(ctx)
		}
		return nil, fmt.Errorf("promote waitlisted: %w", err)
	}

	err = tx.QueryRow(ctx,
		`SELECT name, email FROM users WHERE id = $1`, p.UserID,
	).Scan(&p.UserName, &p.UserEmail)
	if err != nil {
		return nil, fmt.Errorf("load promoted user: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &p, nil
}

// FindByQR resolves a QR token to a non-cancelled registration for the
// event, with owner and items.
func (r *RegistrationRepository) FindByQR(ctx context.Context, eventID, qrCode string) (*model.Registration, error) {
	reg, err := r.scanOne(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations r JOIN users u ON r.user_id = u.id
		 WHERE r.qr_code = $1 AND r.event_id = $2 AND r.status != 'cancelled'`,
		qrCode, eventID,
	)
	if err != nil {
		return nil, err
	}
	if reg.Items, err = r.itemsFor(ctx, reg.ID); err != nil {
		return nil, err
	}
	return reg, nil
}

// Search does a case-insensitive substring match on attendee name or email
// among the event's non-cancelled registrations, capped at limit.
func (r *RegistrationRepository) Search(ctx context.Context, eventID, query string, limit int) ([]model.Registration, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+registrationColumns+`
		 FROM registrations r JOIN users u ON r.user_id = u.id
		 WHERE r.event_id = $1 AND r.status != 'cancelled'
		   AND (u.name ILIKE $2 OR u.email ILIKE $2)
		 ORDER BY u.name
		 LIMIT $3`,
		eventID, "%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range regs {
		if regs[i].Items, err = r.itemsFor(ctx, regs[i].ID); err != nil {
			return nil, err
		}
	}
	return regs, nil
}

// CheckIn flips a non-cancelled registration to checked_in. Absent or
// cancelled registrations yield model.ErrNotFound; repeat check-ins yield
// model.ErrAlreadyCheckedIn.
func (r *RegistrationRepository) CheckIn(ctx context.Context, eventID, regID string) error {
	var status model.RegistrationStatus
	err := r.db.QueryRow(ctx,
		`SELECT status FROM registrations
		 WHERE id = $1 AND event_id = $2 AND status != 'cancelled'`,
		regID, eventID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("get registration: %w", err)
	}
	if status == model.RegistrationCheckedIn {
		return model.ErrAlreadyCheckedIn
	}

	_, err = r.db.Exec(ctx,
		`UPDATE registrations
		 SET status = 'checked_in', checked_in_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		regID,
	)
	if err != nil {
		return fmt.Errorf("check in: %w", err)
	}
	return nil
}

// Reminder is one attendee to email for an upcoming event.
type Reminder struct {
	Email     string
	Name      string
	UserID    string
	ItemNames []string
}

// RemindersForEvent lists non-cancelled registrants with their item names.
func (r *RegistrationRepository) RemindersForEvent(ctx context.Context, eventID string) ([]Reminder, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.email, u.name, u.id,
		        COALESCE(array_agg(i.name) FILTER (WHERE i.name IS NOT NULL), '{}')
		 FROM registrations r
		 JOIN users u ON r.user_id = u.id
		 LEFT JOIN items i ON i.registration_id = r.id AND i.status != 'cancelled'
		 WHERE r.event_id = $1 AND r.status != 'cancelled'
		 GROUP BY u.email, u.name, u.id`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var rem Reminder
		if err := rows.Scan(&rem.Email, &rem.Name, &rem.UserID, &rem.ItemNames); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out = append(out, rem)
	}
	return out, rows.Err()
}

// Summary counts an event's non-cancelled registrations and check-ins.
func (r *RegistrationRepository) Summary(ctx context.Context, eventID string) (total, checkedIn int, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN status = 'checked_in' THEN 1 END)
		 FROM registrations
		 WHERE event_id = $1 AND status != 'cancelled'`,
		eventID,
	).Scan(&total, &checkedIn)
	if err != nil {
		return 0, 0, fmt.Errorf("registration summary: %w", err)
	}
	return total, checkedIn, nil
}

// StatusCounts is an event's registration breakdown per status. Active is
// every non-cancelled registration.
type StatusCounts struct {
	Total      int `json:"total"`
	Registered int `json:"registered"`
	Waitlisted int `json:"waitlisted"`
	CheckedIn  int `json:"checked_in"`
	Cancelled  int `json:"cancelled"`
	Active     int `json:"active"`
}

// StatusCounts counts an event's registrations per status, cancellations
// included.
func (r *RegistrationRepository) StatusCounts(ctx context.Context, eventID string) (StatusCounts, error) {
	var c StatusCounts
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(CASE WHEN status = 'registered' THEN 1 END),
		        COUNT(CASE WHEN status = 'waitlisted' THEN 1 END),
		        COUNT(CASE WHEN status = 'checked_in' THEN 1 END),
		        COUNT(CASE WHEN status = 'cancelled' THEN 1 END)
		 FROM registrations
		 WHERE event_id = $1`,
		eventID,
	).Scan(&c.Total, &c.Registered, &c.Waitlisted, &c.CheckedIn, &c.Cancelled)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("registration status counts: %w", err)
	}
	c.Active = c.Total - c.Cancelled
	return c, nil
}

func (r *RegistrationRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Registration, error) {
	reg, err := scanRegistration(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var reg model.Registration
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID, &reg.Status, &reg.Position,
		&reg.QRCode, &reg.ManagementToken, &reg.CheckedInAt, &reg.CreatedAt,
		&reg.UserName, &reg.UserEmail,
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *RegistrationRepository) itemsFor(ctx context.Context, regID string) ([]model.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, registration_id, event_id, user_id, name, problem, status,
		        fixer_id, queue_position, COALESCE(outcome, ''),
		        COALESCE(outcome_notes, ''), COALESCE(repair_method, ''),
		        COALESCE(parts_used, ''), repair_started_at, repair_completed_at
		 FROM items WHERE registration_id = $1
		 ORDER BY name`,
		regID,
	)
	if err != nil {
		return nil, fmt.Errorf("list registration items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(
			&it.ID, &it.RegistrationID, &it.EventID, &it.UserID,
			&it.Name, &it.Problem, &it.Status,
			&it.FixerID, &it.QueuePosition, &it.Outcome,
			&it.OutcomeNotes, &it.RepairMethod, &it.PartsUsed,
			&it.StartedAt, &it.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

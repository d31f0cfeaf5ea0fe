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

// VolunteerRepository handles persistence for fixer profiles, structured
// skill tags, and helper volunteers.
type VolunteerRepository struct {
	db *pgxpool.Pool
}

// NewVolunteerRepository constructs a VolunteerRepository.
func NewVolunteerRepository(db *pgxpool.Pool) *VolunteerRepository {
	return &VolunteerRepository{db: db}
}

const fixerColumns = `
	id, user_id, name, email, COALESCE(phone, ''), COALESCE(skills, ''),
	COALESCE(availability, ''), status, approved_at, created_at`

// CreateFixer inserts a pending fixer profile.
func (r *VolunteerRepository) CreateFixer(ctx context.Context, f *model.Fixer) (*model.Fixer, error) {
	f.ID = uuid.New().String()
	f.Status = model.FixerPending
	f.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO fixers (id, user_id, name, email, phone, skills, availability, status, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		f.ID, f.UserID, f.Name, f.Email, f.Phone, f.Skills, f.Availability,
		f.Status, f.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert fixer: %w", err)
	}
	return f, nil
}

// GetFixerByUser returns the fixer profile linked to a user, or
// model.ErrNotFound.
func (r *VolunteerRepository) GetFixerByUser(ctx context.Context, userID string) (*model.Fixer, error) {
	var f model.Fixer
	err := r.db.QueryRow(ctx,
		`SELECT `+fixerColumns+` FROM fixers WHERE user_id = $1`, userID,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.Email, &f.Phone, &f.Skills,
		&f.Availability, &f.Status, &f.ApprovedAt, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get fixer: %w", err)
	}
	if f.SkillTags, err = r.SkillsForUser(ctx, userID); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFixers returns all fixer profiles, pending first, newest first inside
// each status.
func (r *VolunteerRepository) ListFixers(ctx context.Context) ([]model.Fixer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+fixerColumns+` FROM fixers
		 ORDER BY CASE status WHEN 'pending' THEN 0 ELSE 1 END, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list fixers: %w", err)
	}
	defer rows.Close()

	var fixers []model.Fixer
	for rows.Next() {
		var f model.Fixer
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Email, &f.Phone,
			&f.Skills, &f.Availability, &f.Status, &f.ApprovedAt, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fixer: %w", err)
		}
		fixers = append(fixers, f)
	}
	return fixers, rows.Err()
}

// SetFixerStatus updates a fixer's approval state, stamping approved_at
// when the new status is active.
func (r *VolunteerRepository) SetFixerStatus(ctx context.Context, fixerID string, status model.FixerStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE fixers
		 SET status = $1,
		     approved_at = CASE WHEN $1 = 'active' THEN NOW() ELSE approved_at END
		 WHERE id = $2`,
		status, fixerID,
	)
	if err != nil {
		return fmt.Errorf("set fixer status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// UpdateFixerProfile lets a fixer edit their own contact and skill text.
func (r *VolunteerRepository) UpdateFixerProfile(ctx context.Context, userID, phone, skills, availability string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE fixers
		 SET phone = NULLIF($1, ''), skills = NULLIF($2, ''), availability = NULLIF($3, '')
		 WHERE user_id = $4`,
		phone, skills, availability, userID,
	)
	if err != nil {
		return fmt.Errorf("update fixer profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListSkills returns the structured skill catalogue grouped by category.
func (r *VolunteerRepository) ListSkills(ctx context.Context) ([]model.Skill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, category FROM skills ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var skills []model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// SkillsForUser returns the structured skills attached to a user.
func (r *VolunteerRepository) SkillsForUser(ctx context.Context, userID string) ([]model.Skill, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.name, s.category
		 FROM user_skills us JOIN skills s ON us.skill_id = s.id
		 WHERE us.user_id = $1
		 ORDER BY s.category, s.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	defer rows.Close()

	var skills []model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category); err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

// SetUserSkills replaces a user's structured skill tags.
func (r *VolunteerRepository) SetUserSkills(ctx context.Context, userID string, skillIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`DELETE FROM user_skills WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear user skills: %w", err)
	}
	for _, skillID := range skillIDs {
		if _, err = tx.Exec(ctx,
			`INSERT INTO user_skills (user_id, skill_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			userID, skillID); err != nil {
			return fmt.Errorf("insert user skill: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SetFixerRSVPs replaces a fixer's event attendance answers.
func (r *VolunteerRepository) SetFixerRSVPs(ctx context.Context, fixerID string, rsvps []model.FixerRSVP) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`DELETE FROM fixer_event_rsvps WHERE fixer_id = $1`, fixerID); err != nil {
		return fmt.Errorf("clear fixer rsvps: %w", err)
	}
	for _, rsvp := range rsvps {
		if _, err = tx.Exec(ctx,
			`INSERT INTO fixer_event_rsvps (fixer_id, event_id, response)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (event_id, fixer_id) DO UPDATE SET response = EXCLUDED.response`,
			fixerID, rsvp.EventID, rsvp.Response); err != nil {
			return fmt.Errorf("insert fixer rsvp: %w", err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateHelper inserts a pending helper volunteer.
func (r *VolunteerRepository) CreateHelper(ctx context.Context, h *model.Helper) (*model.Helper, error) {
	h.ID = uuid.New().String()
	h.Status = model.HelperPending
	h.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO helpers (id, name, email, phone, availability, roles, status, created_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)`,
		h.ID, h.Name, h.Email, h.Phone, h.Availability, h.Roles, h.Status, h.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert helper: %w", err)
	}
	return h, nil
}

// ListHelpers returns all helper volunteers, newest first.
func (r *VolunteerRepository) ListHelpers(ctx context.Context) ([]model.Helper, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, COALESCE(phone, ''), COALESCE(availability, ''),
		        roles, status, created_at
		 FROM helpers ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list helpers: %w", err)
	}
	defer rows.Close()

	var helpers []model.Helper
	for rows.Next() {
		var h model.Helper
		if err := rows.Scan(&h.ID, &h.Name, &h.Email, &h.Phone,
			&h.Availability, &h.Roles, &h.Status, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan helper: %w", err)
		}
		helpers = append(helpers, h)
	}
	return helpers, rows.Err()
}

// SetHelperStatus updates a helper's coordination state.
func (r *VolunteerRepository) SetHelperStatus(ctx context.Context, helperID string, status model.HelperStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE helpers SET status = $1 WHERE id = $2`, status, helperID)
	if err != nil {
		return fmt.Errorf("set helper status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

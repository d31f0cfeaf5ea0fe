package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repair-commons/repaircafe/internal/model"
)

// ItemRepository handles persistence for repair items and their queue state.
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository constructs an ItemRepository.
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `
	i.id, i.registration_id, i.event_id, i.user_id, i.name, i.problem, i.status,
	i.fixer_id, i.queue_position, COALESCE(i.outcome, ''),
	COALESCE(i.outcome_notes, ''), COALESCE(i.repair_method, ''),
	COALESCE(i.parts_used, ''), i.repair_started_at, i.repair_completed_at,
	COALESCE(i.weight_kg, 0), COALESCE(i.pct_electronic, 0), COALESCE(i.pct_metal, 0),
	COALESCE(i.pct_plastic, 0), COALESCE(i.pct_textile, 0), COALESCE(i.pct_other, 0)`

// GetEventItem returns the item only when it belongs to the event, with
// owner and fixer names joined in.
func (r *ItemRepository) GetEventItem(ctx context.Context, eventID, itemID string) (*model.Item, error) {
	var it model.Item
	err := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+`, u.name, COALESCE(f.name, '')
		 FROM items i
		 JOIN users u ON i.user_id = u.id
		 LEFT JOIN users f ON i.fixer_id = f.id
		 WHERE i.id = $1 AND i.event_id = $2`,
		itemID, eventID,
	).Scan(
		&it.ID, &it.RegistrationID, &it.EventID, &it.UserID, &it.Name,
		&it.Problem, &it.Status, &it.FixerID, &it.QueuePosition, &it.Outcome,
		&it.OutcomeNotes, &it.RepairMethod, &it.PartsUsed,
		&it.StartedAt, &it.CompletedAt,
		&it.WeightKg, &it.PctElectronic, &it.PctMetal,
		&it.PctPlastic, &it.PctTextile, &it.PctOther,
		&it.OwnerName, &it.FixerName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// GetByID returns an item by its id alone, with owner and fixer names.
func (r *ItemRepository) GetByID(ctx context.Context, itemID string) (*model.Item, error) {
	var it model.Item
	err := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+`, u.name, COALESCE(f.name, '')
		 FROM items i
		 JOIN users u ON i.user_id = u.id
		 LEFT JOIN users f ON i.fixer_id = f.id
		 WHERE i.id = $1`,
		itemID,
	).Scan(
		&it.ID, &it.RegistrationID, &it.EventID, &it.UserID, &it.Name,
		&it.Problem, &it.Status, &it.FixerID, &it.QueuePosition, &it.Outcome,
		&it.OutcomeNotes, &it.RepairMethod, &it.PartsUsed,
		&it.StartedAt, &it.CompletedAt,
		&it.WeightKg, &it.PctElectronic, &it.PctMetal,
		&it.PctPlastic, &it.PctTextile, &it.PctOther,
		&it.OwnerName, &it.FixerName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// ListByEvent returns every item registered for the event with owner names,
// queued first.
func (r *ItemRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+`, u.name, COALESCE(f.name, '')
		 FROM items i
		 JOIN users u ON i.user_id = u.id
		 LEFT JOIN users f ON i.fixer_id = f.id
		 WHERE i.event_id = $1
		 ORDER BY CASE i.status
		   WHEN 'registered' THEN 0
		   WHEN 'in-progress' THEN 1
		   WHEN 'completed' THEN 2
		   ELSE 3 END,
		 i.queue_position NULLS LAST`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list event items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(
			&it.ID, &it.RegistrationID, &it.EventID, &it.UserID, &it.Name,
			&it.Problem, &it.Status, &it.FixerID, &it.QueuePosition, &it.Outcome,
			&it.OutcomeNotes, &it.RepairMethod, &it.PartsUsed,
			&it.StartedAt, &it.CompletedAt,
			&it.WeightKg, &it.PctElectronic, &it.PctMetal,
			&it.PctPlastic, &it.PctTextile, &it.PctOther,
			&it.OwnerName, &it.FixerName,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Claim assigns the item to a fixer. The update is conditional on the
// current status, so when two fixers race for the same item the loser gets
// model.ErrInvalidState and the winner's assignment stands.
func (r *ItemRepository) Claim(ctx context.Context, eventID, itemID, fixerUserID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE items
		 SET fixer_id = $1, status = 'in-progress', repair_started_at = NOW(), updated_at = NOW()
		 WHERE id = $2 AND event_id = $3 AND status = 'registered'`,
		fixerUserID, itemID, eventID,
	)
	if err != nil {
		return fmt.Errorf("claim item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing item from one in the wrong state.
		var n int
		if err := r.db.QueryRow(ctx,
			`SELECT COUNT(*) FROM items WHERE id = $1 AND event_id = $2`,
			itemID, eventID,
		).Scan(&n); err != nil {
			return fmt.Errorf("check item: %w", err)
		}
		if n == 0 {
			return model.ErrNotFound
		}
		return model.ErrInvalidState
	}
	return nil
}

// Complete records the repair outcome and closes the item.
func (r *ItemRepository) Complete(ctx context.Context, itemID string, outcome model.Outcome, notes, method, parts string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE items
		 SET outcome = $1, outcome_notes = NULLIF($2, ''), repair_method = NULLIF($3, ''),
		     parts_used = NULLIF($4, ''), status = 'completed',
		     repair_completed_at = NOW(), updated_at = NOW()
		 WHERE id = $5`,
		outcome, notes, method, parts, itemID,
	)
	if err != nil {
		return fmt.Errorf("complete item: %w", err)
	}
	return nil
}

// Revert puts an item back in the queue, clearing the fixer assignment,
// both timestamps, and every outcome field.
func (r *ItemRepository) Revert(ctx context.Context, itemID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE items
		 SET status = 'registered', fixer_id = NULL,
		     repair_started_at = NULL, repair_completed_at = NULL,
		     outcome = NULL, outcome_notes = NULL, repair_method = NULL,
		     parts_used = NULL, updated_at = NOW()
		 WHERE id = $1`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("revert item: %w", err)
	}
	return nil
}

// MarkInProgress restamps the start time on an already-assigned item.
func (r *ItemRepository) MarkInProgress(ctx context.Context, itemID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE items
		 SET status = 'in-progress', repair_started_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		itemID,
	)
	if err != nil {
		return fmt.Errorf("mark item in progress: %w", err)
	}
	return nil
}

// AddComment appends a comment to an item's thread, filling the generated
// id and timestamp.
func (r *ItemRepository) AddComment(ctx context.Context, c *model.ItemComment) error {
	c.ID = uuid.New().String()
	err := r.db.QueryRow(ctx,
		`INSERT INTO item_comments (id, item_id, user_id, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		c.ID, c.ItemID, c.UserID, c.Comment,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListComments returns an item's thread with author names, oldest first.
func (r *ItemRepository) ListComments(ctx context.Context, itemID string) ([]model.ItemComment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT ic.id, ic.item_id, ic.user_id, ic.comment, ic.created_at, u.name
		 FROM item_comments ic
		 JOIN users u ON ic.user_id = u.id
		 WHERE ic.item_id = $1
		 ORDER BY ic.created_at ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.ItemComment
	for rows.Next() {
		var c model.ItemComment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.UserID, &c.Comment, &c.CreatedAt, &c.UserName); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ReplaceForRegistration swaps the registration's items for the supplied
// set. The original interface replaces rather than diffs, so completed
// repair details do not survive an attendee edit.
func (r *ItemRepository) ReplaceForRegistration(ctx context.Context, regID, eventID, userID string, items []model.ItemInput) ([]model.Item, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx,
		`DELETE FROM items WHERE registration_id = $1`, regID); err != nil {
		return nil, fmt.Errorf("delete items: %w", err)
	}

	var inserted []model.Item
	for _, in := range items {
		item := model.Item{
			ID:             uuid.New().String(),
			RegistrationID: regID,
			EventID:        eventID,
			UserID:         userID,
			Name:           in.Name,
			Problem:        in.Problem,
			Status:         model.ItemRegistered,
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO items (id, registration_id, event_id, user_id, name, problem, status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.RegistrationID, item.EventID, item.UserID,
			item.Name, item.Problem, item.Status,
		); err != nil {
			return nil, fmt.Errorf("insert item: %w", err)
		}
		inserted = append(inserted, item)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return inserted, nil
}

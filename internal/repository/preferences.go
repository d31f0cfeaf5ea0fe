package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repair-commons/repaircafe/internal/model"
)

// PreferenceRepository handles per-user notification preference rows.
type PreferenceRepository struct {
	db *pgxpool.Pool
}

// NewPreferenceRepository constructs a PreferenceRepository.
func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the user's stored preferences, or the defaults when no row
// exists.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (model.NotificationPreferences, error) {
	var p model.NotificationPreferences
	err := r.db.QueryRow(ctx,
		`SELECT user_id, notify_comments, notify_events, notify_daily_digest, notify_weekly_digest
		 FROM notification_preferences WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.NotifyComments, &p.NotifyEvents, &p.NotifyDailyDigest, &p.NotifyWeekly)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultPreferences(), nil
		}
		return model.NotificationPreferences{}, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

// PreferencePatch carries optional flag updates. Nil means unchanged.
type PreferencePatch struct {
	NotifyComments    *bool
	NotifyEvents      *bool
	NotifyDailyDigest *bool
	NotifyWeekly      *bool
}

// Upsert inserts or updates the user's preferences; nil patch fields keep
// the stored value (or the default on first write).
func (r *PreferenceRepository) Upsert(ctx context.Context, userID string, patch PreferencePatch) (model.NotificationPreferences, error) {
	var p model.NotificationPreferences
	err := r.db.QueryRow(ctx,
		`INSERT INTO notification_preferences
		   (user_id, notify_comments, notify_events, notify_daily_digest, notify_weekly_digest)
		 VALUES ($1, COALESCE($2, TRUE), COALESCE($3, TRUE), COALESCE($4, FALSE), COALESCE($5, FALSE))
		 ON CONFLICT (user_id) DO UPDATE SET
		   notify_comments = COALESCE($2, notification_preferences.notify_comments),
		   notify_events = COALESCE($3, notification_preferences.notify_events),
		   notify_daily_digest = COALESCE($4, notification_preferences.notify_daily_digest),
		   notify_weekly_digest = COALESCE($5, notification_preferences.notify_weekly_digest),
		   updated_at = NOW()
		 RETURNING user_id, notify_comments, notify_events, notify_daily_digest, notify_weekly_digest`,
		userID, patch.NotifyComments, patch.NotifyEvents,
		patch.NotifyDailyDigest, patch.NotifyWeekly,
	).Scan(&p.UserID, &p.NotifyComments, &p.NotifyEvents, &p.NotifyDailyDigest, &p.NotifyWeekly)
	if err != nil {
		return model.NotificationPreferences{}, fmt.Errorf("upsert preferences: %w", err)
	}
	return p, nil
}

// WantsEventNotifications reports the user's notify_events flag, defaulting
// to true when no row exists or the lookup fails. Notification delivery
// must never be blocked by a preference read.
func (r *PreferenceRepository) WantsEventNotifications(ctx context.Context, userID string) bool {
	var notify bool
	err := r.db.QueryRow(ctx,
		`SELECT notify_events FROM notification_preferences WHERE user_id = $1`,
		userID,
	).Scan(&notify)
	if err != nil {
		return true
	}
	return notify
}

// WantsCommentNotifications reports the user's notify_comments flag with
// the same true-on-error default.
func (r *PreferenceRepository) WantsCommentNotifications(ctx context.Context, userID string) bool {
	var notify bool
	err := r.db.QueryRow(ctx,
		`SELECT notify_comments FROM notification_preferences WHERE user_id = $1`,
		userID,
	).Scan(&notify)
	if err != nil {
		return true
	}
	return notify
}

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repair-commons/repaircafe/internal/model"
)

// UserReader looks up item owners for repair-update emails.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// PreferenceChecker gates emails on per-user opt-out flags.
type PreferenceChecker interface {
	WantsEventNotifications(ctx context.Context, userID string) bool
	WantsCommentNotifications(ctx context.Context, userID string) bool
}

// Dispatcher renders and sends transactional email. Every method is
// best-effort: failures are logged and swallowed so the triggering
// operation is never affected.
type Dispatcher struct {
	mailer  Mailer
	users   UserReader
	prefs   PreferenceChecker
	appURL  string
	orgName string
}

// NewDispatcher wires a Dispatcher.
func NewDispatcher(mailer Mailer, users UserReader, prefs PreferenceChecker, appURL, orgName string) *Dispatcher {
	return &Dispatcher{mailer: mailer, users: users, prefs: prefs, appURL: appURL, orgName: orgName}
}

func (d *Dispatcher) send(ctx context.Context, kind, to string, msg message) {
	if to == "" {
		slog.Warn("notification skipped, no recipient", "kind", kind)
		return
	}
	if err := d.mailer.Send(ctx, to, msg.subject, msg.text, msg.html); err != nil {
		slog.Error("notification send failed", "kind", kind, "to", to, "error", err)
		return
	}
	slog.Debug("notification sent", "kind", kind, "to", to)
}

// MagicLink emails a sign-in link. Never gated by preferences.
func (d *Dispatcher) MagicLink(ctx context.Context, user *model.User, url string) {
	d.send(ctx, "magic_link", user.Email, magicLinkMessage(d.orgName, user, url))
}

// RegistrationConfirmed emails an attendee their confirmation or waitlist
// notice, with a management link.
func (d *Dispatcher) RegistrationConfirmed(ctx context.Context, reg *model.Registration, event *model.Event) {
	if !d.prefs.WantsEventNotifications(ctx, reg.UserID) {
		slog.Debug("notification skipped by preference", "kind", "registration_confirmed", "user_id", reg.UserID)
		return
	}
	manageURL := fmt.Sprintf("%s/registrations/%s?token=%s", d.appURL, reg.ID, reg.ManagementToken)
	d.send(ctx, "registration_confirmed", reg.UserEmail, registrationMessage(d.orgName, reg, event, manageURL))
}

// WaitlistPromoted tells an attendee they now hold a confirmed spot.
func (d *Dispatcher) WaitlistPromoted(ctx context.Context, reg *model.Registration, event *model.Event) {
	if !d.prefs.WantsEventNotifications(ctx, reg.UserID) {
		slog.Debug("notification skipped by preference", "kind", "waitlist_promoted", "user_id", reg.UserID)
		return
	}
	d.send(ctx, "waitlist_promoted", reg.UserEmail, waitlistPromotedMessage(reg, event))
}

// ItemClaimed tells an item's owner a fixer has started on it.
func (d *Dispatcher) ItemClaimed(ctx context.Context, item *model.Item, event *model.Event) {
	owner, err := d.users.GetByID(ctx, item.UserID)
	if err != nil {
		slog.Error("notification owner lookup failed", "kind", "item_claimed", "item_id", item.ID, "error", err)
		return
	}
	if !d.prefs.WantsEventNotifications(ctx, owner.ID) {
		slog.Debug("notification skipped by preference", "kind", "item_claimed", "user_id", owner.ID)
		return
	}
	d.send(ctx, "item_claimed", owner.Email, itemClaimedMessage(item, event))
}

// ItemCompleted emails the repair outcome to an item's owner.
func (d *Dispatcher) ItemCompleted(ctx context.Context, item *model.Item, event *model.Event) {
	owner, err := d.users.GetByID(ctx, item.UserID)
	if err != nil {
		slog.Error("notification owner lookup failed", "kind", "item_completed", "item_id", item.ID, "error", err)
		return
	}
	if !d.prefs.WantsEventNotifications(ctx, owner.ID) {
		slog.Debug("notification skipped by preference", "kind", "item_completed", "user_id", owner.ID)
		return
	}
	d.send(ctx, "item_completed", owner.Email, itemCompletedMessage(item, event))
}

// ItemCommented tells an item's owner someone commented on their item.
// Gated by the notify_comments flag rather than notify_events.
func (d *Dispatcher) ItemCommented(ctx context.Context, item *model.Item, commenter, comment string) {
	owner, err := d.users.GetByID(ctx, item.UserID)
	if err != nil {
		slog.Error("notification owner lookup failed", "kind", "item_comment", "item_id", item.ID, "error", err)
		return
	}
	if !d.prefs.WantsCommentNotifications(ctx, owner.ID) {
		slog.Debug("notification skipped by preference", "kind", "item_comment", "user_id", owner.ID)
		return
	}
	d.send(ctx, "item_comment", owner.Email, itemCommentMessage(owner.Name, commenter, item, comment))
}

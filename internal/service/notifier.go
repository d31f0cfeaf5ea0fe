package service

import (
	"context"

	"github.com/repair-commons/repaircafe/internal/model"
)

// Notifier dispatches transactional email. Implementations are best-effort:
// no method returns an error, and a failed send must never affect the
// business operation that triggered it.
type Notifier interface {
	// MagicLink emails a sign-in link. Not gated by preferences.
	MagicLink(ctx context.Context, user *model.User, url string)

	// RegistrationConfirmed emails the attendee after a successful
	// registration; reg carries UserName/UserEmail and Items.
	RegistrationConfirmed(ctx context.Context, reg *model.Registration, event *model.Event)

	// WaitlistPromoted emails an attendee whose registration moved off
	// the waitlist.
	WaitlistPromoted(ctx context.Context, reg *model.Registration, event *model.Event)

	// ItemClaimed emails an item's owner when a fixer starts on it.
	ItemClaimed(ctx context.Context, item *model.Item, event *model.Event)

	// ItemCompleted emails an item's owner with the repair outcome.
	ItemCompleted(ctx context.Context, item *model.Item, event *model.Event)

	// ItemCommented emails an item's owner when someone else comments
	// on it.
	ItemCommented(ctx context.Context, item *model.Item, commenter, comment string)
}

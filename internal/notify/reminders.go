package notify

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

// ReminderEventLister returns published events due a reminder.
type ReminderEventLister interface {
	ListUpcomingForReminders(ctx context.Context) ([]model.Event, error)
}

// ReminderRecipientLister returns active registrants with their item names.
type ReminderRecipientLister interface {
	RemindersForEvent(ctx context.Context, eventID string) ([]repository.Reminder, error)
}

// ReminderRunner sends pre-event reminder emails in a batch. It is
// invoked from a scheduled job, once per day.
type ReminderRunner struct {
	events ReminderEventLister
	regs   ReminderRecipientLister
	prefs  PreferenceChecker
	mailer Mailer

	// pause between sends to stay under SMTP rate limits
	delay time.Duration
}

// NewReminderRunner wires a ReminderRunner.
func NewReminderRunner(events ReminderEventLister, regs ReminderRecipientLister, prefs PreferenceChecker, mailer Mailer) *ReminderRunner {
	return &ReminderRunner{events: events, regs: regs, prefs: prefs, mailer: mailer, delay: 100 * time.Millisecond}
}

// ReminderResult summarizes one batch run.
type ReminderResult struct {
	Events  int
	Sent    int
	Skipped int
	Failed  int
}

// Run sends a reminder to every opted-in registrant of each event that is
// one or seven days away.
func (r *ReminderRunner) Run(ctx context.Context) (ReminderResult, error) {
	var res ReminderResult

	events, err := r.events.ListUpcomingForReminders(ctx)
	if err != nil {
		return res, err
	}
	res.Events = len(events)

	for i := range events {
		event := &events[i]
		daysOut := daysUntil(event.Date)

		recipients, err := r.regs.RemindersForEvent(ctx, event.ID)
		if err != nil {
			slog.Error("reminder recipient query failed", "event_id", event.ID, "error", err)
			continue
		}
		for _, rec := range recipients {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if !r.prefs.WantsEventNotifications(ctx, rec.UserID) {
				res.Skipped++
				continue
			}
			msg := reminderMessage(rec.Name, event, daysOut, rec.ItemNames)
			if err := r.mailer.Send(ctx, rec.Email, msg.subject, msg.text, msg.html); err != nil {
				slog.Error("reminder send failed", "to", rec.Email, "event_id", event.ID, "error", err)
				res.Failed++
				continue
			}
			res.Sent++
			time.Sleep(r.delay)
		}
	}

	slog.Info("reminder batch finished",
		"events", res.Events, "sent", res.Sent, "skipped", res.Skipped, "failed", res.Failed)
	return res, nil
}

// daysUntil counts calendar days to the date, DST-safe.
func daysUntil(date time.Time) int {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Round(d.Sub(today).Hours() / 24))
}

package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

type sentMail struct {
	to      string
	subject string
	text    string
}

type captureMailer struct {
	sent []sentMail
	err  error
}

func (m *captureMailer) Send(_ context.Context, to, subject, text, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, text: text})
	return nil
}

type stubUsers struct {
	users map[string]*model.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, model.ErrNotFound
}

type stubPrefs struct {
	optedOut    map[string]bool
	commentsOff map[string]bool
}

func (s *stubPrefs) WantsEventNotifications(_ context.Context, userID string) bool {
	return !s.optedOut[userID]
}

func (s *stubPrefs) WantsCommentNotifications(_ context.Context, userID string) bool {
	return !s.commentsOff[userID]
}

func newTestDispatcher(mailer Mailer) (*Dispatcher, *stubUsers, *stubPrefs) {
	users := &stubUsers{users: map[string]*model.User{
		"owner-1": {ID: "owner-1", Email: "owner@example.org", Name: "Owner"},
	}}
	prefs := &stubPrefs{optedOut: map[string]bool{}, commentsOff: map[string]bool{}}
	return NewDispatcher(mailer, users, prefs, "http://localhost:8080", "Repair Commons"), users, prefs
}

func TestDispatcherRegistrationConfirmed(t *testing.T) {
	mailer := &captureMailer{}
	d, _, _ := newTestDispatcher(mailer)

	reg := &model.Registration{
		ID: "reg-1", UserID: "owner-1",
		UserName: "Owner", UserEmail: "owner@example.org",
		Status:          model.RegistrationRegistered,
		ManagementToken: "tok123",
		Items:           []model.Item{{Name: "Toaster", Problem: "won't heat"}},
	}
	event := &model.Event{Title: "Autumn Café", Date: time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC), StartTime: "10:00"}

	d.RegistrationConfirmed(context.Background(), reg, event)

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, "owner@example.org", m.to)
	assert.Contains(t, m.subject, "registered for Autumn Café")
	assert.Contains(t, m.text, "Toaster")
	assert.Contains(t, m.text, "http://localhost:8080/registrations/reg-1?token=tok123")
}

func TestDispatcherWaitlistWording(t *testing.T) {
	mailer := &captureMailer{}
	d, _, _ := newTestDispatcher(mailer)

	reg := &model.Registration{
		ID: "reg-1", UserID: "owner-1", UserName: "Owner", UserEmail: "owner@example.org",
		Status: model.RegistrationWaitlisted,
	}
	event := &model.Event{Title: "Autumn Café", Date: time.Now()}

	d.RegistrationConfirmed(context.Background(), reg, event)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].subject, "waitlist")
}

func TestDispatcherPreferenceGate(t *testing.T) {
	mailer := &captureMailer{}
	d, _, prefs := newTestDispatcher(mailer)
	prefs.optedOut["owner-1"] = true

	reg := &model.Registration{ID: "reg-1", UserID: "owner-1", UserEmail: "owner@example.org"}
	event := &model.Event{Title: "Café", Date: time.Now()}
	item := &model.Item{ID: "item-1", UserID: "owner-1", Name: "Lamp"}

	d.RegistrationConfirmed(context.Background(), reg, event)
	d.WaitlistPromoted(context.Background(), reg, event)
	d.ItemClaimed(context.Background(), item, event)
	d.ItemCompleted(context.Background(), item, event)
	assert.Empty(t, mailer.sent)

	// Sign-in links are never gated.
	d.MagicLink(context.Background(), &model.User{ID: "owner-1", Email: "owner@example.org", Name: "Owner"}, "http://x/auth/verify?token=t")
	assert.Len(t, mailer.sent, 1)
}

func TestDispatcherItemCompleted(t *testing.T) {
	mailer := &captureMailer{}
	d, _, _ := newTestDispatcher(mailer)

	item := &model.Item{
		ID: "item-1", UserID: "owner-1", Name: "Lamp", OwnerName: "Owner",
		Outcome: model.OutcomeNeedsParts, OutcomeNotes: "needs a fuse",
	}
	event := &model.Event{Title: "Café", Date: time.Now()}

	d.ItemCompleted(context.Background(), item, event)

	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0].text, item.Outcome.Label())
	assert.Contains(t, mailer.sent[0].text, "needs a fuse")
}

func TestDispatcherItemCommented(t *testing.T) {
	mailer := &captureMailer{}
	d, _, _ := newTestDispatcher(mailer)

	item := &model.Item{ID: "item-1", UserID: "owner-1", Name: "Lamp"}
	d.ItemCommented(context.Background(), item, "Marta", "Try a new bulb first")

	require.Len(t, mailer.sent, 1)
	m := mailer.sent[0]
	assert.Equal(t, "owner@example.org", m.to)
	assert.Contains(t, m.subject, "New comment on your Lamp")
	assert.Contains(t, m.text, "Marta")
	assert.Contains(t, m.text, "Try a new bulb first")
}

func TestDispatcherCommentGate(t *testing.T) {
	mailer := &captureMailer{}
	d, _, prefs := newTestDispatcher(mailer)
	prefs.commentsOff["owner-1"] = true

	item := &model.Item{ID: "item-1", UserID: "owner-1", Name: "Lamp"}
	event := &model.Event{Title: "Café", Date: time.Now()}

	d.ItemCommented(context.Background(), item, "Marta", "hello")
	assert.Empty(t, mailer.sent)

	// The comment flag is independent of the event flag.
	d.ItemClaimed(context.Background(), item, event)
	assert.Len(t, mailer.sent, 1)
}

func TestDispatcherSwallowsSendFailure(t *testing.T) {
	mailer := &captureMailer{err: errors.New("smtp down")}
	d, _, _ := newTestDispatcher(mailer)

	// Must not panic or propagate.
	d.MagicLink(context.Background(), &model.User{Email: "a@b.org", Name: "A"}, "http://x")
	assert.Empty(t, mailer.sent)
}

type stubEventLister struct {
	events []model.Event
}

func (s *stubEventLister) ListUpcomingForReminders(_ context.Context) ([]model.Event, error) {
	return s.events, nil
}

type stubRecipients struct {
	byEvent map[string][]repository.Reminder
}

func (s *stubRecipients) RemindersForEvent(_ context.Context, eventID string) ([]repository.Reminder, error) {
	return s.byEvent[eventID], nil
}

func TestReminderRunner(t *testing.T) {
	tomorrow := time.Now().AddDate(0, 0, 1)
	mailer := &captureMailer{}
	prefs := &stubPrefs{optedOut: map[string]bool{"user-2": true}}

	runner := NewReminderRunner(
		&stubEventLister{events: []model.Event{{ID: "e1", Title: "Café", Date: tomorrow, StartTime: "10:00"}}},
		&stubRecipients{byEvent: map[string][]repository.Reminder{
			"e1": {
				{Email: "one@example.org", Name: "One", UserID: "user-1", ItemNames: []string{"Toaster"}},
				{Email: "two@example.org", Name: "Two", UserID: "user-2"},
			},
		}},
		prefs,
		mailer,
	)
	runner.delay = 0

	res, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Events)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "one@example.org", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, "tomorrow")
	assert.Contains(t, mailer.sent[0].text, "Toaster")
}

func TestDaysUntil(t *testing.T) {
	assert.Equal(t, 0, daysUntil(time.Now()))
	assert.Equal(t, 1, daysUntil(time.Now().AddDate(0, 0, 1)))
	assert.Equal(t, 7, daysUntil(time.Now().AddDate(0, 0, 7)))
}

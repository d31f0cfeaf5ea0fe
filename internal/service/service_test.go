package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repair-commons/repaircafe/internal/config"
	"github.com/repair-commons/repaircafe/internal/model"
)

type regFixture struct {
	users    *memUsers
	events   *memEvents
	regs     *memRegs
	items    *memItems
	notifier *recordingNotifier
	auth     *AuthService
	svc      *RegistrationService
}

func newRegFixture(t *testing.T) *regFixture {
	t.Helper()
	users := newMemUsers()
	events := newMemEvents()
	regs := newMemRegs(events)
	items := newMemItems()
	notifier := &recordingNotifier{}
	auth := NewAuthService(users, newMemTokens(users), notifier, config.Config{
		AppURL:      "http://localhost:8080",
		AdminEmails: []string{"admin@example.org"},
	})
	return &regFixture{
		users:    users,
		events:   events,
		regs:     regs,
		items:    items,
		notifier: notifier,
		auth:     auth,
		svc:      NewRegistrationService(auth, events, regs, items, notifier),
	}
}

func (f *regFixture) addEvent(capacity int, waitlist bool) *model.Event {
	return f.events.add(model.Event{
		Title:           "Repair Café",
		Capacity:        capacity,
		WaitlistEnabled: waitlist,
		Status:          model.EventPublished,
	})
}

func TestRegistrationCreate(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)

	reg, err := f.svc.Create(context.Background(), RegisterRequest{
		EventID: event.ID,
		Email:   "Ada@Example.org",
		Name:    "Ada",
		Items: []model.ItemInput{
			{Name: "Toaster", Problem: "won't heat"},
			{Name: "   ", Problem: "ghost entry"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, model.RegistrationRegistered, reg.Status)
	assert.Equal(t, 1, reg.Position)
	assert.Len(t, reg.QRCode, 32)
	assert.Len(t, reg.ManagementToken, 32)
	assert.Equal(t, "ada@example.org", reg.UserEmail)

	// The blank item pair is dropped without error.
	require.Len(t, reg.Items, 1)
	assert.Equal(t, "Toaster", reg.Items[0].Name)

	assert.Equal(t, []string{reg.ID}, f.notifier.confirmed)
}

func TestRegistrationCreateValidation(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing event", RegisterRequest{Email: "a@b.org", Name: "A"}},
		{"missing name", RegisterRequest{EventID: event.ID, Email: "a@b.org"}},
		{"bad email", RegisterRequest{EventID: event.ID, Email: "not-an-email", Name: "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestRegistrationWaitlist(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(1, true)

	first, err := f.svc.Create(context.Background(), RegisterRequest{
		EventID: event.ID, Email: "one@example.org", Name: "One",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationRegistered, first.Status)

	second, err := f.svc.Create(context.Background(), RegisterRequest{
		EventID: event.ID, Email: "two@example.org", Name: "Two",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationWaitlisted, second.Status)
	assert.Equal(t, 2, second.Position)
}

func TestRegistrationFullWithoutWaitlist(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(1, false)

	_, err := f.svc.Create(context.Background(), RegisterRequest{
		EventID: event.ID, Email: "one@example.org", Name: "One",
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), RegisterRequest{
		EventID: event.ID, Email: "two@example.org", Name: "Two",
	})
	assert.ErrorIs(t, err, model.ErrEventFull)
}

func TestRegistrationDuplicate(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)

	req := RegisterRequest{EventID: event.ID, Email: "ada@example.org", Name: "Ada"}
	_, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, model.ErrAlreadyRegistered)
}

func TestRegistrationGetAuthorization(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, RegisterRequest{EventID: event.ID, Email: "ada@example.org", Name: "Ada"})
	require.NoError(t, err)
	owner, err := f.users.GetByEmail(ctx, "ada@example.org")
	require.NoError(t, err)
	stranger, err := f.users.Create(ctx, "eve@example.org", "Eve", model.RoleAttendee)
	require.NoError(t, err)
	admin, err := f.users.Create(ctx, "admin@example.org", "Admin", model.RoleAdmin)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, reg.ID, Principal{User: owner})
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, reg.ID, Principal{User: admin})
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, reg.ID, Principal{Token: reg.ManagementToken})
	assert.NoError(t, err)

	_, err = f.svc.Get(ctx, reg.ID, Principal{User: stranger})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = f.svc.Get(ctx, reg.ID, Principal{Token: "wrong"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = f.svc.Get(ctx, reg.ID, Principal{})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestRegistrationGetMintsToken(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, RegisterRequest{EventID: event.ID, Email: "ada@example.org", Name: "Ada"})
	require.NoError(t, err)
	owner, err := f.users.GetByEmail(ctx, "ada@example.org")
	require.NoError(t, err)

	// Older registrations predate management tokens.
	f.regs.find(reg.ID).ManagementToken = ""

	got, err := f.svc.Get(ctx, reg.ID, Principal{User: owner})
	require.NoError(t, err)
	assert.Len(t, got.ManagementToken, 32)
	assert.Equal(t, got.ManagementToken, f.regs.find(reg.ID).ManagementToken)
}

func TestRegistrationCancelPromotesWaitlist(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(1, true)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, RegisterRequest{EventID: event.ID, Email: "one@example.org", Name: "One"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, RegisterRequest{EventID: event.ID, Email: "two@example.org", Name: "Two"})
	require.NoError(t, err)
	require.Equal(t, model.RegistrationWaitlisted, second.Status)

	require.NoError(t, f.svc.Cancel(ctx, first.ID, Principal{Token: first.ManagementToken}))

	assert.Equal(t, model.RegistrationCancelled, f.regs.find(first.ID).Status)
	assert.Equal(t, model.RegistrationRegistered, f.regs.find(second.ID).Status)
	assert.Equal(t, []string{second.ID}, f.notifier.promoted)

	// Cancelling again is a no-op, not an error, and promotes nobody else.
	require.NoError(t, f.svc.Cancel(ctx, first.ID, Principal{Token: first.ManagementToken}))
	assert.Len(t, f.notifier.promoted, 1)
}

func TestRegistrationCancelCascadesItems(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, RegisterRequest{
		EventID: event.ID, Email: "ada@example.org", Name: "Ada",
		Items: []model.ItemInput{{Name: "Lamp", Problem: "flickers"}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(ctx, reg.ID, Principal{Token: reg.ManagementToken}))

	stored := f.regs.find(reg.ID)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, model.ItemCancelled, stored.Items[0].Status)
}

func TestUpdateItemsOnCancelledRegistration(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, RegisterRequest{EventID: event.ID, Email: "ada@example.org", Name: "Ada"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Cancel(ctx, reg.ID, Principal{Token: reg.ManagementToken}))

	_, err = f.svc.UpdateItems(ctx, reg.ID, Principal{Token: reg.ManagementToken},
		[]model.ItemInput{{Name: "Radio", Problem: "static"}})
	assert.ErrorIs(t, err, model.ErrRegistrationCancelled)
}

func TestUpdateItemsReplaces(t *testing.T) {
	f := newRegFixture(t)
	event := f.addEvent(40, true)
	ctx := context.Background()

	reg, err := f.svc.Create(ctx, RegisterRequest{
		EventID: event.ID, Email: "ada@example.org", Name: "Ada",
		Items: []model.ItemInput{{Name: "Toaster", Problem: "won't heat"}},
	})
	require.NoError(t, err)

	items, err := f.svc.UpdateItems(ctx, reg.ID, Principal{Token: reg.ManagementToken}, []model.ItemInput{
		{Name: "Radio", Problem: "static"},
		{Name: "", Problem: "dropped"},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Radio", items[0].Name)
}

func TestIsDomainError(t *testing.T) {
	assert.True(t, IsDomainError(model.ErrEventFull))
	assert.False(t, IsDomainError(context.DeadlineExceeded))
}

// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

// Identity resolves an email address to a persistent user record.
// Implemented by AuthService.
type Identity interface {
	GetOrCreateUser(ctx context.Context, email, name string) (*model.User, error)
}

// EventGetter loads a single event with venue data and live counts.
type EventGetter interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// RegistrationStore is the persistence surface for the registration
// lifecycle.
type RegistrationStore interface {
	Create(ctx context.Context, p repository.CreateParams) (*model.Registration, error)
	GetDetail(ctx context.Context, id string) (*model.Registration, error)
	TokenMatches(ctx context.Context, id, token string) (bool, error)
	SetManagementToken(ctx context.Context, id, token string) error
	Cancel(ctx context.Context, id string) (*model.Registration, error)
}

// ItemReplacer swaps a registration's items for a new set.
type ItemReplacer interface {
	ReplaceForRegistration(ctx context.Context, regID, eventID, userID string, items []model.ItemInput) ([]model.Item, error)
}

// RegistrationService orchestrates the registration lifecycle: admission,
// self-service reads and edits, and cancellation with waitlist promotion.
type RegistrationService struct {
	identity Identity
	events   EventGetter
	regs     RegistrationStore
	items    ItemReplacer
	notifier Notifier
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(
	identity Identity,
	events EventGetter,
	regs RegistrationStore,
	items ItemReplacer,
	notifier Notifier,
) *RegistrationService {
	return &RegistrationService{
		identity: identity,
		events:   events,
		regs:     regs,
		items:    items,
		notifier: notifier,
	}
}

// RegisterRequest is the payload for registering for an event.
type RegisterRequest struct {
	EventID string            `json:"event_id"`
	Email   string            `json:"email"`
	Name    string            `json:"name"`
	Items   []model.ItemInput `json:"items"`
}

// Create admits an attendee to an event. The repository runs the admission
// sequence (duplicate check, capacity decision, position assignment, item
// inserts) in one serialized transaction; the confirmation email goes out
// after commit and its failure does not roll anything back.
func (s *RegistrationService) Create(ctx context.Context, req RegisterRequest) (*model.Registration, error) {
	if req.EventID == "" {
		return nil, fmt.Errorf("%w: event_id is required", model.ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}

	user, err := s.identity.GetOrCreateUser(ctx, req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	qrCode, err := generateToken(16)
	if err != nil {
		return nil, err
	}
	mgmtToken, err := generateToken(16)
	if err != nil {
		return nil, err
	}

	reg, err := s.regs.Create(ctx, repository.CreateParams{
		EventID:         event.ID,
		UserID:          user.ID,
		QRCode:          qrCode,
		ManagementToken: mgmtToken,
		Items:           filterItems(req.Items),
	})
	if err != nil {
		return nil, err
	}
	reg.UserName = user.Name
	reg.UserEmail = user.Email

	s.notifier.RegistrationConfirmed(ctx, reg, event)
	return reg, nil
}

// Principal identifies the caller of a self-service operation: a signed-in
// user, a registration-scoped capability token, or both.
type Principal struct {
	User  *model.User
	Token string
}

// Get returns a registration with its items. Access requires the session
// user to own the registration (admins pass too) or the capability token
// from the confirmation email. When no management token exists yet, one is
// minted so the response can carry a shareable self-service link.
func (s *RegistrationService) Get(ctx context.Context, regID string, p Principal) (*model.Registration, error) {
	reg, err := s.regs.GetDetail(ctx, regID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, reg, p); err != nil {
		return nil, err
	}

	if reg.ManagementToken == "" {
		token, err := generateToken(16)
		if err != nil {
			return nil, err
		}
		if err := s.regs.SetManagementToken(ctx, regID, token); err != nil {
			return nil, err
		}
		reg.ManagementToken = token
	}
	return reg, nil
}

// UpdateItems replaces the registration's items with the supplied list.
// Pairs with an empty name or problem are dropped silently; edits to a
// cancelled registration are rejected.
func (s *RegistrationService) UpdateItems(ctx context.Context, regID string, p Principal, items []model.ItemInput) ([]model.Item, error) {
	reg, err := s.regs.GetDetail(ctx, regID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, reg, p); err != nil {
		return nil, err
	}
	if reg.Status == model.RegistrationCancelled {
		return nil, model.ErrRegistrationCancelled
	}
	return s.items.ReplaceForRegistration(ctx, reg.ID, reg.EventID, reg.UserID, filterItems(items))
}

// Cancel marks the registration cancelled, cascades to its items, and
// notifies whoever gets promoted off the waitlist. Irreversible through
// this interface.
func (s *RegistrationService) Cancel(ctx context.Context, regID string, p Principal) error {
	reg, err := s.regs.GetDetail(ctx, regID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, reg, p); err != nil {
		return err
	}

	promoted, err := s.regs.Cancel(ctx, regID)
	if err != nil {
		return err
	}
	if promoted != nil {
		if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
			s.notifier.WaitlistPromoted(ctx, promoted, event)
		}
	}
	return nil
}

// authorize collapses the session-or-token credential to a yes/no against
// the registration's owner.
func (s *RegistrationService) authorize(ctx context.Context, reg *model.Registration, p Principal) error {
	if p.User != nil {
		if p.User.ID == reg.UserID || p.User.Role == model.RoleAdmin {
			return nil
		}
	}
	if p.Token != "" {
		ok, err := s.regs.TokenMatches(ctx, reg.ID, p.Token)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return model.ErrUnauthorized
}

// filterItems keeps only pairs with both a name and a problem.
func filterItems(items []model.ItemInput) []model.ItemInput {
	var out []model.ItemInput
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		it.Problem = strings.TrimSpace(it.Problem)
		if it.Name != "" && it.Problem != "" {
			out = append(out, it)
		}
	}
	return out
}

// IsDomainError reports whether err maps to a client-addressable failure
// rather than an internal one.
func IsDomainError(err error) bool {
	for _, target := range []error{
		model.ErrNotFound, model.ErrUnauthorized, model.ErrForbidden,
		model.ErrEventFull, model.ErrAlreadyRegistered, model.ErrAlreadyCheckedIn,
		model.ErrInvalidState, model.ErrRegistrationCancelled, model.ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

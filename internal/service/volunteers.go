package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/repair-commons/repaircafe/internal/model"
	"github.com/repair-commons/repaircafe/internal/repository"
)

// VolunteerStore is the persistence surface for fixer and helper
// onboarding.
type VolunteerStore interface {
	CreateFixer(ctx context.Context, f *model.Fixer) (*model.Fixer, error)
	GetFixerByUser(ctx context.Context, userID string) (*model.Fixer, error)
	ListFixers(ctx context.Context) ([]model.Fixer, error)
	SetFixerStatus(ctx context.Context, fixerID string, status model.FixerStatus) error
	UpdateFixerProfile(ctx context.Context, userID, phone, skills, availability string) error
	ListSkills(ctx context.Context) ([]model.Skill, error)
	SkillsForUser(ctx context.Context, userID string) ([]model.Skill, error)
	SetUserSkills(ctx context.Context, userID string, skillIDs []string) error
	SetFixerRSVPs(ctx context.Context, fixerID string, rsvps []model.FixerRSVP) error
	CreateHelper(ctx context.Context, h *model.Helper) (*model.Helper, error)
	ListHelpers(ctx context.Context) ([]model.Helper, error)
	SetHelperStatus(ctx context.Context, helperID string, status model.HelperStatus) error
}

// RoleSetter promotes a user's role, used when a fixer profile is created.
type RoleSetter interface {
	SetRole(ctx context.Context, id string, role model.Role) error
}

// VolunteerService handles fixer and helper onboarding and administration.
type VolunteerService struct {
	store    VolunteerStore
	identity Identity
	roles    RoleSetter
}

// NewVolunteerService constructs a VolunteerService.
func NewVolunteerService(store VolunteerStore, identity Identity, roles RoleSetter) *VolunteerService {
	return &VolunteerService{store: store, identity: identity, roles: roles}
}

// FixerRegistration is the application payload for new fixers.
type FixerRegistration struct {
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Skills       string            `json:"skills"`
	Availability string            `json:"availability"`
	SkillIDs     []string          `json:"skill_ids"`
	EventRSVPs   []model.FixerRSVP `json:"event_rsvps"`
}

// normalizeRSVPs drops answers without an event and defaults the response
// to yes.
func normalizeRSVPs(rsvps []model.FixerRSVP) []model.FixerRSVP {
	out := make([]model.FixerRSVP, 0, len(rsvps))
	for _, rsvp := range rsvps {
		rsvp.EventID = strings.TrimSpace(rsvp.EventID)
		if rsvp.EventID == "" {
			continue
		}
		if strings.TrimSpace(rsvp.Response) == "" {
			rsvp.Response = "yes"
		}
		out = append(out, rsvp)
	}
	return out
}

// RegisterFixer creates a pending fixer profile linked to the user record
// for the email, promoting an attendee to the fixer role. A user can hold
// at most one profile.
func (s *VolunteerService) RegisterFixer(ctx context.Context, req FixerRegistration) (*model.Fixer, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", model.ErrValidation)
	}

	user, err := s.identity.GetOrCreateUser(ctx, req.Email, req.Name)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetFixerByUser(ctx, user.ID); err == nil {
		return nil, model.ErrAlreadyRegistered
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if user.Role == model.RoleAttendee {
		if err := s.roles.SetRole(ctx, user.ID, model.RoleFixer); err != nil {
			return nil, err
		}
	}

	fixer, err := s.store.CreateFixer(ctx, &model.Fixer{
		UserID:       user.ID,
		Name:         strings.TrimSpace(req.Name),
		Email:        user.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Skills:       strings.TrimSpace(req.Skills),
		Availability: strings.TrimSpace(req.Availability),
	})
	if err != nil {
		return nil, err
	}
	if len(req.SkillIDs) > 0 {
		if err := s.store.SetUserSkills(ctx, user.ID, req.SkillIDs); err != nil {
			return nil, err
		}
		if fixer.SkillTags, err = s.store.SkillsForUser(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	if rsvps := normalizeRSVPs(req.EventRSVPs); len(rsvps) > 0 {
		if err := s.store.SetFixerRSVPs(ctx, fixer.ID, rsvps); err != nil {
			return nil, err
		}
	}
	return fixer, nil
}

// Profile returns the calling fixer's profile with skill tags.
func (s *VolunteerService) Profile(ctx context.Context, user *model.User) (*model.Fixer, error) {
	if user == nil {
		return nil, model.ErrUnauthorized
	}
	return s.store.GetFixerByUser(ctx, user.ID)
}

// ProfileUpdate carries self-service profile edits.
type ProfileUpdate struct {
	Phone        string            `json:"phone"`
	Skills       string            `json:"skills"`
	Availability string            `json:"availability"`
	SkillIDs     []string          `json:"skill_ids"`
	EventRSVPs   []model.FixerRSVP `json:"event_rsvps"`
}

// UpdateProfile edits the calling fixer's contact data, skill tags, and
// event attendance answers.
func (s *VolunteerService) UpdateProfile(ctx context.Context, user *model.User, req ProfileUpdate) (*model.Fixer, error) {
	if user == nil {
		return nil, model.ErrUnauthorized
	}
	if err := s.store.UpdateFixerProfile(ctx, user.ID, req.Phone, req.Skills, req.Availability); err != nil {
		return nil, err
	}
	if req.SkillIDs != nil {
		if err := s.store.SetUserSkills(ctx, user.ID, req.SkillIDs); err != nil {
			return nil, err
		}
	}
	if req.EventRSVPs != nil {
		fixer, err := s.store.GetFixerByUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		if err := s.store.SetFixerRSVPs(ctx, fixer.ID, normalizeRSVPs(req.EventRSVPs)); err != nil {
			return nil, err
		}
	}
	return s.store.GetFixerByUser(ctx, user.ID)
}

// ListFixers returns all fixer applications for the admin table.
func (s *VolunteerService) ListFixers(ctx context.Context) ([]model.Fixer, error) {
	return s.store.ListFixers(ctx)
}

// SetFixerStatus transitions a fixer application; active stamps the
// approval time.
func (s *VolunteerService) SetFixerStatus(ctx context.Context, fixerID string, status model.FixerStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid fixer status %q", model.ErrValidation, status)
	}
	return s.store.SetFixerStatus(ctx, fixerID, status)
}

// HelperRegistration is the sign-up payload for non-repair volunteers.
type HelperRegistration struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Availability string   `json:"availability"`
	Roles        []string `json:"roles"`
}

// RegisterHelper records a helper volunteer sign-up.
func (s *VolunteerService) RegisterHelper(ctx context.Context, req HelperRegistration) (*model.Helper, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", model.ErrValidation)
	}
	if !isValidEmail(strings.ToLower(strings.TrimSpace(req.Email))) {
		return nil, fmt.Errorf("%w: email is not a valid email address", model.ErrValidation)
	}
	if len(req.Roles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", model.ErrValidation)
	}
	return s.store.CreateHelper(ctx, &model.Helper{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		Availability: strings.TrimSpace(req.Availability),
		Roles:        req.Roles,
	})
}

// ListHelpers returns all helper volunteers for the admin table.
func (s *VolunteerService) ListHelpers(ctx context.Context) ([]model.Helper, error) {
	return s.store.ListHelpers(ctx)
}

// SetHelperStatus transitions a helper's coordination state.
func (s *VolunteerService) SetHelperStatus(ctx context.Context, helperID string, status model.HelperStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid helper status %q", model.ErrValidation, status)
	}
	return s.store.SetHelperStatus(ctx, helperID, status)
}

// ListSkills returns the structured skill catalogue for sign-up forms.
func (s *VolunteerService) ListSkills(ctx context.Context) ([]model.Skill, error) {
	return s.store.ListSkills(ctx)
}

// PreferenceStore is the persistence surface for notification preferences.
type PreferenceStore interface {
	Get(ctx context.Context, userID string) (model.NotificationPreferences, error)
	Upsert(ctx context.Context, userID string, patch repository.PreferencePatch) (model.NotificationPreferences, error)
}

// PreferenceService reads and updates per-user notification flags.
type PreferenceService struct {
	prefs PreferenceStore
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(prefs PreferenceStore) *PreferenceService {
	return &PreferenceService{prefs: prefs}
}

// Get returns the user's preferences, defaults when unset.
func (s *PreferenceService) Get(ctx context.Context, user *model.User) (model.NotificationPreferences, error) {
	if user == nil {
		return model.NotificationPreferences{}, model.ErrUnauthorized
	}
	return s.prefs.Get(ctx, user.ID)
}

// Update upserts the provided flags, leaving absent ones untouched.
func (s *PreferenceService) Update(ctx context.Context, user *model.User, patch repository.PreferencePatch) (model.NotificationPreferences, error) {
	if user == nil {
		return model.NotificationPreferences{}, model.ErrUnauthorized
	}
	return s.prefs.Upsert(ctx, user.ID, patch)
}

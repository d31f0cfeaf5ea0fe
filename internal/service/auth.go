package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repair-commons/repaircafe/internal/config"
	"github.com/repair-commons/repaircafe/internal/model"
)

// UserStore is the persistence surface the auth service needs for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, email, name string, role model.Role) (*model.User, error)
	SetRole(ctx context.Context, id string, role model.Role) error
	MarkEmailVerified(ctx context.Context, id string) error
}

// TokenStore is the persistence surface for magic-link tokens and sessions.
type TokenStore interface {
	InsertMagicToken(ctx context.Context, userID, hashedToken string, expiresAt time.Time) error
	ConsumeMagicToken(ctx context.Context, hashedToken string) (string, error)
	CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error
	UserBySession(ctx context.Context, token string) (*model.User, error)
	DeleteSession(ctx context.Context, token string) error
}

const (
	magicLinkTTL = time.Hour
	sessionTTL   = 30 * 24 * time.Hour
)

// AuthService resolves emails to user records and runs the magic-link
// sign-in flow.
type AuthService struct {
	users    UserStore
	tokens   TokenStore
	notifier Notifier
	cfg      config.Config
}

// NewAuthService constructs an AuthService.
func NewAuthService(users UserStore, tokens TokenStore, notifier Notifier, cfg config.Config) *AuthService {
	return &AuthService{users: users, tokens: tokens, notifier: notifier, cfg: cfg}
}

// GetOrCreateUser looks up a user by lower-cased email, creating one if
// absent. New users get the admin role when their email is on the
// configured allow-list, attendee otherwise; the display name defaults to
// the local part of the email.
func (s *AuthService) GetOrCreateUser(ctx context.Context, email, name string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !isValidEmail(email) {
		return nil, fmt.Errorf("%w: a valid email is required", model.ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if name = strings.TrimSpace(name); name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	role := model.RoleAttendee
	if s.cfg.IsAdminEmail(email) {
		role = model.RoleAdmin
	}
	return s.users.Create(ctx, email, name, role)
}

// MagicLink is the outcome of a sign-in request.
type MagicLink struct {
	User *model.User
	URL  string
}

// RequestMagicLink mints a one-hour single-use sign-in token for the email,
// creating the user on first contact, and sends the link.
func (s *AuthService) RequestMagicLink(ctx context.Context, email, name string) (*MagicLink, error) {
	user, err := s.GetOrCreateUser(ctx, email, name)
	if err != nil {
		return nil, err
	}

	token, err := generateToken(32)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(magicLinkTTL)
	if err := s.tokens.InsertMagicToken(ctx, user.ID, hashToken(token), expiresAt); err != nil {
		return nil, err
	}

	link := &MagicLink{
		User: user,
		URL:  fmt.Sprintf("%s/auth/verify?token=%s", s.cfg.AppURL, token),
	}
	s.notifier.MagicLink(ctx, user, link.URL)
	return link, nil
}

// Session is a signed-in browser session.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// VerifyMagicLink redeems a sign-in token. Tokens are single-use and
// expire after an hour; anything else yields model.ErrUnauthorized.
func (s *AuthService) VerifyMagicLink(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", model.ErrValidation)
	}

	userID, err := s.tokens.ConsumeMagicToken(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid or expired link", model.ErrUnauthorized)
		}
		return nil, err
	}
	if err := s.users.MarkEmailVerified(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessionToken, err := generateToken(32)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(sessionTTL)
	if err := s.tokens.CreateSession(ctx, userID, sessionToken, expiresAt); err != nil {
		return nil, err
	}

	return &Session{Token: sessionToken, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a session cookie value to its user, or
// model.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, sessionToken string) (*model.User, error) {
	if sessionToken == "" {
		return nil, model.ErrUnauthorized
	}
	user, err := s.tokens.UserBySession(ctx, sessionToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// SignOut invalidates a session token. Unknown tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	return s.tokens.DeleteSession(ctx, sessionToken)
}

// isValidEmail does a basic structural check on an address.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}

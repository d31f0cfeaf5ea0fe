package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repair-commons/repaircafe/internal/model"
)

// AuthRepository handles magic-link tokens and browser sessions. Magic-link
// tokens are stored hashed; the caller hashes before lookup or insert.
type AuthRepository struct {
	db *pgxpool.Pool
}

// NewAuthRepository constructs an AuthRepository.
func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

// InsertMagicToken stores a hashed single-use token for the user.
func (r *AuthRepository) InsertMagicToken(ctx context.Context, userID, hashedToken string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens (token, user_id, type, expires_at)
		 VALUES ($1, $2, 'magic_link', $3)`,
		hashedToken, userID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert auth token: %w", err)
	}
	return nil
}

// ConsumeMagicToken marks an unused, unexpired token as used and returns the
// owning user ID. Expired, used, or unknown tokens yield model.ErrNotFound.
func (r *AuthRepository) ConsumeMagicToken(ctx context.Context, hashedToken string) (string, error) {
	var userID string
	err := r.db.QueryRow(ctx,
		`UPDATE auth_tokens SET used_at = NOW()
		 WHERE token = $1 AND used_at IS NULL AND expires_at > NOW()
		 RETURNING user_id`,
		hashedToken,
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("consume auth token: %w", err)
	}
	return userID, nil
}

// CreateSession stores a session token for the user.
func (r *AuthRepository) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UserBySession resolves an unexpired session token to its user.
func (r *AuthRepository) UserBySession(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT u.id, u.email, u.name, u.role, u.email_verified, u.created_at
		 FROM users u JOIN sessions s ON s.user_id = u.id
		 WHERE s.token = $1 AND s.expires_at > NOW()`,
		token,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.EmailVerified, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get session user: %w", err)
	}
	return &u, nil
}

// DeleteSession removes a session token. Unknown tokens are not an error.
func (r *AuthRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

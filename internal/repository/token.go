package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/forkful/forkful/internal/model"
)

// Common errors for token repository operations.
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExists   = errors.New("token already exists for user")
)

// CreateToken inserts a new bearer token.
// A user may hold at most one token; a duplicate insert returns ErrTokenExists.
func (r *Repository) CreateToken(ctx context.Context, token *model.Token) error {
	query := `
		INSERT INTO auth_tokens (key, user_id, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, token.Key, token.UserID, token.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTokenExists
		}
		return fmt.Errorf("failed to create token: %w", err)
	}

	return nil
}

// GetTokenByUserID retrieves the token held by a user, if any.
func (r *Repository) GetTokenByUserID(ctx context.Context, userID string) (*model.Token, error) {
	query := `
		SELECT key, user_id, created_at
		FROM auth_tokens
		WHERE user_id = $1
	`

	var token model.Token
	err := r.pool.QueryRow(ctx, query, userID).Scan(&token.Key, &token.UserID, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token by user ID: %w", err)
	}

	return &token, nil
}

// GetUserByTokenKey resolves a bearer token to its active owner.
// This is the hot path for authenticated requests.
func (r *Repository) GetUserByTokenKey(ctx context.Context, key string) (*model.User, error) {
	query := `
		SELECT u.id, u.email, u.password_hash, u.name, u.is_active, u.is_staff, u.is_superuser, u.created_at, u.updated_at
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.key = $1 AND u.is_active
	`

	user, err := scanUser(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	return user, nil
}

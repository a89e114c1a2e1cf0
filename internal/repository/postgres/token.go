package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const tokenTypeReset = "reset"

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

// StoreResetToken keeps one live reset token per user; a new request
// replaces the previous token.
func (r *tokenRepository) StoreResetToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	query := `
		INSERT INTO user_tokens (id, user_id, token, type, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, type) DO UPDATE
		SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, used_at = NULL, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.New(), userID, token, tokenTypeReset, expiry); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *tokenRepository) ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_tokens
		WHERE token = $1
		AND type = $2
		AND expires_at > NOW()
		AND used_at IS NULL
	`

	var userID uuid.UUID
	if err := r.db.GetContext(ctx, &userID, query, token, tokenTypeReset); err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid or expired token", err)
	}
	return userID, nil
}

func (r *tokenRepository) InvalidateResetToken(ctx context.Context, token string) error {
	query := `
		UPDATE user_tokens
		SET used_at = NOW(), updated_at = NOW()
		WHERE token = $1 AND type = $2 AND used_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, token, tokenTypeReset)
	if err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.BadRequest("invalid or expired token", nil)
	}
	return nil
}

package pgstore

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

// RefreshTokens is the Postgres auth.RefreshTokenStore.
type RefreshTokens struct{ s *Store }

func (r *RefreshTokens) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	var rt auth.RefreshToken
	err := r.s.q(ctx).QueryRow(ctx,
		`SELECT token, account_id, expires_at, created_at FROM refresh_tokens WHERE token = $1`, token,
	).Scan(&rt.Token, &rt.AccountID, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("failed to query refresh token: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokens) Add(ctx context.Context, token *auth.RefreshToken) error {
	_, err := r.s.q(ctx).Exec(ctx,
		`INSERT INTO refresh_tokens (token, account_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		token.Token, token.AccountID, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("failed to insert refresh token: %w", err))
	}
	return nil
}

func (r *RefreshTokens) Update(ctx context.Context, token *auth.RefreshToken) error {
	tag, err := r.s.q(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET account_id = $2, expires_at = $3 WHERE token = $1`,
		token.Token, token.AccountID, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrRefreshTokenNotFound
	}
	return nil
}

func (r *RefreshTokens) Delete(ctx context.Context, token string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrRefreshTokenNotFound
	}
	return nil
}

// ResetTokens is the Postgres auth.ResetTokenStore.
type ResetTokens struct{ s *Store }

func (r *ResetTokens) GetByToken(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	var rt auth.PasswordResetToken
	err := r.s.q(ctx).QueryRow(ctx,
		`SELECT token, email, expires_at, created_at FROM password_reset_tokens WHERE token = $1`, token,
	).Scan(&rt.Token, &rt.Email, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrResetTokenNotFound
		}
		return nil, fmt.Errorf("failed to query reset token: %w", err)
	}
	return &rt, nil
}

func (r *ResetTokens) Add(ctx context.Context, token *auth.PasswordResetToken) error {
	_, err := r.s.q(ctx).Exec(ctx,
		`INSERT INTO password_reset_tokens (token, email, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		token.Token, auth.NormalizeEmail(token.Email), token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("failed to insert reset token: %w", err))
	}
	return nil
}

func (r *ResetTokens) Delete(ctx context.Context, token string) error {
	tag, err := r.s.q(ctx).Exec(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrResetTokenNotFound
	}
	return nil
}

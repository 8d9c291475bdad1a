package memstore

import (
	"context"

	"github.com/dmitrymomot/authcore/pkg/auth"
)

// RefreshTokens is the in-memory auth.RefreshTokenStore.
type RefreshTokens struct{ s *Store }

func (r *RefreshTokens) GetByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	defer r.s.read(ctx)()
	rt, ok := r.s.refreshTokens[token]
	if !ok {
		return nil, auth.ErrRefreshTokenNotFound
	}
	return &rt, nil
}

func (r *RefreshTokens) Add(ctx context.Context, token *auth.RefreshToken) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.refreshTokens[token.Token]; ok {
		return auth.ErrDuplicateToken
	}
	r.s.refreshTokens[token.Token] = *token
	return nil
}

func (r *RefreshTokens) Update(ctx context.Context, token *auth.RefreshToken) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.refreshTokens[token.Token]; !ok {
		return auth.ErrRefreshTokenNotFound
	}
	r.s.refreshTokens[token.Token] = *token
	return nil
}

func (r *RefreshTokens) Delete(ctx context.Context, token string) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.refreshTokens[token]; !ok {
		return auth.ErrRefreshTokenNotFound
	}
	delete(r.s.refreshTokens, token)
	return nil
}

// ResetTokens is the in-memory auth.ResetTokenStore.
type ResetTokens struct{ s *Store }

func (r *ResetTokens) GetByToken(ctx context.Context, token string) (*auth.PasswordResetToken, error) {
	defer r.s.read(ctx)()
	rt, ok := r.s.resetTokens[token]
	if !ok {
		return nil, auth.ErrResetTokenNotFound
	}
	return &rt, nil
}

func (r *ResetTokens) Add(ctx context.Context, token *auth.PasswordResetToken) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.resetTokens[token.Token]; ok {
		return auth.ErrDuplicateToken
	}
	r.s.resetTokens[token.Token] = *token
	return nil
}

func (r *ResetTokens) Delete(ctx context.Context, token string) error {
	defer r.s.write(ctx)()
	if _, ok := r.s.resetTokens[token]; !ok {
		return auth.ErrResetTokenNotFound
	}
	delete(r.s.resetTokens, token)
	return nil
}

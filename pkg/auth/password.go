package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// Register creates an active password account for email.
// It fails with ErrEmailAlreadyExists when the normalized email is taken.
func (s *Service) Register(ctx context.Context, email, password string) (err error) {
	defer func(start time.Time) { s.observe(CommandRegister, start, err) }(time.Now())

	email = NormalizeEmail(email)

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Add(ctx, account); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered", logger.AccountID(account.ID))
	s.publish(ctx, events.NewAccountRegistered(account.ID, account.Email))
	return nil
}

// LoginWithPassword verifies the credentials and returns a new token pair.
// Unknown email and wrong password both fail with ErrInvalidCredentials.
func (s *Service) LoginWithPassword(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	defer func(start time.Time) { s.observe(CommandLoginPassword, start, err) }(time.Now())

	email = NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.equalizeTiming(password)
			s.logger.WarnContext(ctx, "login rejected: unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.HasPassword() || !s.hasher.Verify(password, account.PasswordHash) {
		s.logger.WarnContext(ctx, "login rejected: bad credentials", logger.AccountID(account.ID))
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		s.logger.WarnContext(ctx, "login rejected: inactive account", logger.AccountID(account.ID))
		return nil, ErrAccountInactive
	}

	access, err := s.issuer.Issue(account.ID.String(), account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	rt, err := s.issueRefreshToken(account.ID)
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokens.Add(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in", logger.AccountID(account.ID))
	s.publish(ctx, events.NewAccountLoggedIn(account.ID, account.Email))

	return &TokenPair{AccessToken: access, RefreshToken: rt.Token}, nil
}

// RefreshToken rotates a refresh token: the presented token is consumed and
// a new pair is returned. Unknown, expired or already rotated tokens fail
// with ErrInvalidRefreshToken.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func(start time.Time) { s.observe(CommandRefreshToken, start, err) }(time.Now())

	current, err := s.refreshTokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if current.Expired(s.now()) {
		if err := s.refreshTokens.Delete(ctx, current.Token); err != nil && !errors.Is(err, ErrRefreshTokenNotFound) {
			s.logger.WarnContext(ctx, "failed to delete expired refresh token",
				logger.AccountID(current.AccountID), logger.Error(err))
		}
		return nil, ErrInvalidRefreshToken
	}

	account, err := s.accounts.GetByID(ctx, current.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	access, err := s.issuer.Issue(account.ID.String(), account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	next, err := s.issueRefreshToken(account.ID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.refreshTokens.Delete(ctx, current.Token); err != nil {
			if errors.Is(err, ErrRefreshTokenNotFound) {
				return ErrInvalidRefreshToken
			}
			return fmt.Errorf("failed to consume refresh token: %w", err)
		}
		if err := s.refreshTokens.Add(ctx, next); err != nil {
			return fmt.Errorf("failed to store refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "refresh token rotated", logger.AccountID(account.ID))
	return &TokenPair{AccessToken: access, RefreshToken: next.Token}, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// ForgotPassword issues a reset token for email and publishes it in a
// PasswordResetRequested event. Unknown emails are a silent no-op so the
// caller cannot probe which accounts exist.
func (s *Service) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func(start time.Time) { s.observe(CommandForgotPassword, start, err) }(time.Now())

	email = NormalizeEmail(email)

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.logger.WarnContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	value, err := s.resetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	now := s.now()
	rt := &PasswordResetToken{
		Token:     value,
		Email:     account.Email,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.resetTokens.Add(ctx, rt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset requested", logger.AccountID(account.ID))
	s.publish(ctx, events.NewPasswordResetRequested(rt.Email, rt.Token))
	return nil
}

// ResetPassword sets a new password using a reset token. The token is
// consumed; a second call with the same token fails with
// ErrResetTokenNotFound.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) (err error) {
	defer func(start time.Time) { s.observe(CommandResetPassword, start, err) }(time.Now())

	rt, err := s.resetTokens.GetByToken(ctx, resetToken)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrResetTokenNotFound
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if rt.Expired(s.now()) {
		if err := s.resetTokens.Delete(ctx, rt.Token); err != nil && !errors.Is(err, ErrResetTokenNotFound) {
			s.logger.WarnContext(ctx, "failed to delete expired reset token", logger.Error(err))
		}
		return ErrResetTokenExpired
	}

	account, err := s.accounts.GetByEmail(ctx, rt.Email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.resetTokens.Delete(ctx, rt.Token); err != nil {
			if errors.Is(err, ErrResetTokenNotFound) {
				return ErrResetTokenNotFound
			}
			return fmt.Errorf("failed to consume reset token: %w", err)
		}

		updated := *account
		updated.PasswordHash = hash
		updated.UpdatedAt = s.now()
		if err := s.accounts.Update(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password reset completed", logger.AccountID(account.ID))
	return nil
}

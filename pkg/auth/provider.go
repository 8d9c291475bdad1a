package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/oauth"
)

// LoginWithProvider signs in with an external provider credential and returns
// an access token. A provider identity seen for the first time gets a new
// provider-only account. No refresh token is issued.
func (s *Service) LoginWithProvider(ctx context.Context, provider, credential string) (accessToken string, err error) {
	defer func(start time.Time) { s.observe(CommandLoginWithProvider, start, err) }(time.Now())

	name, identity, err := s.exchange(ctx, provider, credential)
	if err != nil {
		return "", err
	}

	account, err := s.accounts.GetByProvider(ctx, name, identity.ExternalID)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		account, err = s.createProviderAccount(ctx, name, identity)
		if err != nil {
			return "", err
		}
	case err != nil:
		return "", fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.IsActive {
		s.logger.WarnContext(ctx, "provider login rejected: inactive account",
			logger.AccountID(account.ID), logger.Provider(name))
		return "", ErrAccountInactive
	}

	accessToken, err = s.issuer.Issue(account.ID.String(), account.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	s.logger.InfoContext(ctx, "account logged in", logger.AccountID(account.ID), logger.Provider(name))
	s.publish(ctx, events.NewAccountLoggedIn(account.ID, account.Email))
	return accessToken, nil
}

// createProviderAccount persists a provider-only account. When a concurrent
// request created the same provider identity first, that account is returned.
func (s *Service) createProviderAccount(ctx context.Context, provider string, identity oauth.Identity) (*Account, error) {
	now := s.now()
	account := &Account{
		ID:                uuid.New(),
		Email:             NormalizeEmail(identity.Email),
		FullName:          identity.FullName,
		IsActive:          true,
		Provider:          provider,
		ProviderAccountID: identity.ExternalID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.accounts.Add(ctx, account); err != nil {
		if !errors.Is(err, ErrConflict) {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		existing, lookupErr := s.accounts.GetByProvider(ctx, provider, identity.ExternalID)
		if lookupErr == nil {
			return existing, nil
		}
		// The email belongs to an account without this provider identity.
		return nil, err
	}

	s.logger.InfoContext(ctx, "account registered", logger.AccountID(account.ID), logger.Provider(provider))
	s.publish(ctx, events.NewAccountRegistered(account.ID, account.Email))
	return account, nil
}

// LinkProvider attaches an external provider identity to an existing account.
// It fails with ErrProviderLinked when the identity belongs to another account.
func (s *Service) LinkProvider(ctx context.Context, accountID uuid.UUID, provider, credential string) (err error) {
	defer func(start time.Time) { s.observe(CommandLinkProvider, start, err) }(time.Now())

	name, identity, err := s.exchange(ctx, provider, credential)
	if err != nil {
		return err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	owner, err := s.accounts.GetByProvider(ctx, name, identity.ExternalID)
	switch {
	case err == nil && owner.ID != account.ID:
		return ErrProviderLinked
	case err != nil && !errors.Is(err, ErrAccountNotFound):
		return fmt.Errorf("failed to look up provider identity: %w", err)
	}

	updated := *account
	updated.Provider = name
	updated.ProviderAccountID = identity.ExternalID
	updated.UpdatedAt = s.now()
	if err := s.accounts.Update(ctx, &updated); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrProviderLinked
		}
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to link provider: %w", err)
	}

	s.logger.InfoContext(ctx, "provider linked", logger.AccountID(account.ID), logger.Provider(name))
	s.publish(ctx, events.NewProviderLinked(updated.Snapshot(), name))
	return nil
}

// exchange resolves the gateway for provider and verifies credential. It
// returns the canonical provider name stored on accounts.
func (s *Service) exchange(ctx context.Context, provider, credential string) (string, oauth.Identity, error) {
	if s.providers == nil {
		return "", oauth.Identity{}, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
	gw, err := s.providers.Resolve(provider)
	if err != nil {
		return "", oauth.Identity{}, providerError(err)
	}

	identity, err := gw.Exchange(ctx, credential)
	if err != nil {
		s.logger.WarnContext(ctx, "provider exchange failed", logger.Provider(gw.Name()), logger.Error(err))
		return "", oauth.Identity{}, providerError(err)
	}
	return oauth.Normalize(gw.Name()), identity, nil
}

func providerError(err error) error {
	switch {
	case errors.Is(err, oauth.ErrUnsupportedProvider):
		return fmt.Errorf("%w: %w", ErrUnsupportedProvider, err)
	case errors.Is(err, oauth.ErrMisconfigured):
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	case errors.Is(err, oauth.ErrInvalidCredential),
		errors.Is(err, oauth.ErrInvalidProfile),
		errors.Is(err, oauth.ErrNoEmail):
		return fmt.Errorf("%w: %w", ErrProviderCredential, err)
	default:
		return fmt.Errorf("provider exchange failed: %w", err)
	}
}

package memstore

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/auth"
)

// Accounts is the in-memory auth.AccountStore.
type Accounts struct{ s *Store }

func (a *Accounts) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	defer a.s.read(ctx)()
	acc, ok := a.s.accounts[id]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	return &acc, nil
}

func (a *Accounts) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	defer a.s.read(ctx)()
	id, ok := a.s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	acc := a.s.accounts[id]
	return &acc, nil
}

func (a *Accounts) GetByProvider(ctx context.Context, provider, externalID string) (*auth.Account, error) {
	defer a.s.read(ctx)()
	id, ok := a.s.byProvider[providerKey{provider, externalID}]
	if !ok {
		return nil, auth.ErrAccountNotFound
	}
	acc := a.s.accounts[id]
	return &acc, nil
}

func (a *Accounts) Add(ctx context.Context, account *auth.Account) error {
	defer a.s.write(ctx)()

	email := auth.NormalizeEmail(account.Email)
	if _, ok := a.s.byEmail[email]; ok {
		return auth.ErrEmailAlreadyExists
	}
	key := providerKey{account.Provider, account.ProviderAccountID}
	if key.provider != "" {
		if _, ok := a.s.byProvider[key]; ok {
			return auth.ErrProviderLinked
		}
	}

	stored := *account
	stored.Email = email
	a.s.accounts[stored.ID] = stored
	a.s.byEmail[email] = stored.ID
	if key.provider != "" {
		a.s.byProvider[key] = stored.ID
	}
	return nil
}

func (a *Accounts) Update(ctx context.Context, account *auth.Account) error {
	defer a.s.write(ctx)()

	prev, ok := a.s.accounts[account.ID]
	if !ok {
		return auth.ErrAccountNotFound
	}

	email := auth.NormalizeEmail(account.Email)
	if id, ok := a.s.byEmail[email]; ok && id != account.ID {
		return auth.ErrEmailAlreadyExists
	}
	key := providerKey{account.Provider, account.ProviderAccountID}
	if key.provider != "" {
		if id, ok := a.s.byProvider[key]; ok && id != account.ID {
			return auth.ErrProviderLinked
		}
	}

	delete(a.s.byEmail, prev.Email)
	if prev.Provider != "" {
		delete(a.s.byProvider, providerKey{prev.Provider, prev.ProviderAccountID})
	}

	stored := *account
	stored.Email = email
	a.s.accounts[stored.ID] = stored
	a.s.byEmail[email] = stored.ID
	if key.provider != "" {
		a.s.byProvider[key] = stored.ID
	}
	return nil
}

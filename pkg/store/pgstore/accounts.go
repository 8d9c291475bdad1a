package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/pg"
)

const accountColumns = `id, email, password_hash, full_name, is_active,
	COALESCE(provider, ''), COALESCE(provider_account_id, ''), created_at, updated_at`

// Accounts is the Postgres auth.AccountStore.
type Accounts struct{ s *Store }

func (a *Accounts) GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error) {
	return a.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (a *Accounts) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	return a.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, auth.NormalizeEmail(email))
}

func (a *Accounts) GetByProvider(ctx context.Context, provider, externalID string) (*auth.Account, error) {
	return a.get(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE provider = $1 AND provider_account_id = $2`,
		provider, externalID)
}

func (a *Accounts) get(ctx context.Context, query string, args ...any) (*auth.Account, error) {
	acc, err := scanAccount(a.s.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, auth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return acc, nil
}

func (a *Accounts) Add(ctx context.Context, account *auth.Account) error {
	_, err := a.s.q(ctx).Exec(ctx,
		`INSERT INTO accounts (id, email, password_hash, full_name, is_active,
			provider, provider_account_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		account.ID, auth.NormalizeEmail(account.Email), account.PasswordHash, account.FullName,
		account.IsActive, account.Provider, account.ProviderAccountID,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("failed to insert account: %w", err))
	}
	return nil
}

func (a *Accounts) Update(ctx context.Context, account *auth.Account) error {
	tag, err := a.s.q(ctx).Exec(ctx,
		`UPDATE accounts SET email = $2, password_hash = $3, full_name = $4, is_active = $5,
			provider = NULLIF($6, ''), provider_account_id = NULLIF($7, ''), updated_at = $8
		 WHERE id = $1`,
		account.ID, auth.NormalizeEmail(account.Email), account.PasswordHash, account.FullName,
		account.IsActive, account.Provider, account.ProviderAccountID, account.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(fmt.Errorf("failed to update account: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (*auth.Account, error) {
	var acc auth.Account
	err := row.Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.FullName, &acc.IsActive,
		&acc.Provider, &acc.ProviderAccountID, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

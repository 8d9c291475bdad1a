package auth

import (
	"context"

	"github.com/google/uuid"
)

// AccountStore persists accounts. Lookups return ErrAccountNotFound when
// nothing matches. Add and Update return ErrEmailAlreadyExists or
// ErrProviderLinked on uniqueness violations.
type AccountStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByProvider(ctx context.Context, provider, externalID string) (*Account, error)
	Add(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
}

// RefreshTokenStore persists refresh tokens. GetByToken and Delete return
// ErrRefreshTokenNotFound for unknown tokens; Add returns ErrDuplicateToken.
type RefreshTokenStore interface {
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	Add(ctx context.Context, token *RefreshToken) error
	Update(ctx context.Context, token *RefreshToken) error
	Delete(ctx context.Context, token string) error
}

// ResetTokenStore persists password reset tokens. GetByToken and Delete
// return ErrResetTokenNotFound for unknown tokens; Add returns ErrDuplicateToken.
type ResetTokenStore interface {
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	Add(ctx context.Context, token *PasswordResetToken) error
	Delete(ctx context.Context, token string) error
}

// Transactor runs fn as one atomic unit. Stores called with the ctx passed
// to fn participate in the unit. If fn returns an error, nothing it wrote
// is kept.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TransactorFunc adapts a function to Transactor.
type TransactorFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TransactorFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTx runs fn directly. Use it with stores that cannot provide transactions.
var NoTx Transactor = TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

// Stores groups the persistence collaborators of a Service.
type Stores struct {
	Accounts      AccountStore
	RefreshTokens RefreshTokenStore
	ResetTokens   ResetTokenStore
	// Tx defaults to NoTx.
	Tx Transactor
}

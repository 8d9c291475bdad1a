package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authcore/pkg/oauth"
)

type deps struct {
	accounts  *MockAccountStore
	refresh   *MockRefreshTokenStore
	reset     *MockResetTokenStore
	hasher    *MockHasher
	issuer    *MockIssuer
	publisher *MockPublisher
}

func newTestService(t *testing.T, opts ...Option) (*Service, *deps) {
	t.Helper()

	d := &deps{
		accounts:  &MockAccountStore{},
		refresh:   &MockRefreshTokenStore{},
		reset:     &MockResetTokenStore{},
		hasher:    &MockHasher{},
		issuer:    &MockIssuer{},
		publisher: &MockPublisher{},
	}
	stores := Stores{Accounts: d.accounts, RefreshTokens: d.refresh, ResetTokens: d.reset}
	opts = append([]Option{
		WithPublisher(d.publisher),
		WithRefreshTokenSource(func() (string, error) { return "next-refresh", nil }),
		WithResetTokenSource(func() (string, error) { return "reset-token", nil }),
	}, opts...)

	svc, err := New(stores, d.hasher, d.issuer, opts...)
	require.NoError(t, err)
	return svc, d
}

func activeAccount() *Account {
	return &Account{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: "stored-hash",
		IsActive:     true,
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	assert.Equal(t, DefaultRefreshTokenTTL, svc.refreshTTL)
	assert.Equal(t, DefaultResetTokenTTL, svc.resetTTL)
	assert.NotNil(t, svc.tx)
	assert.NotNil(t, svc.logger)

	svc, _ = newTestService(t, WithRefreshTokenTTL(time.Hour), WithResetTokenTTL(-time.Minute))
	assert.Equal(t, time.Hour, svc.refreshTTL)
	assert.Equal(t, DefaultResetTokenTTL, svc.resetTTL)
}

func TestService_Register(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("publish failure does not fail the command", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)

		d.accounts.On("GetByEmail", mock.Anything, "a@example.com").Return(nil, ErrAccountNotFound)
		d.hasher.On("Hash", "pw").Return("hash", nil)
		d.accounts.On("Add", mock.Anything, mock.MatchedBy(func(a *Account) bool {
			return a.Email == "a@example.com" && a.PasswordHash == "hash" && a.IsActive && a.ID != uuid.Nil
		})).Return(nil)
		d.publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.AccountRegistered")).
			Return(errors.New("broker down"))

		require.NoError(t, svc.Register(ctx, " A@Example.com", "pw"))
		d.accounts.AssertExpectations(t)
		d.publisher.AssertExpectations(t)
	})

	t.Run("insert race maps to email conflict", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)

		d.accounts.On("GetByEmail", mock.Anything, "a@example.com").Return(nil, ErrAccountNotFound)
		d.hasher.On("Hash", "pw").Return("hash", nil)
		d.accounts.On("Add", mock.Anything, mock.Anything).Return(ErrEmailAlreadyExists)

		err := svc.Register(ctx, "a@example.com", "pw")
		require.ErrorIs(t, err, ErrEmailAlreadyExists)
		d.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)

		dbErr := errors.New("connection reset")
		d.accounts.On("GetByEmail", mock.Anything, "a@example.com").Return(nil, dbErr)

		err := svc.Register(ctx, "a@example.com", "pw")
		require.ErrorIs(t, err, dbErr)
		assert.Equal(t, KindInternal, KindOf(err))
		d.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	})

	t.Run("records the outcome", func(t *testing.T) {
		t.Parallel()
		rec := &MockRecorder{}
		svc, d := newTestService(t, WithRecorder(rec))

		d.accounts.On("GetByEmail", mock.Anything, "a@example.com").Return(activeAccount(), nil)
		rec.On("RecordCommand", CommandRegister, string(KindConflict), mock.AnythingOfType("time.Duration")).Once()

		require.ErrorIs(t, svc.Register(ctx, "a@example.com", "pw"), ErrEmailAlreadyExists)
		rec.AssertExpectations(t)
	})
}

func TestService_LoginWithPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unknown email still runs a hash comparison", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)

		d.accounts.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, ErrAccountNotFound)
		d.hasher.On("Hash", mock.Anything).Return("dummy-hash", nil).Once()
		d.hasher.On("Verify", "pw", "dummy-hash").Return(false)

		for range 2 {
			_, err := svc.LoginWithPassword(ctx, "ghost@example.com", "pw")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}
		d.hasher.AssertNumberOfCalls(t, "Hash", 1)
		d.hasher.AssertNumberOfCalls(t, "Verify", 2)
	})

	t.Run("refresh token store failure", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)
		acc := activeAccount()

		d.accounts.On("GetByEmail", mock.Anything, acc.Email).Return(acc, nil)
		d.hasher.On("Verify", "pw", acc.PasswordHash).Return(true)
		d.issuer.On("Issue", acc.ID.String(), acc.Email).Return("access", nil)
		d.refresh.On("Add", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		pair, err := svc.LoginWithPassword(ctx, acc.Email, "pw")
		require.Error(t, err)
		assert.Nil(t, pair)
		assert.Equal(t, KindInternal, KindOf(err))
		d.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestService_RefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	setup := func(t *testing.T, tx Transactor) (*Service, *deps, *Account) {
		t.Helper()
		svc, d := newTestService(t)
		svc.tx = tx
		acc := activeAccount()

		d.refresh.On("GetByToken", mock.Anything, "current").Return(&RefreshToken{
			Token:     "current",
			AccountID: acc.ID,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		d.accounts.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)
		d.issuer.On("Issue", acc.ID.String(), acc.Email).Return("access", nil)
		return svc, d, acc
	}

	t.Run("losing the claim is reported as invalid token", func(t *testing.T) {
		t.Parallel()
		svc, d, _ := setup(t, NoTx)

		d.refresh.On("Delete", mock.Anything, "current").Return(ErrRefreshTokenNotFound)

		_, err := svc.RefreshToken(ctx, "current")
		require.ErrorIs(t, err, ErrInvalidRefreshToken)
		d.refresh.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("rotation runs inside one transaction", func(t *testing.T) {
		t.Parallel()
		var calls int
		var txErr error
		tx := TransactorFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
			calls++
			txErr = fn(ctx)
			return txErr
		})
		svc, d, acc := setup(t, tx)

		dbErr := errors.New("insert failed")
		d.refresh.On("Delete", mock.Anything, "current").Return(nil)
		d.refresh.On("Add", mock.Anything, mock.MatchedBy(func(rt *RefreshToken) bool {
			return rt.Token == "next-refresh" && rt.AccountID == acc.ID
		})).Return(dbErr)

		_, err := svc.RefreshToken(ctx, "current")
		require.ErrorIs(t, err, dbErr)
		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, txErr, dbErr)
	})
}

func TestService_ResetPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("consumes the token before updating", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)
		acc := activeAccount()

		d.reset.On("GetByToken", mock.Anything, "reset-token").Return(&PasswordResetToken{
			Token:     "reset-token",
			Email:     acc.Email,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		d.accounts.On("GetByEmail", mock.Anything, acc.Email).Return(acc, nil)
		d.hasher.On("Hash", "new-pw").Return("new-hash", nil)

		var order []string
		d.reset.On("Delete", mock.Anything, "reset-token").Return(nil).
			Run(func(mock.Arguments) { order = append(order, "delete") })
		d.accounts.On("Update", mock.Anything, mock.MatchedBy(func(a *Account) bool {
			return a.ID == acc.ID && a.PasswordHash == "new-hash"
		})).Return(nil).Run(func(mock.Arguments) { order = append(order, "update") })

		require.NoError(t, svc.ResetPassword(ctx, "reset-token", "new-pw"))
		assert.Equal(t, []string{"delete", "update"}, order)
		assert.Equal(t, "stored-hash", acc.PasswordHash)
	})

	t.Run("account removed after the token was issued", func(t *testing.T) {
		t.Parallel()
		svc, d := newTestService(t)

		d.reset.On("GetByToken", mock.Anything, "reset-token").Return(&PasswordResetToken{
			Token:     "reset-token",
			Email:     "gone@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		d.accounts.On("GetByEmail", mock.Anything, "gone@example.com").Return(nil, ErrAccountNotFound)

		require.ErrorIs(t, svc.ResetPassword(ctx, "reset-token", "new-pw"), ErrAccountNotFound)
		d.reset.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestService_ForgotPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("token generation failure", func(t *testing.T) {
		t.Parallel()
		entropyErr := errors.New("no entropy")
		svc, d := newTestService(t, WithResetTokenSource(func() (string, error) { return "", entropyErr }))

		d.accounts.On("GetByEmail", mock.Anything, "user@example.com").Return(activeAccount(), nil)

		err := svc.ForgotPassword(ctx, "user@example.com")
		require.ErrorIs(t, err, entropyErr)
		d.reset.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	})

	t.Run("stores token with ttl", func(t *testing.T) {
		t.Parallel()
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		svc, d := newTestService(t, WithClock(func() time.Time { return now }), WithResetTokenTTL(30*time.Minute))

		d.accounts.On("GetByEmail", mock.Anything, "user@example.com").Return(activeAccount(), nil)
		d.reset.On("Add", mock.Anything, mock.MatchedBy(func(rt *PasswordResetToken) bool {
			return rt.Token == "reset-token" && rt.ExpiresAt.Equal(now.Add(30*time.Minute))
		})).Return(nil)
		d.publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.PasswordResetRequested")).Return(nil)

		require.NoError(t, svc.ForgotPassword(ctx, "user@example.com"))
		d.reset.AssertExpectations(t)
		d.publisher.AssertExpectations(t)
	})
}

func TestService_ProviderCommands(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	identity := oauth.Identity{ExternalID: "77", Email: "Racer@Example.com", FullName: "Racer"}

	newGateway := func() *MockGateway {
		gw := &MockGateway{}
		gw.On("Name").Return("GitHub")
		gw.On("Exchange", mock.Anything, "code").Return(identity, nil)
		return gw
	}

	t.Run("concurrent first login reuses the winner", func(t *testing.T) {
		t.Parallel()
		resolver := &MockResolver{}
		resolver.On("Resolve", "github").Return(newGateway(), nil)
		svc, d := newTestService(t, WithProviders(resolver))

		winner := activeAccount()
		winner.Provider, winner.ProviderAccountID = "github", "77"
		d.accounts.On("GetByProvider", mock.Anything, "github", "77").Return(nil, ErrAccountNotFound).Once()
		d.accounts.On("GetByProvider", mock.Anything, "github", "77").Return(winner, nil).Once()
		d.accounts.On("Add", mock.Anything, mock.MatchedBy(func(a *Account) bool {
			return a.Email == "racer@example.com" && a.PasswordHash == ""
		})).Return(ErrProviderLinked)
		d.issuer.On("Issue", winner.ID.String(), winner.Email).Return("access", nil)
		d.publisher.On("Publish", mock.Anything, mock.AnythingOfType("events.AccountLoggedIn")).Return(nil)

		access, err := svc.LoginWithProvider(ctx, "github", "code")
		require.NoError(t, err)
		assert.Equal(t, "access", access)
		d.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.AnythingOfType("events.AccountRegistered"))
	})

	t.Run("resolver errors are mapped", func(t *testing.T) {
		t.Parallel()
		resolver := &MockResolver{}
		resolver.On("Resolve", "gitlab").Return(nil, oauth.ErrUnsupportedProvider)
		svc, _ := newTestService(t, WithProviders(resolver))

		_, err := svc.LoginWithProvider(ctx, "gitlab", "code")
		require.ErrorIs(t, err, ErrUnsupportedProvider)
		assert.Equal(t, KindUnsupportedProvider, KindOf(err))
	})

	t.Run("link update conflict", func(t *testing.T) {
		t.Parallel()
		resolver := &MockResolver{}
		resolver.On("Resolve", "github").Return(newGateway(), nil)
		svc, d := newTestService(t, WithProviders(resolver))

		acc := activeAccount()
		d.accounts.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)
		d.accounts.On("GetByProvider", mock.Anything, "github", "77").Return(nil, ErrAccountNotFound)
		d.accounts.On("Update", mock.Anything, mock.Anything).Return(ErrProviderLinked)

		err := svc.LinkProvider(ctx, acc.ID, "github", "code")
		require.ErrorIs(t, err, ErrProviderLinked)
		assert.Empty(t, acc.Provider)
		d.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestProviderError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   error
		want Kind
	}{
		{oauth.ErrUnsupportedProvider, KindUnsupportedProvider},
		{oauth.ErrMisconfigured, KindConfiguration},
		{oauth.ErrInvalidCredential, KindUnauthorized},
		{oauth.ErrInvalidProfile, KindUnauthorized},
		{oauth.ErrNoEmail, KindUnauthorized},
		{oauth.ErrProviderUnavailable, KindInternal},
	}
	for _, tt := range tests {
		err := providerError(tt.in)
		assert.ErrorIs(t, err, tt.in)
		assert.Equal(t, tt.want, KindOf(err), "%v", tt.in)
	}
}

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/oauth"
	"github.com/dmitrymomot/authcore/pkg/password"
	"github.com/dmitrymomot/authcore/pkg/store/memstore"
)

var (
	issuerOnce sync.Once
	issuer     *jwt.Issuer
)

func testIssuer(t *testing.T) *jwt.Issuer {
	t.Helper()
	issuerOnce.Do(func() {
		keys, err := jwt.NewKeyProvider()
		if err != nil {
			panic(err)
		}
		issuer, err = jwt.NewIssuer(keys, jwt.Config{Issuer: "authcore-test", Audience: "authcore-test"})
		if err != nil {
			panic(err)
		}
	})
	return issuer
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) Publish(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Name())
	}
	return out
}

func (l *eventLog) last() events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return nil
	}
	return l.events[len(l.events)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubGateway struct {
	name       string
	identities map[string]oauth.Identity
	err        error
}

func (g *stubGateway) Name() string { return g.name }

func (g *stubGateway) Exchange(_ context.Context, credential string) (oauth.Identity, error) {
	if g.err != nil {
		return oauth.Identity{}, g.err
	}
	id, ok := g.identities[credential]
	if !ok {
		return oauth.Identity{}, oauth.ErrInvalidCredential
	}
	return id, nil
}

type fixture struct {
	svc    *auth.Service
	store  *memstore.Store
	events *eventLog
	clock  *clock
}

func newFixture(t *testing.T, gateways ...oauth.Gateway) *fixture {
	t.Helper()

	hasher, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)

	if len(gateways) == 0 {
		gateways = []oauth.Gateway{&stubGateway{
			name: "GitHub",
			identities: map[string]oauth.Identity{
				"code-alice": {ExternalID: "1001", Email: "Alice@Example.com", FullName: "Alice"},
				"code-bob":   {ExternalID: "1002", Email: "bob@example.com", FullName: "Bob"},
			},
		}}
	}
	registry, err := oauth.NewRegistry(gateways...)
	require.NoError(t, err)

	f := &fixture{
		store:  memstore.New(),
		events: &eventLog{},
		clock:  &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.svc, err = auth.New(f.store.Stores(), hasher, testIssuer(t),
		auth.WithPublisher(f.events),
		auth.WithProviders(registry),
		auth.WithClock(f.clock.Now),
	)
	require.NoError(t, err)
	return f
}

func (f *fixture) deactivate(t *testing.T, email string) {
	t.Helper()
	ctx := context.Background()
	acc, err := f.store.Accounts().GetByEmail(ctx, email)
	require.NoError(t, err)
	acc.IsActive = false
	require.NoError(t, f.store.Accounts().Update(ctx, acc))
}

func TestNew(t *testing.T) {
	t.Parallel()

	hasher, err := password.New(bcrypt.MinCost)
	require.NoError(t, err)
	stores := memstore.New().Stores()

	t.Run("requires stores", func(t *testing.T) {
		t.Parallel()
		_, err := auth.New(auth.Stores{}, hasher, testIssuer(t))
		require.ErrorIs(t, err, auth.ErrMissingDependency)
		assert.Equal(t, auth.KindConfiguration, auth.KindOf(err))
	})

	t.Run("requires hasher and issuer", func(t *testing.T) {
		t.Parallel()
		_, err := auth.New(stores, nil, testIssuer(t))
		require.ErrorIs(t, err, auth.ErrMissingDependency)
		_, err = auth.New(stores, hasher, nil)
		require.ErrorIs(t, err, auth.ErrMissingDependency)
	})

	t.Run("tx is optional", func(t *testing.T) {
		t.Parallel()
		s := stores
		s.Tx = nil
		svc, err := auth.New(s, hasher, testIssuer(t))
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates an active password account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		require.NoError(t, f.svc.Register(ctx, "new@example.com", "secret-1"))

		acc, err := f.store.Accounts().GetByEmail(ctx, "new@example.com")
		require.NoError(t, err)
		assert.True(t, acc.IsActive)
		assert.True(t, acc.HasPassword())
		assert.NotEqual(t, "secret-1", acc.PasswordHash)
		assert.Equal(t, []string{events.NameAccountRegistered}, f.events.names())

		ev, ok := f.events.last().(events.AccountRegistered)
		require.True(t, ok)
		assert.Equal(t, acc.ID, ev.AccountID)
	})

	t.Run("rejects a taken email regardless of case", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		require.NoError(t, f.svc.Register(ctx, "dup@example.com", "secret-1"))
		err := f.svc.Register(ctx, "  DUP@Example.COM ", "secret-2")
		require.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
		assert.Equal(t, auth.KindConflict, auth.KindOf(err))
		assert.Len(t, f.events.names(), 1)
	})
}

func TestLoginWithPassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns a verifiable token pair", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, "login@example.com", "secret-1"))

		pair, err := f.svc.LoginWithPassword(ctx, "Login@Example.com", "secret-1")
		require.NoError(t, err)
		require.NotNil(t, pair)
		assert.NotEmpty(t, pair.RefreshToken)

		claims, err := testIssuer(t).Verify(pair.AccessToken)
		require.NoError(t, err)
		acc, err := f.store.Accounts().GetByEmail(ctx, "login@example.com")
		require.NoError(t, err)
		assert.Equal(t, acc.ID.String(), claims.AccountID())
		assert.Equal(t, "login@example.com", claims.Email)

		rt, err := f.store.RefreshTokens().GetByToken(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, acc.ID, rt.AccountID)
		assert.Equal(t, f.clock.Now().Add(auth.DefaultRefreshTokenTTL), rt.ExpiresAt)

		assert.Equal(t, []string{events.NameAccountRegistered, events.NameAccountLoggedIn}, f.events.names())
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, "known@example.com", "secret-1"))

		_, errUnknown := f.svc.LoginWithPassword(ctx, "nobody@example.com", "secret-1")
		_, errWrong := f.svc.LoginWithPassword(ctx, "known@example.com", "wrong")

		require.ErrorIs(t, errUnknown, auth.ErrInvalidCredentials)
		require.ErrorIs(t, errWrong, auth.ErrInvalidCredentials)
		assert.Equal(t, errUnknown.Error(), errWrong.Error())
		assert.Equal(t, auth.KindUnauthorized, auth.KindOf(errWrong))
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, "off@example.com", "secret-1"))
		f.deactivate(t, "off@example.com")

		_, err := f.svc.LoginWithPassword(ctx, "off@example.com", "secret-1")
		require.ErrorIs(t, err, auth.ErrAccountInactive)

		_, err = f.svc.LoginWithPassword(ctx, "off@example.com", "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("provider-only account has no password", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.LoginWithProvider(ctx, "github", "code-bob")
		require.NoError(t, err)

		_, err = f.svc.LoginWithPassword(ctx, "bob@example.com", "")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	login := func(t *testing.T, f *fixture) *auth.TokenPair {
		t.Helper()
		require.NoError(t, f.svc.Register(ctx, "refresh@example.com", "secret-1"))
		pair, err := f.svc.LoginWithPassword(ctx, "refresh@example.com", "secret-1")
		require.NoError(t, err)
		return pair
	}

	t.Run("rotates and rejects reuse", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		first := login(t, f)

		second, err := f.svc.RefreshToken(ctx, first.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
		_, err = testIssuer(t).Verify(second.AccessToken)
		require.NoError(t, err)

		_, err = f.svc.RefreshToken(ctx, first.RefreshToken)
		require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
		assert.Equal(t, auth.KindInvalidToken, auth.KindOf(err))

		_, err = f.svc.RefreshToken(ctx, second.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.RefreshToken(ctx, "does-not-exist")
		require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
	})

	t.Run("expired token is removed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		pair := login(t, f)

		f.clock.Advance(auth.DefaultRefreshTokenTTL + time.Second)
		_, err := f.svc.RefreshToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)

		_, err = f.store.RefreshTokens().GetByToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, auth.ErrRefreshTokenNotFound)
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		pair := login(t, f)
		f.deactivate(t, "refresh@example.com")

		_, err := f.svc.RefreshToken(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, auth.ErrAccountInactive)
	})

	t.Run("concurrent rotation succeeds once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		pair := login(t, f)

		const workers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			success int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.svc.RefreshToken(ctx, pair.RefreshToken); err == nil {
					mu.Lock()
					success++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, success)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	requestReset := func(t *testing.T, f *fixture) string {
		t.Helper()
		require.NoError(t, f.svc.Register(ctx, "reset@example.com", "old-secret"))
		require.NoError(t, f.svc.ForgotPassword(ctx, "RESET@example.com"))

		ev, ok := f.events.last().(events.PasswordResetRequested)
		require.True(t, ok)
		assert.Equal(t, "reset@example.com", ev.Email)
		require.NotEmpty(t, ev.Token)
		return ev.Token
	}

	t.Run("unknown email is a silent no-op", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.svc.ForgotPassword(ctx, "ghost@example.com"))
		assert.Empty(t, f.events.names())
	})

	t.Run("reset changes the password once", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		token := requestReset(t, f)

		rt, err := f.store.ResetTokens().GetByToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, f.clock.Now().Add(auth.DefaultResetTokenTTL), rt.ExpiresAt)

		require.NoError(t, f.svc.ResetPassword(ctx, token, "new-secret"))

		_, err = f.svc.LoginWithPassword(ctx, "reset@example.com", "new-secret")
		require.NoError(t, err)
		_, err = f.svc.LoginWithPassword(ctx, "reset@example.com", "old-secret")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)

		err = f.svc.ResetPassword(ctx, token, "third-secret")
		require.ErrorIs(t, err, auth.ErrResetTokenNotFound)
		assert.Equal(t, auth.KindNotFound, auth.KindOf(err))
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		token := requestReset(t, f)

		f.clock.Advance(auth.DefaultResetTokenTTL)
		err := f.svc.ResetPassword(ctx, token, "new-secret")
		require.ErrorIs(t, err, auth.ErrResetTokenExpired)
		assert.Equal(t, auth.KindExpired, auth.KindOf(err))

		_, err = f.svc.LoginWithPassword(ctx, "reset@example.com", "old-secret")
		require.NoError(t, err)

		err = f.svc.ResetPassword(ctx, token, "new-secret")
		require.ErrorIs(t, err, auth.ErrResetTokenNotFound)
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.svc.ResetPassword(ctx, "nope", "new-secret")
		require.ErrorIs(t, err, auth.ErrResetTokenNotFound)
	})
}

func TestLoginWithProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates an account on first login", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		access, err := f.svc.LoginWithProvider(ctx, "GitHub", "code-alice")
		require.NoError(t, err)

		acc, err := f.store.Accounts().GetByProvider(ctx, "github", "1001")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", acc.Email)
		assert.Equal(t, "Alice", acc.FullName)
		assert.False(t, acc.HasPassword())
		assert.True(t, acc.IsActive)

		claims, err := testIssuer(t).Verify(access)
		require.NoError(t, err)
		assert.Equal(t, acc.ID.String(), claims.AccountID())
		assert.Equal(t, []string{events.NameAccountRegistered, events.NameAccountLoggedIn}, f.events.names())
	})

	t.Run("reuses the account on later logins", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.LoginWithProvider(ctx, "github", "code-alice")
		require.NoError(t, err)
		_, err = f.svc.LoginWithProvider(ctx, "github", "code-alice")
		require.NoError(t, err)

		assert.Equal(t, []string{
			events.NameAccountRegistered,
			events.NameAccountLoggedIn,
			events.NameAccountLoggedIn,
		}, f.events.names())
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.LoginWithProvider(ctx, "gitlab", "code-alice")
		require.ErrorIs(t, err, auth.ErrUnsupportedProvider)
		assert.Equal(t, auth.KindUnsupportedProvider, auth.KindOf(err))
	})

	t.Run("no registry configured", func(t *testing.T) {
		t.Parallel()
		hasher, err := password.New(bcrypt.MinCost)
		require.NoError(t, err)
		svc, err := auth.New(memstore.New().Stores(), hasher, testIssuer(t))
		require.NoError(t, err)

		_, err = svc.LoginWithProvider(ctx, "github", "code-alice")
		require.ErrorIs(t, err, auth.ErrUnsupportedProvider)
	})

	t.Run("rejected credential", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.LoginWithProvider(ctx, "github", "forged")
		require.ErrorIs(t, err, auth.ErrProviderCredential)
		require.ErrorIs(t, err, oauth.ErrInvalidCredential)
		assert.Equal(t, auth.KindUnauthorized, auth.KindOf(err))
	})

	t.Run("misconfigured provider", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, &stubGateway{name: "google", err: oauth.ErrMisconfigured})
		_, err := f.svc.LoginWithProvider(ctx, "google", "id-token")
		require.ErrorIs(t, err, auth.ErrConfiguration)
		assert.Equal(t, auth.KindConfiguration, auth.KindOf(err))
	})

	t.Run("provider outage is internal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, &stubGateway{name: "google", err: oauth.ErrProviderUnavailable})
		_, err := f.svc.LoginWithProvider(ctx, "google", "id-token")
		require.ErrorIs(t, err, oauth.ErrProviderUnavailable)
		assert.Equal(t, auth.KindInternal, auth.KindOf(err))
	})

	t.Run("email owned by a password account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		require.NoError(t, f.svc.Register(ctx, "alice@example.com", "secret-1"))

		_, err := f.svc.LoginWithProvider(ctx, "github", "code-alice")
		require.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
	})

	t.Run("inactive provider account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.LoginWithProvider(ctx, "github", "code-alice")
		require.NoError(t, err)
		f.deactivate(t, "alice@example.com")

		_, err = f.svc.LoginWithProvider(ctx, "github", "code-alice")
		require.ErrorIs(t, err, auth.ErrAccountInactive)
	})
}

func TestLinkProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	register := func(t *testing.T, f *fixture, email string) uuid.UUID {
		t.Helper()
		require.NoError(t, f.svc.Register(ctx, email, "secret-1"))
		acc, err := f.store.Accounts().GetByEmail(ctx, email)
		require.NoError(t, err)
		return acc.ID
	}

	t.Run("attaches the identity", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := register(t, f, "carol@example.com")

		require.NoError(t, f.svc.LinkProvider(ctx, id, "github", "code-bob"))

		acc, err := f.store.Accounts().GetByProvider(ctx, "github", "1002")
		require.NoError(t, err)
		assert.Equal(t, id, acc.ID)
		assert.Equal(t, "carol@example.com", acc.Email)
		assert.True(t, acc.HasPassword())

		ev, ok := f.events.last().(events.ProviderLinked)
		require.True(t, ok)
		assert.Equal(t, "github", ev.Provider)
		assert.Equal(t, "1002", ev.Account.ProviderAccountID)
		assert.Equal(t, id, ev.Account.ID)

		_, err = f.svc.LoginWithProvider(ctx, "github", "code-bob")
		require.NoError(t, err)
	})

	t.Run("linking twice to the same account is fine", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := register(t, f, "carol@example.com")

		require.NoError(t, f.svc.LinkProvider(ctx, id, "github", "code-bob"))
		require.NoError(t, f.svc.LinkProvider(ctx, id, "github", "code-bob"))
	})

	t.Run("identity owned by another account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, err := f.svc.LoginWithProvider(ctx, "github", "code-bob")
		require.NoError(t, err)
		id := register(t, f, "dave@example.com")

		err = f.svc.LinkProvider(ctx, id, "github", "code-bob")
		require.ErrorIs(t, err, auth.ErrProviderLinked)
		assert.Equal(t, auth.KindConflict, auth.KindOf(err))
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.svc.LinkProvider(ctx, uuid.New(), "github", "code-bob")
		require.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("unknown provider", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		id := register(t, f, "erin@example.com")
		err := f.svc.LinkProvider(ctx, id, "bitbucket", "code-bob")
		require.ErrorIs(t, err, auth.ErrUnsupportedProvider)
	})
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want auth.Kind
	}{
		{nil, ""},
		{auth.ErrEmailAlreadyExists, auth.KindConflict},
		{auth.ErrInvalidCredentials, auth.KindUnauthorized},
		{auth.ErrAccountNotFound, auth.KindNotFound},
		{auth.ErrInvalidRefreshToken, auth.KindInvalidToken},
		{auth.ErrResetTokenExpired, auth.KindExpired},
		{auth.ErrUnsupportedProvider, auth.KindUnsupportedProvider},
		{auth.ErrMissingDependency, auth.KindConfiguration},
		{errors.New("disk on fire"), auth.KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, auth.KindOf(tt.err), "%v", tt.err)
	}
}

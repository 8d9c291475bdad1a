package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/oauth"
	"github.com/dmitrymomot/authcore/pkg/token"
)

const (
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultResetTokenTTL   = time.Hour
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// AccessTokenIssuer mints signed access tokens.
type AccessTokenIssuer interface {
	Issue(subject, email string) (string, error)
}

// ProviderResolver finds the gateway for a provider name.
type ProviderResolver interface {
	Resolve(name string) (oauth.Gateway, error)
}

// TokenSource returns a fresh opaque token.
type TokenSource func() (string, error)

// Recorder observes command outcomes.
type Recorder interface {
	RecordCommand(command, outcome string, d time.Duration)
}

// Command names used in logs and metrics.
const (
	CommandRegister          = "register"
	CommandLoginPassword     = "login_password"
	CommandRefreshToken      = "refresh_token"
	CommandForgotPassword    = "forgot_password"
	CommandResetPassword     = "reset_password"
	CommandLoginWithProvider = "login_provider"
	CommandLinkProvider      = "link_provider"
)

// Service handles the auth commands.
type Service struct {
	accounts      AccountStore
	refreshTokens RefreshTokenStore
	resetTokens   ResetTokenStore
	tx            Transactor

	hasher    PasswordHasher
	issuer    AccessTokenIssuer
	providers ProviderResolver
	publisher events.Publisher
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time

	refreshTTL   time.Duration
	resetTTL     time.Duration
	refreshToken TokenSource
	resetToken   TokenSource

	dummyOnce sync.Once
	dummyHash string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher sets the event sink.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithProviders sets the identity provider registry.
func WithProviders(r ProviderResolver) Option {
	return func(s *Service) { s.providers = r }
}

// WithRecorder reports command outcomes, typically to Prometheus.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRefreshTokenTTL sets the refresh token lifetime.
func WithRefreshTokenTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshTTL = d
		}
	}
}

// WithResetTokenTTL sets the password reset token lifetime.
func WithResetTokenTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resetTTL = d
		}
	}
}

// WithRefreshTokenSource replaces the refresh token generator.
func WithRefreshTokenSource(src TokenSource) Option {
	return func(s *Service) {
		if src != nil {
			s.refreshToken = src
		}
	}
}

// WithResetTokenSource replaces the reset token generator.
func WithResetTokenSource(src TokenSource) Option {
	return func(s *Service) {
		if src != nil {
			s.resetToken = src
		}
	}
}

// New returns a Service. Stores, hasher and issuer are required.
func New(stores Stores, hasher PasswordHasher, issuer AccessTokenIssuer, opts ...Option) (*Service, error) {
	switch {
	case stores.Accounts == nil:
		return nil, fmt.Errorf("%w: account store", ErrMissingDependency)
	case stores.RefreshTokens == nil:
		return nil, fmt.Errorf("%w: refresh token store", ErrMissingDependency)
	case stores.ResetTokens == nil:
		return nil, fmt.Errorf("%w: reset token store", ErrMissingDependency)
	case hasher == nil:
		return nil, fmt.Errorf("%w: password hasher", ErrMissingDependency)
	case issuer == nil:
		return nil, fmt.Errorf("%w: token issuer", ErrMissingDependency)
	}

	tx := stores.Tx
	if tx == nil {
		tx = NoTx
	}

	s := &Service{
		accounts:      stores.Accounts,
		refreshTokens: stores.RefreshTokens,
		resetTokens:   stores.ResetTokens,
		tx:            tx,
		hasher:        hasher,
		issuer:        issuer,
		publisher:     events.Nop,
		logger:        logger.Discard(),
		now:           time.Now,
		refreshTTL:    DefaultRefreshTokenTTL,
		resetTTL:      DefaultResetTokenTTL,
		refreshToken:  token.NewRefreshToken,
		resetToken:    token.NewResetToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("auth"))
	return s, nil
}

// publish delivers e after the state it describes is persisted. Failures are
// logged and never returned.
func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish domain event",
			logger.EventType(e.Name()),
			logger.EventID(e.Meta().ID),
			logger.Error(err),
		)
	}
}

func (s *Service) observe(command string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	s.recorder.RecordCommand(command, outcome, time.Since(start))
}

// equalizeTiming runs one hash comparison for lookups that found no account,
// so unknown emails cost as much as wrong passwords.
func (s *Service) equalizeTiming(plain string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("authcore-timing-equalizer")
	})
	if s.dummyHash != "" {
		_ = s.hasher.Verify(plain, s.dummyHash)
	}
}

// issueRefreshToken builds a new refresh token for accountID. It does not persist it.
func (s *Service) issueRefreshToken(accountID uuid.UUID) (*RefreshToken, error) {
	value, err := s.refreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	now := s.now()
	return &RefreshToken{
		Token:     value,
		AccountID: accountID,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}, nil
}

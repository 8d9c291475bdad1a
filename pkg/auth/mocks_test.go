package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/oauth"
)

// MockAccountStore is a mock implementation of AccountStore.
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountStore) GetByProvider(ctx context.Context, provider, externalID string) (*Account, error) {
	args := m.Called(ctx, provider, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func (m *MockAccountStore) Add(ctx context.Context, account *Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountStore) Update(ctx context.Context, account *Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockRefreshTokenStore is a mock implementation of RefreshTokenStore.
type MockRefreshTokenStore struct {
	mock.Mock
}

func (m *MockRefreshTokenStore) GetByToken(ctx context.Context, token string) (*RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenStore) Add(ctx context.Context, token *RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenStore) Update(ctx context.Context, token *RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenStore) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockResetTokenStore is a mock implementation of ResetTokenStore.
type MockResetTokenStore struct {
	mock.Mock
}

func (m *MockResetTokenStore) GetByToken(ctx context.Context, token string) (*PasswordResetToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PasswordResetToken), args.Error(1)
}

func (m *MockResetTokenStore) Add(ctx context.Context, token *PasswordResetToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockResetTokenStore) Delete(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockHasher is a mock implementation of PasswordHasher.
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(plain, hash string) bool {
	args := m.Called(plain, hash)
	return args.Bool(0)
}

// MockIssuer is a mock implementation of AccessTokenIssuer.
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Issue(subject, email string) (string, error) {
	args := m.Called(subject, email)
	return args.String(0), args.Error(1)
}

// MockPublisher is a mock implementation of events.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

// MockRecorder is a mock implementation of Recorder.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordCommand(command, outcome string, d time.Duration) {
	m.Called(command, outcome, d)
}

// MockGateway is a mock implementation of oauth.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string {
	return m.Called().String(0)
}

func (m *MockGateway) Exchange(ctx context.Context, credential string) (oauth.Identity, error) {
	args := m.Called(ctx, credential)
	return args.Get(0).(oauth.Identity), args.Error(1)
}

// MockResolver is a mock implementation of ProviderResolver.
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(name string) (oauth.Gateway, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(oauth.Gateway), args.Error(1)
}

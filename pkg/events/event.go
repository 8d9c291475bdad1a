package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	NameAccountRegistered      = "AccountRegistered"
	NameAccountLoggedIn        = "AccountLoggedIn"
	NameProviderLinked         = "ProviderLinked"
	NamePasswordResetRequested = "PasswordResetRequested"
)

// Event is a domain event.
type Event interface {
	Name() string
	Meta() Metadata
}

// Metadata is common to all events.
type Metadata struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Meta returns m. Embedding Metadata satisfies half of Event.
func (m Metadata) Meta() Metadata { return m }

func newMetadata() Metadata {
	return Metadata{ID: uuid.New(), OccurredAt: time.Now().UTC()}
}

// AccountSnapshot is the public view of an account carried by events.
type AccountSnapshot struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name,omitempty"`
	IsActive          bool      `json:"is_active"`
	Provider          string    `json:"provider,omitempty"`
	ProviderAccountID string    `json:"provider_account_id,omitempty"`
}

// AccountRegistered is emitted once an account is persisted.
type AccountRegistered struct {
	Metadata
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
}

func (AccountRegistered) Name() string { return NameAccountRegistered }

func NewAccountRegistered(accountID uuid.UUID, email string) AccountRegistered {
	return AccountRegistered{Metadata: newMetadata(), AccountID: accountID, Email: email}
}

// AccountLoggedIn is emitted after a successful login.
type AccountLoggedIn struct {
	Metadata
	AccountID uuid.UUID `json:"account_id"`
	Email     string    `json:"email"`
}

func (AccountLoggedIn) Name() string { return NameAccountLoggedIn }

func NewAccountLoggedIn(accountID uuid.UUID, email string) AccountLoggedIn {
	return AccountLoggedIn{Metadata: newMetadata(), AccountID: accountID, Email: email}
}

// ProviderLinked is emitted after an external identity is attached to an account.
type ProviderLinked struct {
	Metadata
	Account  AccountSnapshot `json:"account"`
	Provider string          `json:"provider"`
}

func (ProviderLinked) Name() string { return NameProviderLinked }

func NewProviderLinked(account AccountSnapshot, provider string) ProviderLinked {
	return ProviderLinked{Metadata: newMetadata(), Account: account, Provider: provider}
}

// PasswordResetRequested carries the reset secret to the delivery channel.
// It is the only place the token leaves the service.
type PasswordResetRequested struct {
	Metadata
	Email string `json:"email"`
	Token string `json:"token"`
}

func (PasswordResetRequested) Name() string { return NamePasswordResetRequested }

func NewPasswordResetRequested(email, token string) PasswordResetRequested {
	return PasswordResetRequested{Metadata: newMetadata(), Email: email, Token: token}
}

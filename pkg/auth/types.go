package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/events"
)

// Account is a registered identity.
// PasswordHash is empty for accounts created through an external provider.
// Provider and ProviderAccountID are either both set or both empty.
type Account struct {
	ID                uuid.UUID
	Email             string
	PasswordHash      string
	FullName          string
	IsActive          bool
	Provider          string
	ProviderAccountID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasPassword reports whether the account can log in with a password.
func (a *Account) HasPassword() bool { return a.PasswordHash != "" }

// Snapshot returns the event view of a, without the password hash.
func (a *Account) Snapshot() events.AccountSnapshot {
	return events.AccountSnapshot{
		ID:                a.ID,
		Email:             a.Email,
		FullName:          a.FullName,
		IsActive:          a.IsActive,
		Provider:          a.Provider,
		ProviderAccountID: a.ProviderAccountID,
	}
}

// RefreshToken is a long-lived opaque secret exchangeable for a new token pair.
type RefreshToken struct {
	Token     string
	AccountID uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether t is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// PasswordResetToken is a single-use secret authorizing one password change.
type PasswordResetToken struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether t is past its expiry at now.
func (t *PasswordResetToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// TokenPair is returned by password login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NormalizeEmail trims and lower-cases email. Every lookup and write goes
// through it, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

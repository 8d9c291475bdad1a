// Package memstore keeps accounts and tokens in process memory.
// It is meant for tests and single-instance development setups.
package memstore

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authcore/pkg/auth"
)

type providerKey struct {
	provider   string
	externalID string
}

type txKey struct{}

// Store implements every auth store contract plus auth.Transactor.
// WithinTx serializes with all other operations on the same Store and rolls
// back every write made by fn when it returns an error.
type Store struct {
	mu            sync.RWMutex
	accounts      map[uuid.UUID]auth.Account
	byEmail       map[string]uuid.UUID
	byProvider    map[providerKey]uuid.UUID
	refreshTokens map[string]auth.RefreshToken
	resetTokens   map[string]auth.PasswordResetToken
}

var (
	_ auth.AccountStore      = (*Accounts)(nil)
	_ auth.RefreshTokenStore = (*RefreshTokens)(nil)
	_ auth.ResetTokenStore   = (*ResetTokens)(nil)
	_ auth.Transactor        = (*Store)(nil)
)

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:      make(map[uuid.UUID]auth.Account),
		byEmail:       make(map[string]uuid.UUID),
		byProvider:    make(map[providerKey]uuid.UUID),
		refreshTokens: make(map[string]auth.RefreshToken),
		resetTokens:   make(map[string]auth.PasswordResetToken),
	}
}

// Stores returns s wired into auth.Stores.
func (s *Store) Stores() auth.Stores {
	return auth.Stores{
		Accounts:      s.Accounts(),
		RefreshTokens: s.RefreshTokens(),
		ResetTokens:   s.ResetTokens(),
		Tx:            s,
	}
}

// Accounts returns the account store view of s.
func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// RefreshTokens returns the refresh token store view of s.
func (s *Store) RefreshTokens() *RefreshTokens { return &RefreshTokens{s: s} }

// ResetTokens returns the reset token store view of s.
func (s *Store) ResetTokens() *ResetTokens { return &ResetTokens{s: s} }

// WithinTx runs fn holding the store lock. Calls made with the ctx passed to
// fn reuse the held lock.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) read(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) write(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	accounts      map[uuid.UUID]auth.Account
	byEmail       map[string]uuid.UUID
	byProvider    map[providerKey]uuid.UUID
	refreshTokens map[string]auth.RefreshToken
	resetTokens   map[string]auth.PasswordResetToken
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		accounts:      maps.Clone(s.accounts),
		byEmail:       maps.Clone(s.byEmail),
		byProvider:    maps.Clone(s.byProvider),
		refreshTokens: maps.Clone(s.refreshTokens),
		resetTokens:   maps.Clone(s.resetTokens),
	}
}

func (s *Store) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.byEmail = snap.byEmail
	s.byProvider = snap.byProvider
	s.refreshTokens = snap.refreshTokens
	s.resetTokens = snap.resetTokens
}

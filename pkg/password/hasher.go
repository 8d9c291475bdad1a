// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

var (
	ErrMismatch    = errors.New("password does not match")
	ErrInvalidCost = errors.New("bcrypt cost out of range")
)

// Config binds the work factor to the environment.
type Config struct {
	Cost int `env:"BCRYPT_COST" envDefault:"12"`
}

// Hasher produces salted bcrypt hashes.
// The zero value is not usable; construct with New.
type Hasher struct {
	cost int
}

// New returns a Hasher with the given cost. Zero selects DefaultCost.
func New(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCost, cost)
	}
	return &Hasher{cost: cost}, nil
}

// NewFromConfig is New(cfg.Cost).
func NewFromConfig(cfg Config) (*Hasher, error) {
	return New(cfg.Cost)
}

// Hash returns the bcrypt encoding of plain. Hashing the same input twice
// yields different outputs because every call draws a fresh salt.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. Any malformed hash is treated
// as a mismatch.
func (h *Hasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Compare is Verify returning ErrMismatch instead of false.
func (h *Hasher) Compare(plain, hash string) error {
	if !h.Verify(plain, hash) {
		return ErrMismatch
	}
	return nil
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

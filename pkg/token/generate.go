package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	RefreshTokenBytes = 64
	ResetTokenBytes   = 32
)

var (
	ErrInvalidSize = errors.New("token size must be positive")
	ErrEntropy     = errors.New("failed to read random bytes")
)

// Generator produces random tokens of a fixed size from an entropy source.
type Generator struct {
	size   int
	source io.Reader
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSource replaces crypto/rand as the entropy source.
func WithSource(r io.Reader) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.source = r
		}
	}
}

// NewGenerator returns a Generator emitting size random bytes per token.
func NewGenerator(size int, opts ...GeneratorOption) (*Generator, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	g := &Generator{size: size, source: rand.Reader}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate returns a new base64 token.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", errors.Join(ErrEntropy, err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Size returns the number of random bytes per token.
func (g *Generator) Size() int {
	return g.size
}

// Random returns size random bytes from crypto/rand as standard base64.
func Random(size int) (string, error) {
	g, err := NewGenerator(size)
	if err != nil {
		return "", fmt.Errorf("token: %w", err)
	}
	return g.Generate()
}

// NewRefreshToken returns a refresh token with 64 bytes of entropy.
func NewRefreshToken() (string, error) {
	return Random(RefreshTokenBytes)
}

// NewResetToken returns a password reset token with 32 bytes of entropy.
func NewResetToken() (string, error) {
	return Random(ResetTokenBytes)
}

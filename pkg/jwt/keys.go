package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
)

const (
	DefaultKeyID   = "auth-key"
	DefaultKeyBits = 2048
)

// KeyProvider holds the process signing key and its published key set.
// All fields are set once in NewKeyProvider; methods are safe for concurrent use.
type KeyProvider struct {
	kid      string
	private  *rsa.PrivateKey
	jwks     JWKS
	jwksJSON []byte
}

// KeyOption configures NewKeyProvider.
type KeyOption func(*keyOptions)

type keyOptions struct {
	kid  string
	bits int
	key  *rsa.PrivateKey
}

// WithKeyID sets the key id published in the JWKS and token headers.
func WithKeyID(kid string) KeyOption {
	return func(o *keyOptions) {
		if kid != "" {
			o.kid = kid
		}
	}
}

// WithKeyBits sets the size of the generated key.
func WithKeyBits(bits int) KeyOption {
	return func(o *keyOptions) {
		if bits > 0 {
			o.bits = bits
		}
	}
}

// WithPrivateKey uses key instead of generating one.
func WithPrivateKey(key *rsa.PrivateKey) KeyOption {
	return func(o *keyOptions) { o.key = key }
}

// NewKeyProvider generates (or adopts) the signing key and precomputes the JWKS.
func NewKeyProvider(opts ...KeyOption) (*KeyProvider, error) {
	o := keyOptions{kid: DefaultKeyID, bits: DefaultKeyBits}
	for _, opt := range opts {
		opt(&o)
	}

	key := o.key
	if key == nil {
		if o.bits < 2048 {
			return nil, ErrInvalidKeySize
		}
		var err error
		key, err = rsa.GenerateKey(rand.Reader, o.bits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
	} else if key.N.BitLen() < 2048 {
		return nil, ErrInvalidKeySize
	}

	set := JWKS{Keys: []JWK{NewJWK(o.kid, &key.PublicKey)}}
	raw, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jwks: %w", err)
	}

	return &KeyProvider{kid: o.kid, private: key, jwks: set, jwksJSON: raw}, nil
}

// KeyID returns the published key id.
func (p *KeyProvider) KeyID() string { return p.kid }

// PrivateKey returns the signing key.
func (p *KeyProvider) PrivateKey() *rsa.PrivateKey { return p.private }

// PublicKey returns the verification key.
func (p *KeyProvider) PublicKey() *rsa.PublicKey { return &p.private.PublicKey }

// JWKS returns a copy of the key set.
func (p *KeyProvider) JWKS() JWKS {
	return JWKS{Keys: append([]JWK(nil), p.jwks.Keys...)}
}

// JWKSJSON returns the encoded key set. Callers must not modify the slice.
func (p *KeyProvider) JWKSJSON() []byte { return p.jwksJSON }

package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTTL is the access token lifetime when Config.AccessTTL is zero.
const DefaultAccessTTL = 60 * time.Minute

// Config holds the token issuance settings.
type Config struct {
	Issuer    string        `env:"JWT_ISSUER" envDefault:"authcore"`
	Audience  string        `env:"JWT_AUDIENCE" envDefault:"authcore"`
	AccessTTL time.Duration `env:"JWT_ACCESS_TTL" envDefault:"60m"`
	KeyID     string        `env:"JWT_KEY_ID" envDefault:"auth-key"`
	KeyBits   int           `env:"JWT_KEY_BITS" envDefault:"2048"`
}

// Claims are the access token claims.
type Claims struct {
	Email string `json:"email"`
	gojwt.RegisteredClaims
}

// AccountID returns the subject claim.
func (c *Claims) AccountID() string { return c.Subject }

// Issuer mints and verifies RS256 access tokens.
type Issuer struct {
	keys *KeyProvider
	cfg  Config
	now  func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer returns an Issuer signing with keys.
func NewIssuer(keys *KeyProvider, cfg Config, opts ...IssuerOption) (*Issuer, error) {
	if keys == nil {
		return nil, ErrInvalidSigningKey
	}
	if cfg.Issuer == "" {
		return nil, ErrMissingIssuer
	}
	if cfg.Audience == "" {
		return nil, ErrMissingAudience
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	i := &Issuer{keys: keys, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns a signed access token for subject. It never touches storage.
func (i *Issuer) Issue(subject, email string) (string, error) {
	now := i.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    i.cfg.Issuer,
			Audience:  gojwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(i.cfg.AccessTTL)),
		},
	}

	tok := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	tok.Header["kid"] = i.keys.KeyID()

	signed, err := tok.SignedString(i.keys.PrivateKey())
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and checks signature, issuer, audience and expiry.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := gojwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithIssuer(i.cfg.Issuer),
		gojwt.WithAudience(i.cfg.Audience),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, gojwt.ErrTokenExpired):
		return nil, errors.Join(ErrExpiredToken, err)
	default:
		return nil, errors.Join(ErrInvalidToken, err)
	}
}

func (i *Issuer) keyFunc(t *gojwt.Token) (any, error) {
	if kid, ok := t.Header["kid"].(string); ok && kid != i.keys.KeyID() {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return i.keys.PublicKey(), nil
}

// Issuer returns the configured iss claim.
func (i *Issuer) Issuer() string { return i.cfg.Issuer }

// AccessTTL returns the access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.cfg.AccessTTL }

// Keys returns the key provider.
func (i *Issuer) Keys() *KeyProvider { return i.keys }

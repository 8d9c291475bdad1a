package oauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// OIDCConfig describes an OpenID Connect provider whose ID tokens are verified locally.
type OIDCConfig struct {
	Name string
	// ClientID is the expected audience. Exchange fails with
	// ErrMisconfigured while it is empty.
	ClientID string
	// Issuers lists accepted iss values. Empty accepts any issuer.
	Issuers     []string
	JWKSURL     string
	KeyCacheTTL time.Duration
	Leeway      time.Duration
}

// OIDCGateway verifies ID tokens against the provider's published keys.
type OIDCGateway struct {
	cfg  OIDCConfig
	keys *remoteKeySet
	now  func() time.Time
}

type idTokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	gojwt.RegisteredClaims
}

// NewOIDCGateway returns a gateway for cfg.
func NewOIDCGateway(cfg OIDCConfig, opts ...Option) *OIDCGateway {
	o := applyOptions(opts)
	return &OIDCGateway{
		cfg:  cfg,
		keys: newRemoteKeySet(cfg.JWKSURL, cfg.KeyCacheTTL, &o),
		now:  o.now,
	}
}

// Name returns the provider name.
func (g *OIDCGateway) Name() string { return g.cfg.Name }

// Exchange verifies the ID token in credential.
func (g *OIDCGateway) Exchange(ctx context.Context, credential string) (Identity, error) {
	if g.cfg.ClientID == "" {
		return Identity{}, fmt.Errorf("%w: %s: missing client id", ErrMisconfigured, g.cfg.Name)
	}
	if g.cfg.JWKSURL == "" {
		return Identity{}, fmt.Errorf("%w: %s: missing jwks url", ErrMisconfigured, g.cfg.Name)
	}
	if strings.TrimSpace(credential) == "" {
		return Identity{}, fmt.Errorf("%w: empty credential", ErrInvalidCredential)
	}

	var claims idTokenClaims
	_, err := gojwt.ParseWithClaims(credential, &claims,
		func(t *gojwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			return g.keys.key(ctx, kid)
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithAudience(g.cfg.ClientID),
		gojwt.WithExpirationRequired(),
		gojwt.WithLeeway(g.cfg.Leeway),
		gojwt.WithTimeFunc(g.now),
	)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return Identity{}, ctx.Err()
		case errors.Is(err, ErrProviderUnavailable):
			return Identity{}, fmt.Errorf("%s: %w", g.cfg.Name, err)
		default:
			return Identity{}, errors.Join(ErrInvalidCredential, err)
		}
	}

	if len(g.cfg.Issuers) > 0 && !slices.Contains(g.cfg.Issuers, claims.Issuer) {
		return Identity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredential, claims.Issuer)
	}
	if claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: %s: missing subject", ErrInvalidProfile, g.cfg.Name)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: %s", ErrNoEmail, g.cfg.Name)
	}

	return Identity{ExternalID: claims.Subject, Email: claims.Email, FullName: claims.Name}, nil
}

var _ Gateway = (*OIDCGateway)(nil)

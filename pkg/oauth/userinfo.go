package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// UserInfoConfig describes an OAuth2 provider reached through its userinfo endpoint.
type UserInfoConfig struct {
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
	UserInfoURL  string
	// EmailsURL lists the account's addresses when the profile carries none.
	EmailsURL string
	// ExchangeCode makes Exchange treat the credential as an authorization
	// code. Otherwise it is used directly as an access token.
	ExchangeCode bool

	IDField    string   // default "id"
	EmailField string   // default "email"
	NameFields []string // first non-empty wins; default ["name"]
}

// UserInfoGateway resolves identities from an OAuth2 userinfo endpoint.
type UserInfoGateway struct {
	cfg    UserInfoConfig
	oauth  *oauth2.Config
	client *http.Client
}

// NewUserInfoGateway returns a gateway for cfg. Configuration is validated
// on each Exchange so a partially configured provider still registers.
func NewUserInfoGateway(cfg UserInfoConfig, opts ...Option) *UserInfoGateway {
	o := applyOptions(opts)
	if cfg.IDField == "" {
		cfg.IDField = "id"
	}
	if cfg.EmailField == "" {
		cfg.EmailField = "email"
	}
	if len(cfg.NameFields) == 0 {
		cfg.NameFields = []string{"name"}
	}
	return &UserInfoGateway{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     oauth2.Endpoint{AuthURL: cfg.AuthURL, TokenURL: cfg.TokenURL},
		},
		client: o.client,
	}
}

// Name returns the provider name.
func (g *UserInfoGateway) Name() string { return g.cfg.Name }

// AuthCodeURL builds the provider consent URL for state.
func (g *UserInfoGateway) AuthCodeURL(state string) (string, error) {
	if g.cfg.AuthURL == "" || g.cfg.ClientID == "" {
		return "", fmt.Errorf("%w: %s: missing client id or auth url", ErrMisconfigured, g.cfg.Name)
	}
	return g.oauth.AuthCodeURL(state), nil
}

// Exchange resolves credential into an Identity.
func (g *UserInfoGateway) Exchange(ctx context.Context, credential string) (Identity, error) {
	if err := g.validate(); err != nil {
		return Identity{}, err
	}
	if strings.TrimSpace(credential) == "" {
		return Identity{}, fmt.Errorf("%w: empty credential", ErrInvalidCredential)
	}

	accessToken := credential
	if g.cfg.ExchangeCode {
		tok, err := g.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, g.client), credential)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Identity{}, ctxErr
			}
			return Identity{}, errors.Join(ErrInvalidCredential, err)
		}
		accessToken = tok.AccessToken
	}

	var profile map[string]any
	if err := fetchJSON(ctx, g.client, g.cfg.UserInfoURL, accessToken, &profile); err != nil {
		return Identity{}, fmt.Errorf("%s userinfo: %w", g.cfg.Name, err)
	}

	id := stringField(profile, g.cfg.IDField)
	if id == "" {
		return Identity{}, fmt.Errorf("%w: %s: missing %q", ErrInvalidProfile, g.cfg.Name, g.cfg.IDField)
	}

	email := stringField(profile, g.cfg.EmailField)
	if email == "" && g.cfg.EmailsURL != "" {
		var err error
		if email, err = g.primaryEmail(ctx, accessToken); err != nil {
			return Identity{}, err
		}
	}
	if email == "" {
		return Identity{}, fmt.Errorf("%w: %s", ErrNoEmail, g.cfg.Name)
	}

	var name string
	for _, field := range g.cfg.NameFields {
		if name = stringField(profile, field); name != "" {
			break
		}
	}

	return Identity{ExternalID: id, Email: email, FullName: name}, nil
}

type providerEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// primaryEmail prefers the primary verified address, then any verified one.
func (g *UserInfoGateway) primaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []providerEmail
	if err := fetchJSON(ctx, g.client, g.cfg.EmailsURL, accessToken, &emails); err != nil {
		return "", fmt.Errorf("%s emails: %w", g.cfg.Name, err)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	return "", nil
}

func (g *UserInfoGateway) validate() error {
	switch {
	case g.cfg.UserInfoURL == "":
		return fmt.Errorf("%w: %s: missing userinfo url", ErrMisconfigured, g.cfg.Name)
	case g.cfg.ExchangeCode && (g.cfg.ClientID == "" || g.cfg.ClientSecret == ""):
		return fmt.Errorf("%w: %s: code exchange needs client id and secret", ErrMisconfigured, g.cfg.Name)
	case g.cfg.ExchangeCode && g.cfg.TokenURL == "":
		return fmt.Errorf("%w: %s: missing token url", ErrMisconfigured, g.cfg.Name)
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

var _ Gateway = (*UserInfoGateway)(nil)

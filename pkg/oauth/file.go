package oauth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	KindOAuth2 = "oauth2"
	KindOIDC   = "oidc"
)

// Config is the environment view of the provider set.
type Config struct {
	GitHub        GitHubConfig
	Google        GoogleConfig
	ProvidersFile string `env:"OAUTH_PROVIDERS_FILE"`
}

// ProviderSpec is one provider entry in a providers file.
// String values are expanded against the environment, so secrets can be
// written as ${VAR}.
type ProviderSpec struct {
	Name         string        `yaml:"name"`
	Kind         string        `yaml:"kind"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RedirectURL  string        `yaml:"redirect_url"`
	AuthURL      string        `yaml:"auth_url"`
	TokenURL     string        `yaml:"token_url"`
	Scopes       []string      `yaml:"scopes"`
	UserInfoURL  string        `yaml:"userinfo_url"`
	EmailsURL    string        `yaml:"emails_url"`
	ExchangeCode bool          `yaml:"exchange_code"`
	IDField      string        `yaml:"id_field"`
	EmailField   string        `yaml:"email_field"`
	NameFields   []string      `yaml:"name_fields"`
	Issuers      []string      `yaml:"issuers"`
	JWKSURL      string        `yaml:"jwks_url"`
	KeyCacheTTL  time.Duration `yaml:"key_cache_ttl"`
	Leeway       time.Duration `yaml:"leeway"`
}

type providersFile struct {
	Providers []ProviderSpec `yaml:"providers"`
}

// LoadFile reads provider specs from a YAML file.
func LoadFile(path string) ([]ProviderSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidProviderFile, err)
	}
	return ParseProviders(data)
}

// ParseProviders decodes provider specs from YAML.
func ParseProviders(data []byte) ([]ProviderSpec, error) {
	var f providersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrInvalidProviderFile, err)
	}
	for i := range f.Providers {
		p := &f.Providers[i]
		if p.Name == "" {
			return nil, fmt.Errorf("%w: provider #%d has no name", ErrInvalidProviderFile, i)
		}
		p.expand()
	}
	return f.Providers, nil
}

func (p *ProviderSpec) expand() {
	for _, s := range []*string{
		&p.ClientID, &p.ClientSecret, &p.RedirectURL, &p.AuthURL, &p.TokenURL,
		&p.UserInfoURL, &p.EmailsURL, &p.JWKSURL,
	} {
		*s = os.ExpandEnv(*s)
	}
}

// Build constructs the gateway described by p.
func (p ProviderSpec) Build(opts ...Option) (Gateway, error) {
	switch p.Kind {
	case KindOAuth2, "":
		return NewUserInfoGateway(UserInfoConfig{
			Name:         p.Name,
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			RedirectURL:  p.RedirectURL,
			AuthURL:      p.AuthURL,
			TokenURL:     p.TokenURL,
			Scopes:       p.Scopes,
			UserInfoURL:  p.UserInfoURL,
			EmailsURL:    p.EmailsURL,
			ExchangeCode: p.ExchangeCode,
			IDField:      p.IDField,
			EmailField:   p.EmailField,
			NameFields:   p.NameFields,
		}, opts...), nil
	case KindOIDC:
		return NewOIDCGateway(OIDCConfig{
			Name:        p.Name,
			ClientID:    p.ClientID,
			Issuers:     p.Issuers,
			JWKSURL:     p.JWKSURL,
			KeyCacheTTL: p.KeyCacheTTL,
			Leeway:      p.Leeway,
		}, opts...), nil
	default:
		return nil, fmt.Errorf("%w: provider %q has unknown kind %q", ErrInvalidProviderFile, p.Name, p.Kind)
	}
}

// NewRegistryFromConfig registers GitHub, Google and every provider in the
// configured providers file.
func NewRegistryFromConfig(cfg Config, opts ...Option) (*Registry, error) {
	gateways := []Gateway{NewGitHub(cfg.GitHub, opts...), NewGoogle(cfg.Google, opts...)}

	if cfg.ProvidersFile != "" {
		specs, err := LoadFile(cfg.ProvidersFile)
		if err != nil {
			return nil, err
		}
		for _, spec := range specs {
			gw, err := spec.Build(opts...)
			if err != nil {
				return nil, err
			}
			gateways = append(gateways, gw)
		}
	}

	return NewRegistry(gateways...)
}

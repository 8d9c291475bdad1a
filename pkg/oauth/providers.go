package oauth

import "golang.org/x/oauth2/github"

const (
	googleJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"
	githubAPI     = "https://api.github.com"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// GitHubConfig configures the GitHub gateway.
// By default the credential is a GitHub access token; set ExchangeCode to
// accept an authorization code instead.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:"," envDefault:"read:user,user:email"`
	ExchangeCode bool     `env:"GITHUB_OAUTH_EXCHANGE_CODE" envDefault:"false"`
	APIURL       string   `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
}

// NewGitHub returns a userinfo gateway for GitHub.
func NewGitHub(cfg GitHubConfig, opts ...Option) *UserInfoGateway {
	api := cfg.APIURL
	if api == "" {
		api = githubAPI
	}
	return NewUserInfoGateway(UserInfoConfig{
		Name:         ProviderGitHub,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		AuthURL:      github.Endpoint.AuthURL,
		TokenURL:     github.Endpoint.TokenURL,
		Scopes:       cfg.Scopes,
		UserInfoURL:  api + "/user",
		EmailsURL:    api + "/user/emails",
		ExchangeCode: cfg.ExchangeCode,
		IDField:      "id",
		EmailField:   "email",
		NameFields:   []string{"name", "login"},
	}, opts...)
}

// GoogleConfig configures the Google gateway. The credential is a Google ID token.
type GoogleConfig struct {
	ClientID string `env:"GOOGLE_OAUTH_CLIENT_ID"`
	JWKSURL  string `env:"GOOGLE_OAUTH_JWKS_URL" envDefault:"https://www.googleapis.com/oauth2/v3/certs"`
}

// NewGoogle returns an OIDC gateway for Google.
func NewGoogle(cfg GoogleConfig, opts ...Option) *OIDCGateway {
	jwks := cfg.JWKSURL
	if jwks == "" {
		jwks = googleJWKSURL
	}
	return NewOIDCGateway(OIDCConfig{
		Name:     ProviderGoogle,
		ClientID: cfg.ClientID,
		Issuers:  googleIssuers,
		JWKSURL:  jwks,
	}, opts...)
}

// Package oauth verifies credentials issued by external identity providers and
// turns them into a normalized Identity.
//
// Two gateway variants cover the providers authcore federates with:
//
//   - UserInfoGateway: an OAuth2 access token (or authorization code, when
//     code exchange is enabled) is presented to the provider's userinfo
//     endpoint. NewGitHub configures it for GitHub.
//   - OIDCGateway: an OpenID Connect ID token is verified locally against the
//     provider's published JWKS, audience and issuer. NewGoogle configures it
//     for Google.
//
// Gateways are looked up by name through a Registry. Lookup folds case, so
// "GitHub", "github" and "GITHUB" resolve to the same gateway; unknown names
// fail with ErrUnsupportedProvider.
//
// Additional providers can be declared in a YAML file and loaded with
// LoadFile.
//
// Failures are typed: ErrMisconfigured (missing client id, secret or
// endpoint), ErrInvalidCredential (the provider rejected the credential or it
// failed verification) and ErrProviderUnavailable (network or upstream
// failure).
package oauth

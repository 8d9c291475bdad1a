// Package jwt signs and verifies RS256 access tokens and publishes the
// matching public key as a JSON Web Key Set.
//
// A KeyProvider owns one RSA key pair for the lifetime of the process. Its
// JWKS document is computed at construction and served as cached bytes, so
// readers never observe a partially built key set.
//
//	keys, err := jwt.NewKeyProvider(jwt.WithKeyID("auth-key"))
//	issuer, err := jwt.NewIssuer(keys, jwt.Config{Issuer: "authcore", Audience: "api", AccessTTL: time.Hour})
//	tok, err := issuer.Issue(accountID, email)
//	claims, err := issuer.Verify(tok)
//
// Middleware validates bearer tokens on incoming requests and stores the
// parsed *Claims in the request context (see GetClaims).
//
// Key persistence and rotation across restarts are outside this package:
// supply an existing key with WithPrivateKey when a stable key is needed.
package jwt

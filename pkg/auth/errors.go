package auth

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that map errors to responses.
type Kind string

const (
	KindConflict            Kind = "conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindNotFound            Kind = "not_found"
	KindInvalidToken        Kind = "invalid_token"
	KindExpired             Kind = "expired"
	KindUnsupportedProvider Kind = "unsupported_provider"
	KindConfiguration       Kind = "configuration"
	KindInternal            Kind = "internal"
)

// Kind sentinels. Every specific error below wraps exactly one of them.
var (
	ErrConflict            = errors.New("conflict")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpired             = errors.New("expired")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrConfiguration       = errors.New("configuration error")
)

var (
	ErrEmailAlreadyExists = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrProviderLinked     = fmt.Errorf("%w: provider identity already linked to an account", ErrConflict)
	ErrDuplicateToken     = fmt.Errorf("%w: token already exists", ErrConflict)

	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrAccountInactive    = fmt.Errorf("%w: account is inactive", ErrUnauthorized)
	ErrProviderCredential = fmt.Errorf("%w: provider rejected the credential", ErrUnauthorized)

	ErrAccountNotFound      = fmt.Errorf("%w: account not found", ErrNotFound)
	ErrRefreshTokenNotFound = fmt.Errorf("%w: refresh token not found", ErrNotFound)
	ErrResetTokenNotFound   = fmt.Errorf("%w: reset token not found", ErrNotFound)

	ErrInvalidRefreshToken = fmt.Errorf("%w: refresh token is invalid or expired", ErrInvalidToken)
	ErrResetTokenExpired   = fmt.Errorf("%w: reset token has expired", ErrExpired)

	ErrMissingDependency = fmt.Errorf("%w: missing dependency", ErrConfiguration)
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrConflict, KindConflict},
	{ErrUnauthorized, KindUnauthorized},
	{ErrInvalidToken, KindInvalidToken},
	{ErrNotFound, KindNotFound},
	{ErrExpired, KindExpired},
	{ErrUnsupportedProvider, KindUnsupportedProvider},
	{ErrConfiguration, KindConfiguration},
}

// KindOf returns the kind of err, KindInternal for unclassified errors and
// the empty Kind for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

package oauth

import "errors"

var (
	ErrUnsupportedProvider = errors.New("oauth: unsupported provider")
	ErrDuplicateProvider   = errors.New("oauth: provider registered twice")
	ErrMisconfigured       = errors.New("oauth: provider is misconfigured")
	ErrInvalidCredential   = errors.New("oauth: invalid provider credential")
	ErrInvalidProfile      = errors.New("oauth: provider returned an incomplete profile")
	ErrNoEmail             = errors.New("oauth: provider profile has no usable email")
	ErrProviderUnavailable = errors.New("oauth: provider unavailable")
	ErrInvalidProviderFile = errors.New("oauth: invalid providers file")
)

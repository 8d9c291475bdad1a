package jwt

import "errors"

var (
	ErrInvalidToken      = errors.New("jwt: invalid token")
	ErrExpiredToken      = errors.New("jwt: token is expired")
	ErrMissingToken      = errors.New("jwt: missing token")
	ErrInvalidSigningKey = errors.New("jwt: invalid signing key")
	ErrInvalidKeySize    = errors.New("jwt: rsa key size below 2048 bits")
	ErrInvalidJWK        = errors.New("jwt: invalid json web key")
	ErrMissingIssuer     = errors.New("jwt: issuer is required")
	ErrMissingAudience   = errors.New("jwt: audience is required")
)

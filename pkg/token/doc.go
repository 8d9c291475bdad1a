// Package token generates opaque bearer secrets: refresh tokens and password
// reset tokens.
//
// Tokens are raw bytes from crypto/rand encoded with standard base64. They
// carry no payload; their meaning lives in the store that records them.
//
//	rt, err := token.NewRefreshToken() // 64 bytes of entropy
//	rs, err := token.NewResetToken()   // 32 bytes of entropy
package token

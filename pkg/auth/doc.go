// Package auth implements the account and token lifecycle: registration,
// password and provider login, refresh token rotation, password reset and
// provider linking.
//
// Service is the entry point. It is stateless apart from its collaborators
// and safe for concurrent use:
//
//	svc, err := auth.New(auth.Stores{
//		Accounts:      store,
//		RefreshTokens: store,
//		ResetTokens:   store,
//		Tx:            store,
//	}, hasher, issuer,
//		auth.WithProviders(registry),
//		auth.WithPublisher(publisher),
//		auth.WithLogger(log),
//	)
//
//	if err := svc.Register(ctx, "user@example.com", "pw"); err != nil { ... }
//	pair, err := svc.LoginWithPassword(ctx, "user@example.com", "pw")
//	pair, err = svc.RefreshToken(ctx, pair.RefreshToken)
//
// # Storage
//
// The package defines store contracts (AccountStore, RefreshTokenStore,
// ResetTokenStore) and a Transactor for multi-step units. Stores enforce
// uniqueness of account email, of the (provider, external id) pair and of
// token values, and report violations with the Conflict errors below.
//
// Refresh rotation and reset completion delete the consumed token before
// writing anything else. With a real Transactor both steps commit together;
// without one, the delete is the claim that keeps a token single-use.
//
// # Events
//
// Each state transition publishes a domain event after it is persisted.
// Publisher failures are logged and counted but never returned to the caller.
//
// # Errors
//
// Every failure maps to a Kind through KindOf: Conflict, Unauthorized,
// NotFound, InvalidToken, Expired, UnsupportedProvider, Configuration or
// Internal. Unknown email and wrong password are indistinguishable
// (ErrInvalidCredentials).
package auth

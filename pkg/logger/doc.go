// Package logger builds slog loggers for authcore services and provides
// attribute helpers with stable keys.
//
// New returns a *slog.Logger writing JSON (or text) records. Request-scoped
// values such as a request id are pulled from context at log time through
// ContextExtractor functions, so the same logger can be shared across
// goroutines without rebuilding handlers per request.
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "authd"),
//		logger.WithContextValue("request_id", requestIDKey{}),
//	)
//	log.InfoContext(ctx, "account registered", logger.AccountID(id))
//
// Attribute helpers return an empty slog.Attr for nil inputs, which slog
// drops from the output.
package logger

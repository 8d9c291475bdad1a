// Package httpapi exposes the auth commands over JSON HTTP and publishes the
// signing keys for token consumers.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/metrics"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
	"github.com/dmitrymomot/authcore/pkg/requestid"
)

// AuthService is the command surface served by the router.
type AuthService interface {
	Register(ctx context.Context, email, password string) error
	LoginWithPassword(ctx context.Context, email, password string) (*auth.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
	LoginWithProvider(ctx context.Context, provider, credential string) (string, error)
	LinkProvider(ctx context.Context, accountID uuid.UUID, provider, credential string) error
}

var _ AuthService = (*auth.Service)(nil)

// KeySet serves the published signing keys.
type KeySet interface {
	JWKSJSON() []byte
}

// Config holds transport settings.
type Config struct {
	// PublicURL is the externally visible base URL used in discovery
	// documents. When empty it is derived from the request.
	PublicURL     string        `env:"HTTP_PUBLIC_URL"`
	HealthTimeout time.Duration `env:"HTTP_HEALTH_TIMEOUT" envDefault:"2s"`
}

// Deps are the router collaborators. Service, Verifier and Keys are required.
type Deps struct {
	Service  AuthService
	Verifier jwt.Verifier
	Keys     KeySet
	// Issuer is the iss claim of issued tokens, advertised by discovery.
	Issuer string

	Checks    []httpserver.Check
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	ClientIP  *clientip.Resolver
	// Limiter throttles the unauthenticated credential endpoints per client
	// address. Nil disables throttling.
	Limiter ratelimiter.Limiter
	Logger  *slog.Logger
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg Config, d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("httpapi"))
	if d.ClientIP == nil {
		d.ClientIP = clientip.New()
	}

	h := &handler{svc: d.Service, log: log}
	wk := &wellKnown{keys: d.Keys, issuer: d.Issuer, publicURL: cfg.PublicURL}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(d.ClientIP.Middleware)
	r.Use(accessLog(log, d.Collector))
	r.Use(recoverer(log))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	bearer := jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Verifier:     d.Verifier,
		ErrorHandler: h.unauthorized,
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if d.Limiter != nil {
				r.Use(h.throttle(d.Limiter))
			}
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
			r.Post("/forgot-password", h.forgotPassword)
			r.Post("/reset-password", h.resetPassword)
			r.Post("/providers/{provider}/login", h.providerLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(bearer)
			r.Get("/validate", h.validate)
			r.Post("/providers/{provider}/link", h.providerLink)
		})
	})

	r.Get("/.well-known/jwks.json", wk.jwks)
	r.Get("/.well-known/openid-configuration", wk.openIDConfiguration)

	r.Get("/healthz", httpserver.HealthHandler(log, cfg.HealthTimeout, d.Checks...))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(d.Gatherer))
	}

	return r
}

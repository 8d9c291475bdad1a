package main

import (
	"time"

	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/email"
	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/httpapi"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/notify"
	"github.com/dmitrymomot/authcore/pkg/oauth"
	"github.com/dmitrymomot/authcore/pkg/password"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	EventsLog   = "log"
	EventsRedis = "redis"

	RateLimitMemory = "memory"
	RateLimitRedis  = "redis"
	RateLimitOff    = "off"
)

// AppConfig is the process-level configuration.
type AppConfig struct {
	Env          string `env:"APP_ENV" envDefault:"development"`
	ServiceName  string `env:"APP_SERVICE_NAME" envDefault:"authd"`
	StoreDriver  string `env:"STORE_DRIVER" envDefault:"memory"`
	EventsDriver string `env:"EVENTS_DRIVER" envDefault:"log"`
	// RateLimitDriver is memory, redis or off.
	RateLimitDriver string `env:"RATE_LIMIT_DRIVER" envDefault:"memory"`

	RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" envDefault:"168h"`
	ResetTokenTTL   time.Duration `env:"AUTH_RESET_TOKEN_TTL" envDefault:"1h"`
	// EventHandlerTimeout bounds each in-process event handler.
	EventHandlerTimeout time.Duration `env:"EVENTS_HANDLER_TIMEOUT" envDefault:"30s"`
}

// settings groups everything read from the environment at startup.
type settings struct {
	App      AppConfig
	HTTP     httpserver.Config
	API      httpapi.Config
	ClientIP clientip.Config
	JWT      jwt.Config
	Password password.Config
	OAuth    oauth.Config
	Email    email.Config
	Notify   notify.Config
	Stream   events.RedisConfig
	Limit    ratelimiter.Config
}

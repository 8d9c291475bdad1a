// Command authd serves the authentication API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/clientip"
	"github.com/dmitrymomot/authcore/pkg/config"
	"github.com/dmitrymomot/authcore/pkg/email"
	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/httpapi"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/jwt"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/metrics"
	"github.com/dmitrymomot/authcore/pkg/notify"
	"github.com/dmitrymomot/authcore/pkg/oauth"
	"github.com/dmitrymomot/authcore/pkg/password"
	"github.com/dmitrymomot/authcore/pkg/requestid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("authd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(s.App.Env, s.App.ServiceName),
		logger.WithContextExtractors(requestid.LogExtractor(), clientip.LogExtractor()),
	)
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	store, err := openStore(ctx, s.App.StoreDriver, log)
	if err != nil {
		return err
	}
	defer store.close()

	rdb := &sharedRedis{log: log}
	defer rdb.close()

	sink, err := openEventSink(ctx, s.App.EventsDriver, s.Stream, rdb, log)
	if err != nil {
		return err
	}
	limiter, closeLimiter, err := openLimiter(ctx, s.App.RateLimitDriver, s.Limit, rdb)
	if err != nil {
		return err
	}
	defer closeLimiter()

	dispatcher := events.NewDispatcher(
		events.WithHandlerTimeout(s.App.EventHandlerTimeout),
		events.WithDispatcherLogger(log),
	)
	sender, err := email.New(s.Email, log)
	if err != nil {
		return fmt.Errorf("failed to set up email: %w", err)
	}
	mailer, err := notify.NewResetMailer(sender, s.Notify, log)
	if err != nil {
		return fmt.Errorf("failed to set up reset mailer: %w", err)
	}
	mailer.Register(dispatcher)

	publisher := events.Instrument(events.Fanout{sink, dispatcher}, collector)

	keys, err := jwt.NewKeyProvider(jwt.WithKeyID(s.JWT.KeyID), jwt.WithKeyBits(s.JWT.KeyBits))
	if err != nil {
		return fmt.Errorf("failed to create signing key: %w", err)
	}
	issuer, err := jwt.NewIssuer(keys, s.JWT)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	hasher, err := password.NewFromConfig(s.Password)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}
	providers, err := oauth.NewRegistryFromConfig(s.OAuth)
	if err != nil {
		return fmt.Errorf("failed to load identity providers: %w", err)
	}
	log.InfoContext(ctx, "identity providers registered", slog.Any("providers", providers.Names()))

	svc, err := auth.New(store.stores, hasher, issuer,
		auth.WithLogger(log),
		auth.WithPublisher(publisher),
		auth.WithProviders(providers),
		auth.WithRecorder(collector),
		auth.WithRefreshTokenTTL(s.App.RefreshTokenTTL),
		auth.WithResetTokenTTL(s.App.ResetTokenTTL),
	)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	router := httpapi.NewRouter(s.API, httpapi.Deps{
		Service:   svc,
		Verifier:  issuer,
		Keys:      keys,
		Issuer:    issuer.Issuer(),
		Checks:    append(store.checks, rdb.checks()...),
		Collector: collector,
		Gatherer:  reg,
		ClientIP:  clientip.NewFromConfig(s.ClientIP),
		Limiter:   limiter,
		Logger:    log,
	})

	srv := httpserver.New(s.HTTP, router, httpserver.WithLogger(log))
	runErr := srv.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.HTTP.ShutdownTimeout)
	defer cancel()
	if err := dispatcher.Wait(drainCtx); err != nil {
		log.WarnContext(drainCtx, "event handlers still running at shutdown", logger.Error(err))
	}

	return runErr
}

func loadSettings() (settings, error) {
	var s settings
	err := errors.Join(
		config.Load(&s.App),
		config.Load(&s.HTTP),
		config.Load(&s.API),
		config.Load(&s.ClientIP),
		config.Load(&s.JWT),
		config.Load(&s.Password),
		config.Load(&s.OAuth),
		config.Load(&s.Email),
		config.Load(&s.Notify),
	)
	if err != nil {
		return s, err
	}
	if s.App.EventsDriver == EventsRedis {
		if err := config.Load(&s.Stream); err != nil {
			return s, err
		}
	}
	if s.App.RateLimitDriver != RateLimitOff {
		if err := config.Load(&s.Limit); err != nil {
			return s, err
		}
	}
	if s.HTTP.ShutdownTimeout <= 0 {
		s.HTTP.ShutdownTimeout = 10 * time.Second
	}
	return s, nil
}

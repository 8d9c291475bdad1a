package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authcore/pkg/auth"
	"github.com/dmitrymomot/authcore/pkg/config"
	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/httpserver"
	"github.com/dmitrymomot/authcore/pkg/logger"
	"github.com/dmitrymomot/authcore/pkg/mongo"
	"github.com/dmitrymomot/authcore/pkg/pg"
	"github.com/dmitrymomot/authcore/pkg/ratelimiter"
	"github.com/dmitrymomot/authcore/pkg/redis"
	"github.com/dmitrymomot/authcore/pkg/store/memstore"
	"github.com/dmitrymomot/authcore/pkg/store/mongostore"
	"github.com/dmitrymomot/authcore/pkg/store/pgstore"
)

const closeTimeout = 5 * time.Second

type storeHandle struct {
	stores auth.Stores
	checks []httpserver.Check
	close  func()
}

// openStore connects the persistence backend selected by driver.
func openStore(ctx context.Context, driver string, log *slog.Logger) (*storeHandle, error) {
	switch driver {
	case StoreMemory, "":
		log.WarnContext(ctx, "using in-memory store, data is lost on restart")
		return &storeHandle{stores: memstore.New().Stores(), close: func() {}}, nil

	case StorePostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg.MigrationsTable, log); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &storeHandle{
			stores: pgstore.New(pool).Stores(),
			checks: []httpserver.Check{{Name: "postgres", Probe: pg.Healthcheck(pool)}},
			close:  pool.Close,
		}, nil

	case StoreMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		db, err := mongo.ConnectDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		disconnect := func() {
			ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
			defer cancel()
			if err := db.Client().Disconnect(ctx); err != nil {
				log.WarnContext(ctx, "failed to disconnect from mongodb", logger.Error(err))
			}
		}
		store := mongostore.New(db, mongostore.WithTransactions(cfg.Transactions))
		if err := store.EnsureIndexes(ctx); err != nil {
			disconnect()
			return nil, err
		}
		return &storeHandle{
			stores: store.Stores(),
			checks: []httpserver.Check{{Name: "mongodb", Probe: mongo.Healthcheck(db.Client())}},
			close:  disconnect,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// sharedRedis connects on first use so the event sink and the rate limiter
// share one client.
type sharedRedis struct {
	client *goredis.Client
	log    *slog.Logger
}

func (r *sharedRedis) get(ctx context.Context) (*goredis.Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.client = client
	return client, nil
}

func (r *sharedRedis) checks() []httpserver.Check {
	if r.client == nil {
		return nil
	}
	return []httpserver.Check{{Name: "redis", Probe: redis.Healthcheck(r.client)}}
}

func (r *sharedRedis) close() {
	if r.client == nil {
		return
	}
	if err := r.client.Close(); err != nil {
		r.log.Warn("failed to close redis client", logger.Error(err))
	}
}

// openEventSink builds the durable event sink selected by driver.
func openEventSink(ctx context.Context, driver string, cfg events.RedisConfig, rdb *sharedRedis, log *slog.Logger) (events.Publisher, error) {
	switch driver {
	case EventsLog, "":
		return events.NewLogPublisher(log), nil

	case EventsRedis:
		client, err := rdb.get(ctx)
		if err != nil {
			return nil, err
		}
		return events.NewRedisStreamPublisher(client, cfg, log), nil

	default:
		return nil, fmt.Errorf("unknown events driver %q", driver)
	}
}

// openLimiter builds the credential endpoint throttle. It returns a nil
// Limiter when throttling is off.
func openLimiter(ctx context.Context, driver string, cfg ratelimiter.Config, rdb *sharedRedis) (ratelimiter.Limiter, func(), error) {
	var store ratelimiter.Store
	closeFn := func() {}

	switch driver {
	case RateLimitOff:
		return nil, closeFn, nil
	case RateLimitMemory, "":
		ms := ratelimiter.NewMemoryStore()
		store, closeFn = ms, ms.Close
	case RateLimitRedis:
		client, err := rdb.get(ctx)
		if err != nil {
			return nil, closeFn, err
		}
		store = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix("authcore:ratelimit:"))
	default:
		return nil, closeFn, fmt.Errorf("unknown rate limit driver %q", driver)
	}

	bucket, err := ratelimiter.NewBucket(store, cfg)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return bucket, closeFn, nil
}

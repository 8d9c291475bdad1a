package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/authcore/pkg/logger"
)

// RedisConfig configures the Redis stream sink.
type RedisConfig struct {
	Stream       string        `env:"EVENTS_REDIS_STREAM" envDefault:"AUTH_EVENTS"`
	MaxLen       int64         `env:"EVENTS_REDIS_MAXLEN" envDefault:"100000"`
	Attempts     int           `env:"EVENTS_PUBLISH_ATTEMPTS" envDefault:"3"`
	RetryBackoff time.Duration `env:"EVENTS_PUBLISH_BACKOFF" envDefault:"200ms"`
}

var ErrEncodeEvent = errors.New("failed to encode event")

// Stream message fields.
const (
	FieldID         = "id"
	FieldType       = "type"
	FieldOccurredAt = "occurred_at"
	FieldPayload    = "payload"
)

// RedisStreamPublisher appends events to a Redis stream. Each message holds the
// event id, name, occurrence time and JSON payload.
type RedisStreamPublisher struct {
	client redis.Cmdable
	cfg    RedisConfig
	log    *slog.Logger
}

// NewRedisStreamPublisher returns a publisher writing to cfg.Stream.
func NewRedisStreamPublisher(client redis.Cmdable, cfg RedisConfig, log *slog.Logger) *RedisStreamPublisher {
	if cfg.Stream == "" {
		cfg.Stream = "AUTH_EVENTS"
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if log == nil {
		log = logger.Discard()
	}
	return &RedisStreamPublisher{client: client, cfg: cfg, log: log.With(logger.Component("events.redis"))}
}

// Publish appends e, retrying transient failures up to cfg.Attempts times.
func (p *RedisStreamPublisher) Publish(ctx context.Context, e Event) error {
	values, err := Envelope(e)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{Stream: p.cfg.Stream, Values: values}
	if p.cfg.MaxLen > 0 {
		args.MaxLen = p.cfg.MaxLen
		args.Approx = true
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Attempts; attempt++ {
		if lastErr = p.client.XAdd(ctx, args).Err(); lastErr == nil {
			return nil
		}
		p.log.WarnContext(ctx, "failed to append event to stream",
			logger.EventType(e.Name()),
			logger.RetryCount(attempt),
			logger.Error(lastErr),
		)
		if attempt == p.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		case <-time.After(p.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("publish %s to stream %s: %w", e.Name(), p.cfg.Stream, lastErr)
}

// Envelope returns the stream fields for e.
func Envelope(e Event) (map[string]any, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Join(ErrEncodeEvent, err)
	}
	meta := e.Meta()
	return map[string]any{
		FieldID:         meta.ID.String(),
		FieldType:       e.Name(),
		FieldOccurredAt: meta.OccurredAt.Format(time.RFC3339Nano),
		FieldPayload:    string(payload),
	}, nil
}

var _ Publisher = (*RedisStreamPublisher)(nil)

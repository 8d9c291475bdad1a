// Package ratelimiter throttles requests with per-key token buckets kept in
// memory or in Redis.
package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig    = errors.New("invalid rate limit configuration")
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)

// Config defines one token bucket. A key starts with Capacity tokens and
// regains RefillRate tokens every RefillInterval, never exceeding Capacity.
type Config struct {
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"10"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"6s"`
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Store keeps bucket state.
type Store interface {
	// Take removes one token from the bucket of key and returns what is left
	// and when the next refill happens. A negative remainder means denied.
	Take(ctx context.Context, key string, cfg Config) (remaining int, resetAt time.Time, err error)
}

// Result is the outcome of one check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the request may proceed.
func (r *Result) Allowed() bool { return r.Remaining >= 0 }

// RetryAfter is how long a denied caller should wait.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Limiter checks keys against a budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Bucket is a token bucket Limiter over a Store.
type Bucket struct {
	store Store
	cfg   Config
}

var _ Limiter = (*Bucket)(nil)

// NewBucket validates cfg and returns a Bucket.
func NewBucket(store Store, cfg Config) (*Bucket, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, cfg: cfg}, nil
}

// Allow takes one token for key.
func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	remaining, resetAt, err := b.store.Take(ctx, key, b.cfg)
	if err != nil {
		return nil, err
	}
	return &Result{Limit: b.cfg.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

// refill returns the token count after the intervals elapsed since last,
// and the new refill mark.
func refill(tokens int, last, now time.Time, cfg Config) (int, time.Time) {
	intervals := int64(now.Sub(last) / cfg.RefillInterval)
	if intervals <= 0 {
		return tokens, last
	}
	if intervals >= int64(cfg.Capacity) {
		tokens = cfg.Capacity
	} else {
		tokens = min(tokens+int(intervals)*cfg.RefillRate, cfg.Capacity)
	}
	return tokens, last.Add(time.Duration(intervals) * cfg.RefillInterval)
}

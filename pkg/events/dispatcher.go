package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/authcore/pkg/logger"
)

const defaultHandlerTimeout = 10 * time.Second

// Handler consumes one event.
type Handler func(ctx context.Context, e Event) error

// Dispatcher runs in-process handlers subscribed by event name. Each handler
// runs in its own goroutine with a timeout, detached from the publisher's
// context cancellation. Handler errors and panics are logged.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	timeout  time.Duration
	log      *slog.Logger
	wg       sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHandlerTimeout bounds each handler run.
func WithHandlerTimeout(d time.Duration) DispatcherOption {
	return func(s *Dispatcher) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithDispatcherLogger sets the logger for handler failures.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(s *Dispatcher) {
		if l != nil {
			s.log = l
		}
	}
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string][]Handler),
		timeout:  defaultHandlerTimeout,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers h for events named name.
func (d *Dispatcher) Subscribe(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Publish schedules every handler subscribed to e. It never fails.
func (d *Dispatcher) Publish(ctx context.Context, e Event) error {
	d.mu.RLock()
	hs := append([]Handler(nil), d.handlers[e.Name()]...)
	d.mu.RUnlock()

	for _, h := range hs {
		d.wg.Add(1)
		go d.run(context.WithoutCancel(ctx), h, e)
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context, h Handler, e Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("event handler panicked",
				logger.EventType(e.Name()),
				logger.EventID(e.Meta().ID),
				slog.Any("panic", r),
				logger.Component("events"),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := h(ctx, e); err != nil {
		d.log.ErrorContext(ctx, "event handler failed",
			logger.EventType(e.Name()),
			logger.EventID(e.Meta().ID),
			logger.Error(err),
			logger.Component("events"),
		)
	}
}

// Wait blocks until all scheduled handlers return or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Publisher = (*Dispatcher)(nil)

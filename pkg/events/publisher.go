package events

import (
	"context"
	"errors"
	"fmt"
)

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, e Event) error

func (f PublisherFunc) Publish(ctx context.Context, e Event) error { return f(ctx, e) }

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(context.Context, Event) error { return nil })

// Fanout publishes to every member in order. One failing member does not
// stop delivery to the rest.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for i, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("publisher #%d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Recorder counts delivery outcomes.
type Recorder interface {
	EventPublished(name string)
	EventPublishFailed(name string)
}

// Instrument reports the outcome of every Publish on next to rec.
func Instrument(next Publisher, rec Recorder) Publisher {
	return PublisherFunc(func(ctx context.Context, e Event) error {
		err := next.Publish(ctx, e)
		if err != nil {
			rec.EventPublishFailed(e.Name())
		} else {
			rec.EventPublished(e.Name())
		}
		return err
	})
}

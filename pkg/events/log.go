package events

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authcore/pkg/logger"
)

// LogPublisher records events in the service log.
// Reset tokens are redacted.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher returns a LogPublisher writing to log.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = logger.Discard()
	}
	return &LogPublisher{log: log.With(logger.Component("events"))}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	meta := e.Meta()
	attrs := []any{
		logger.EventType(e.Name()),
		logger.EventID(meta.ID),
		slog.Time("occurred_at", meta.OccurredAt),
	}

	switch ev := e.(type) {
	case AccountRegistered:
		attrs = append(attrs, logger.AccountID(ev.AccountID), logger.Email(ev.Email))
	case AccountLoggedIn:
		attrs = append(attrs, logger.AccountID(ev.AccountID), logger.Email(ev.Email))
	case ProviderLinked:
		attrs = append(attrs, logger.AccountID(ev.Account.ID), logger.Provider(ev.Provider))
	case PasswordResetRequested:
		attrs = append(attrs, logger.Email(ev.Email))
	}

	p.log.InfoContext(ctx, "domain event", attrs...)
	return nil
}

var _ Publisher = (*LogPublisher)(nil)

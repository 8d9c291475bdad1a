// Package email delivers transactional mail through Postmark, or to the log
// or local files during development.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
)

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a single outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body,omitempty"`
	TextBody string `json:"text_body,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the recipient, subject and that some body is present.
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	if m.HTMLBody == "" && m.TextBody == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// New builds the sender selected by cfg.Driver.
func New(cfg Config, log *slog.Logger) (Sender, error) {
	switch cfg.Driver {
	case DriverPostmark:
		return NewPostmarkSender(cfg)
	case DriverFile:
		return NewFileSender(cfg.DevDir), nil
	case DriverLog, "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}

// Package notify turns domain events into user-facing notifications.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"text/template"
	"time"

	"github.com/dmitrymomot/authcore/pkg/email"
	"github.com/dmitrymomot/authcore/pkg/email/templates"
	"github.com/dmitrymomot/authcore/pkg/events"
	"github.com/dmitrymomot/authcore/pkg/logger"
)

// Config holds the reset mail settings.
type Config struct {
	ResetURL string        `env:"NOTIFY_RESET_URL" envDefault:"http://localhost:8080/reset-password"`
	Subject  string        `env:"NOTIFY_RESET_SUBJECT" envDefault:"Reset your password"`
	TokenTTL time.Duration `env:"NOTIFY_RESET_TTL" envDefault:"1h"`
}

const resetTag = "password-reset"

var resetText = template.Must(template.New("reset.txt").Parse(
	`Someone asked to reset the password for {{.Email}}.

Open the link below to choose a new password. It expires in {{.TTL}}.

{{.Link}}

If you did not ask for this, ignore this email.
`))

// ResetMailer emails the reset link carried by PasswordResetRequested.
type ResetMailer struct {
	sender email.Sender
	cfg    Config
	base   *url.URL
	log    *slog.Logger
}

// NewResetMailer validates cfg.ResetURL and returns a ResetMailer.
func NewResetMailer(sender email.Sender, cfg Config, log *slog.Logger) (*ResetMailer, error) {
	base, err := url.Parse(cfg.ResetURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: reset url %q", ErrInvalidConfig, cfg.ResetURL)
	}
	if cfg.Subject == "" {
		cfg.Subject = "Reset your password"
	}
	if log == nil {
		log = logger.Discard()
	}
	return &ResetMailer{sender: sender, cfg: cfg, base: base, log: log.With(logger.Component("notify"))}, nil
}

// Register subscribes m to d.
func (m *ResetMailer) Register(d *events.Dispatcher) {
	d.Subscribe(events.NamePasswordResetRequested, m.Handle)
}

// Handle sends the reset mail. Other events are ignored.
func (m *ResetMailer) Handle(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.PasswordResetRequested)
	if !ok {
		return nil
	}

	msg, err := m.compose(ctx, ev)
	if err != nil {
		return err
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	m.log.InfoContext(ctx, "reset email sent", logger.EventID(ev.ID))
	return nil
}

func (m *ResetMailer) compose(ctx context.Context, ev events.PasswordResetRequested) (email.Message, error) {
	link := *m.base
	q := link.Query()
	q.Set("token", ev.Token)
	link.RawQuery = q.Encode()

	data := templates.PasswordResetParams{Email: ev.Email, Link: link.String(), TTL: m.cfg.TokenTTL.String()}

	var text bytes.Buffer
	if err := resetText.Execute(&text, data); err != nil {
		return email.Message{}, fmt.Errorf("failed to render reset text: %w", err)
	}
	html, err := templates.Render(ctx, templates.PasswordReset(data))
	if err != nil {
		return email.Message{}, fmt.Errorf("failed to render reset html: %w", err)
	}

	return email.Message{
		To:       ev.Email,
		Subject:  m.cfg.Subject,
		TextBody: text.String(),
		HTMLBody: html,
		Tag:      resetTag,
	}, nil
}

package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/authcore/pkg/logger"
)

// LogSender writes messages to a logger instead of delivering them.
type LogSender struct {
	log *slog.Logger
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*FileSender)(nil)
)

// NewLogSender returns a Sender that logs at info level.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = logger.Discard()
	}
	return &LogSender{log: log.With(logger.Component("email"))}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}
	s.log.InfoContext(ctx, "email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
		slog.String("body", body),
	)
	return nil
}

// FileSender saves each message as an HTML file plus a JSON metadata file.
type FileSender struct {
	dir string
	now func() time.Time
}

// NewFileSender returns a Sender writing into dir, created on first use.
func NewFileSender(dir string) *FileSender {
	return &FileSender{dir: dir, now: time.Now}
}

type fileMetadata struct {
	Timestamp string `json:"timestamp"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
	TextBody  string `json:"text_body,omitempty"`
}

func (s *FileSender) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrFailedToSendEmail, err)
	}

	now := s.now()
	name := msg.Tag
	if name == "" {
		name = msg.Subject
	}
	base := filepath.Join(s.dir, now.Format("2006_01_02_150405.000000")+"_"+sanitizeFilename(name))

	if msg.HTMLBody != "" {
		if err := os.WriteFile(base+".html", []byte(msg.HTMLBody), 0o644); err != nil {
			return fmt.Errorf("%w: write html: %v", ErrFailedToSendEmail, err)
		}
	}

	meta, err := json.MarshalIndent(fileMetadata{
		Timestamp: now.Format(time.RFC3339),
		To:        msg.To,
		Subject:   msg.Subject,
		Tag:       msg.Tag,
		TextBody:  msg.TextBody,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal metadata: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(base+".json", meta, 0o644); err != nil {
		return fmt.Errorf("%w: write metadata: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9\-_.]`)

func sanitizeFilename(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, " ", "_"))
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		return "email"
	}
	return s
}

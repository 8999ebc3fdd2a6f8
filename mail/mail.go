// Package mail delivers transactional email through SendGrid, Postmark or the
// process log.
package mail

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
)

var (
	ErrInvalidMessage = errors.New("invalid email message")
	ErrSendFailed     = errors.New("failed to send email")
)

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
	// Tag groups messages in the provider's dashboard.
	Tag string
}

func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	if m.Subject == "" {
		return errors.Join(ErrInvalidMessage, errors.New("subject is required"))
	}
	if m.Text == "" && m.HTML == "" {
		return errors.Join(ErrInvalidMessage, errors.New("body is required"))
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "email not delivered (log provider)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
	)
	return nil
}

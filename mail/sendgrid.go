package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

// NewSendGridSender builds a sender for the SendGrid v3 API. host may be
// empty to use the public endpoint.
func NewSendGridSender(apiKey, from, fromName, host string) *SendGridSender {
	req := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
	return &SendGridSender{
		client:   &sendgrid.Client{Request: req},
		from:     from,
		fromName: fromName,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	from := sgmail.NewEmail(s.fromName, s.from)
	to := sgmail.NewEmail("", msg.To)
	html := msg.HTML
	if html == "" {
		html = msg.Text
	}
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Text, html)
	if msg.Tag != "" {
		message.AddCategories(msg.Tag)
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.StatusCode >= 400 {
		return errors.Join(ErrSendFailed, fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body))
	}
	return nil
}

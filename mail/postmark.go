package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

type PostmarkSender struct {
	client *postmark.Client
	from   string
}

func NewPostmarkSender(serverToken, accountToken, from string) *PostmarkSender {
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}
}

func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.from,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		TextBody:   msg.Text,
		HTMLBody:   msg.HTML,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

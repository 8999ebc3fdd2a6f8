package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"streamgate/billing"

	"github.com/sendgrid/rest"
)

// OpsAlerter notifies operators about payments that need manual attention.
type OpsAlerter interface {
	ManualReconciliation(ctx context.Context, ev billing.Event, cause error)
}

type SlackAlerter struct {
	webhookURL string
	logger     *slog.Logger
}

func NewSlackAlerter(webhookURL string, logger *slog.Logger) *SlackAlerter {
	return &SlackAlerter{webhookURL: webhookURL, logger: logger}
}

func (s *SlackAlerter) ManualReconciliation(ctx context.Context, ev billing.Event, cause error) {
	if s.webhookURL == "" {
		s.logger.DebugContext(ctx, "slack skipped: SLACK_WEBHOOK_URL not set")
		return
	}

	payload := map[string]string{
		"text": fmt.Sprintf("🚨 Payment needs manual reconciliation\n\nEvent: %s (%s)\nEmail: %s\nTime: %s\n\nIssue:\n%s",
			ev.ID,
			ev.Type,
			ev.Email,
			time.Now().UTC().Format(time.RFC3339),
			cause,
		),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "marshal slack payload", slog.String("error", err.Error()))
		return
	}

	resp, err := rest.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: s.webhookURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "send slack alert", slog.String("error", err.Error()))
		return
	}
	if resp.StatusCode >= 400 {
		s.logger.ErrorContext(ctx, "slack api error", slog.Int("status", resp.StatusCode))
	}
}

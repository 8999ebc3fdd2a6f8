package services

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"streamgate/billing"
)

// CheckoutService opens hosted checkout sessions for the single subscription
// product. Payment completion is reported later through the webhook.
type CheckoutService struct {
	gateway     billing.Gateway
	frontendURL string
	logger      *slog.Logger
}

func NewCheckoutService(gateway billing.Gateway, frontendURL string, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		gateway:     gateway,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

func (s *CheckoutService) CreateSession(ctx context.Context, email string) (*billing.CheckoutSession, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		Email:      email,
		SuccessURL: s.frontendURL + "/success?email=" + url.QueryEscape(email),
		CancelURL:  s.frontendURL + "/subscription",
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "checkout session failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.InfoContext(ctx, "checkout session created", slog.String("session_id", session.ID))
	return session, nil
}

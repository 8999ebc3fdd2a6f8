package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"streamgate/auth"
	"streamgate/billing"
	"streamgate/config"
	"streamgate/mail"
	"streamgate/store"

	"github.com/redis/go-redis/v9"
)

func newCredentials(cfg config.Auth) (*auth.Hasher, *auth.TokenCodec, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	codec, err := auth.NewTokenCodec(cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	return hasher, codec, nil
}

func newMailer(cfg config.Mail, logger *slog.Logger) (mail.Sender, error) {
	switch cfg.Provider {
	case "sendgrid":
		return mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.From, cfg.FromName, ""), nil
	case "postmark":
		return mail.NewPostmarkSender(cfg.PostmarkServerToken, cfg.PostmarkAccountToken, cfg.From), nil
	case "log", "":
		return mail.NewLogSender(logger), nil
	}
	return nil, fmt.Errorf("%w: unknown MAIL_PROVIDER %q", config.ErrInvalidConfig, cfg.Provider)
}

func newGateway(cfg config.Payments) (billing.Gateway, error) {
	switch cfg.Provider {
	case "paddle":
		return billing.NewPaddleGateway(billing.PaddleConfig{
			APIKey:        cfg.PaddleAPIKey,
			WebhookSecret: cfg.WebhookSecret,
			Environment:   cfg.PaddleEnvironment,
			PriceID:       cfg.PaddlePriceID,
		})
	case "hmac", "":
		if cfg.WebhookSecret == "" {
			return nil, errors.New("WEBHOOK_SECRET environment variable not set")
		}
		return billing.NewHMACGateway(billing.HMACConfig{
			Secret:      cfg.WebhookSecret,
			Header:      cfg.SignatureHeader,
			Tolerance:   cfg.WebhookTolerance,
			CheckoutURL: cfg.CheckoutAPIURL,
			CheckoutKey: cfg.CheckoutAPIKey,
			Amount:      cfg.CheckoutAmount,
			Currency:    cfg.CheckoutCurrency,
			ProductName: cfg.CheckoutProductName,
		})
	}
	return nil, fmt.Errorf("%w: unknown PAYMENT_PROVIDER %q", config.ErrInvalidConfig, cfg.Provider)
}

// newConsumedTokens returns the Redis-backed set when url is set and an
// in-process set otherwise. The returned func releases the client.
func newConsumedTokens(ctx context.Context, url string, logger *slog.Logger) (store.ConsumedTokens, func(), error) {
	if url == "" {
		logger.Warn("REDIS_URL not set, consumed reset tokens are kept in process")
		return store.NewMemoryConsumedTokens(), func() {}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return store.NewRedisConsumedTokens(client), func() { client.Close() }, nil
}

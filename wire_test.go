package main

import (
	"context"
	"testing"

	"streamgate/billing"
	"streamgate/config"
	"streamgate/logging"
	"streamgate/mail"
	"streamgate/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailer(t *testing.T) {
	logger := logging.Discard()

	m, err := newMailer(config.Mail{Provider: "log"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &mail.LogSender{}, m)

	m, err = newMailer(config.Mail{Provider: "sendgrid", SendGridAPIKey: "SG.x", From: "a@b.co"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &mail.SendGridSender{}, m)

	m, err = newMailer(config.Mail{Provider: "postmark", PostmarkServerToken: "s", PostmarkAccountToken: "a"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &mail.PostmarkSender{}, m)

	_, err = newMailer(config.Mail{Provider: "pigeon"}, logger)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewGateway(t *testing.T) {
	_, err := newGateway(config.Payments{Provider: "hmac"})
	assert.Error(t, err, "hmac without a secret")

	gw, err := newGateway(config.Payments{Provider: "hmac", WebhookSecret: "whsec"})
	require.NoError(t, err)
	assert.IsType(t, &billing.HMACGateway{}, gw)

	gw, err = newGateway(config.Payments{Provider: "paddle", PaddleAPIKey: "pdl_key", WebhookSecret: "pdl_ntfset", PaddleEnvironment: "sandbox"})
	require.NoError(t, err)
	assert.IsType(t, &billing.PaddleGateway{}, gw)

	_, err = newGateway(config.Payments{Provider: "barter"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewConsumedTokens(t *testing.T) {
	ctx := context.Background()

	c, closeFn, err := newConsumedTokens(ctx, "", logging.Discard())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.MemoryConsumedTokens{}, c)

	_, _, err = newConsumedTokens(ctx, "not a url", logging.Discard())
	assert.Error(t, err)
}

func TestNewDeps(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("WEBHOOK_SECRET", "whsec")
	cfg, err := config.Load()
	require.NoError(t, err)
	logger := logging.Discard()

	gw, err := newGateway(cfg.Payments)
	require.NoError(t, err)
	deps, err := newDeps(cfg, config.LoadFeatures(), store.NewMemoryUsers(), store.NewMemoryMovies(),
		store.NewMemoryConsumedTokens(), mail.NewLogSender(logger), gw, logger)
	require.NoError(t, err)

	assert.NotNil(t, deps.Auth)
	assert.NotNil(t, deps.Reset)
	assert.NotNil(t, deps.Checkout)
	assert.NotNil(t, deps.Reconciler)
	assert.NotNil(t, deps.Catalog)
	assert.True(t, deps.Features.BillingEnabled)

	cfg.Auth.BcryptCost = 99
	_, err = newDeps(cfg, config.LoadFeatures(), store.NewMemoryUsers(), store.NewMemoryMovies(),
		store.NewMemoryConsumedTokens(), mail.NewLogSender(logger), gw, logger)
	assert.Error(t, err)
}

package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

const (
	PaddleSignatureHeader     = "Paddle-Signature"
	EventTransactionCompleted = "transaction.completed"
)

type PaddleConfig struct {
	APIKey        string
	WebhookSecret string
	Environment   string
	PriceID       string
}

type PaddleGateway struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	priceID  string
}

func NewPaddleGateway(cfg PaddleConfig) (*PaddleGateway, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("paddle API key is required")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("paddle webhook secret is required")
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("invalid paddle environment: %s", cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleGateway{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		priceID:  cfg.PriceID,
	}, nil
}

func (g *PaddleGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if g.priceID == "" {
		return nil, fmt.Errorf("%w: price not configured", ErrCheckoutFailed)
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  g.priceID,
		Quantity: 1,
	})
	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{"email": req.Email},
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(req.SuccessURL)}
	}

	tx, err := g.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil {
		return nil, fmt.Errorf("%w: no checkout url returned", ErrCheckoutFailed)
	}
	return &CheckoutSession{ID: tx.ID, URL: *tx.Checkout.URL}, nil
}

func (g *PaddleGateway) ParseEvent(ctx context.Context, payload []byte, header http.Header) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set(PaddleSignatureHeader, header.Get(PaddleSignatureHeader))

	valid, err := g.verifier.Verify(req)
	if err != nil || !valid {
		return nil, ErrInvalidSignature
	}
	return parsePaddleEvent(payload)
}

func parsePaddleEvent(payload []byte) (*Event, error) {
	var raw struct {
		EventID   string `json:"event_id"`
		EventType string `json:"event_type"`
		Data      struct {
			CustomData map[string]any `json:"custom_data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, ErrInvalidPayload
	}

	ev := &Event{
		ID:        raw.EventID,
		Type:      raw.EventType,
		Completed: raw.EventType == EventTransactionCompleted,
	}
	if email, ok := raw.Data.CustomData["email"].(string); ok {
		ev.Email = email
	}
	return ev, nil
}

package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sendgrid/rest"
)

const (
	DefaultSignatureHeader = "Stripe-Signature"
	EventCheckoutCompleted = "checkout.session.completed"
)

type HMACConfig struct {
	Secret string
	// Header carries "t=<unix>,v1=<hex>".
	Header    string
	Tolerance time.Duration

	CheckoutURL string
	CheckoutKey string
	Amount      int64
	Currency    string
	ProductName string
}

// HMACGateway verifies Stripe-style signed webhooks and opens checkout
// sessions through a JSON REST endpoint.
type HMACGateway struct {
	cfg HMACConfig
	now func() time.Time
}

func NewHMACGateway(cfg HMACConfig) (*HMACGateway, error) {
	if cfg.Secret == "" {
		return nil, errors.New("webhook secret is required")
	}
	if cfg.Header == "" {
		cfg.Header = DefaultSignatureHeader
	}
	return &HMACGateway{cfg: cfg, now: time.Now}, nil
}

func (g *HMACGateway) ParseEvent(_ context.Context, payload []byte, header http.Header) (*Event, error) {
	if err := g.verify(payload, header.Get(g.cfg.Header)); err != nil {
		return nil, err
	}

	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				CustomerEmail   string `json:"customer_email"`
				CustomerDetails *struct {
					Email string `json:"email"`
				} `json:"customer_details"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, ErrInvalidPayload
	}

	ev := &Event{ID: raw.ID, Type: raw.Type, Completed: raw.Type == EventCheckoutCompleted}
	obj := raw.Data.Object
	if obj.CustomerDetails != nil && obj.CustomerDetails.Email != "" {
		ev.Email = obj.CustomerDetails.Email
	} else {
		ev.Email = obj.CustomerEmail
	}
	return ev, nil
}

func (g *HMACGateway) verify(payload []byte, header string) error {
	if header == "" {
		return ErrInvalidSignature
	}

	var (
		ts   int64
		sigs []string
		err  error
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	if g.cfg.Tolerance > 0 {
		age := g.now().Sub(time.Unix(ts, 0))
		if age > g.cfg.Tolerance || age < -g.cfg.Tolerance {
			return ErrInvalidSignature
		}
	}

	expected := []byte(computeSignature(g.cfg.Secret, ts, payload))
	for _, sig := range sigs {
		if hmac.Equal(expected, []byte(sig)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload returns a signature header value for payload at ts.
func SignPayload(secret string, payload []byte, ts time.Time) string {
	unix := ts.Unix()
	return fmt.Sprintf("t=%d,v1=%s", unix, computeSignature(secret, unix, payload))
}

func computeSignature(secret string, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

type checkoutLineItem struct {
	PriceData struct {
		Currency    string `json:"currency"`
		UnitAmount  int64  `json:"unit_amount"`
		ProductData struct {
			Name string `json:"name"`
		} `json:"product_data"`
	} `json:"price_data"`
	Quantity int `json:"quantity"`
}

type checkoutBody struct {
	Mode          string             `json:"mode"`
	CustomerEmail string             `json:"customer_email,omitempty"`
	SuccessURL    string             `json:"success_url"`
	CancelURL     string             `json:"cancel_url"`
	LineItems     []checkoutLineItem `json:"line_items"`
}

func (g *HMACGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if g.cfg.CheckoutURL == "" {
		return nil, fmt.Errorf("%w: checkout endpoint not configured", ErrCheckoutFailed)
	}

	item := checkoutLineItem{Quantity: 1}
	item.PriceData.Currency = g.cfg.Currency
	item.PriceData.UnitAmount = g.cfg.Amount
	item.PriceData.ProductData.Name = g.cfg.ProductName

	body, err := json.Marshal(checkoutBody{
		Mode:          "payment",
		CustomerEmail: req.Email,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		LineItems:     []checkoutLineItem{item},
	})
	if err != nil {
		return nil, err
	}

	resp, err := rest.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: g.cfg.CheckoutURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + g.cfg.CheckoutKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckoutFailed, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrCheckoutFailed, resp.StatusCode)
	}

	var out struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil || out.URL == "" {
		return nil, fmt.Errorf("%w: no checkout url returned", ErrCheckoutFailed)
	}
	return &CheckoutSession{ID: out.ID, URL: out.URL}, nil
}

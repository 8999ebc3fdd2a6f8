package billing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"streamgate/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

var fixedNow = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func newHMACGateway(t *testing.T, cfg HMACConfig) *HMACGateway {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = testSecret
	}
	g, err := NewHMACGateway(cfg)
	require.NoError(t, err)
	g.now = func() time.Time { return fixedNow }
	return g
}

func signedHeader(payload []byte, ts time.Time) http.Header {
	h := http.Header{}
	h.Set(DefaultSignatureHeader, SignPayload(testSecret, payload, ts))
	return h
}

func TestHMACGateway_CompletedEvent(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{Tolerance: 5 * time.Minute})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"customer_email":"fallback@example.com","customer_details":{"email":"Payer@Example.com"}}}}`)

	ev, err := g.ParseEvent(context.Background(), payload, signedHeader(payload, fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.True(t, ev.Completed)
	assert.Equal(t, "Payer@Example.com", ev.Email)
}

func TestHMACGateway_EmailFallback(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{})
	payload := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"customer_email":"fallback@example.com"}}}`)

	ev, err := g.ParseEvent(context.Background(), payload, signedHeader(payload, fixedNow))
	require.NoError(t, err)
	assert.Equal(t, "fallback@example.com", ev.Email)
}

func TestHMACGateway_OtherEventType(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{})
	payload := []byte(`{"id":"evt_3","type":"invoice.paid","data":{"object":{}}}`)

	ev, err := g.ParseEvent(context.Background(), payload, signedHeader(payload, fixedNow))
	require.NoError(t, err)
	assert.False(t, ev.Completed)
	assert.Equal(t, "invoice.paid", ev.Type)
}

func TestHMACGateway_InvalidSignatures(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{Tolerance: 5 * time.Minute})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"customer_email":"a@b.c"}}}`)

	tampered := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"customer_email":"evil@b.c"}}}`)
	wrongSecret := http.Header{}
	wrongSecret.Set(DefaultSignatureHeader, SignPayload("other", payload, fixedNow))

	tests := []struct {
		name    string
		payload []byte
		header  http.Header
	}{
		{"missing header", payload, http.Header{}},
		{"garbage header", payload, http.Header{DefaultSignatureHeader: []string{"nonsense"}}},
		{"no v1", payload, http.Header{DefaultSignatureHeader: []string{"t=1769940000"}}},
		{"tampered body", tampered, signedHeader(payload, fixedNow)},
		{"wrong secret", payload, wrongSecret},
		{"too old", payload, signedHeader(payload, fixedNow.Add(-10*time.Minute))},
		{"too far in future", payload, signedHeader(payload, fixedNow.Add(10*time.Minute))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := g.ParseEvent(context.Background(), tt.payload, tt.header)
			assert.Nil(t, ev)
			assert.ErrorIs(t, err, ErrInvalidSignature)
			assert.Equal(t, apperr.KindIntegrity, apperr.KindOf(err))
		})
	}
}

func TestHMACGateway_AcceptsAnyMatchingV1(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	valid := SignPayload(testSecret, payload, fixedNow)

	h := http.Header{}
	h.Set(DefaultSignatureHeader, valid+",v1=deadbeef")
	_, err := g.ParseEvent(context.Background(), payload, h)
	assert.NoError(t, err)
}

func TestHMACGateway_CustomHeader(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{Header: "X-Signature"})
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	h := http.Header{}
	h.Set("X-Signature", SignPayload(testSecret, payload, fixedNow))
	_, err := g.ParseEvent(context.Background(), payload, h)
	assert.NoError(t, err)
}

func TestHMACGateway_SignedGarbage(t *testing.T) {
	g := newHMACGateway(t, HMACConfig{})
	payload := []byte(`not json`)

	_, err := g.ParseEvent(context.Background(), payload, signedHeader(payload, fixedNow))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNewHMACGateway_RequiresSecret(t *testing.T) {
	_, err := NewHMACGateway(HMACConfig{})
	assert.Error(t, err)
}

func TestHMACGateway_CreateCheckoutSession(t *testing.T) {
	var got checkoutBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://pay.example.com/cs_1"}`))
	}))
	defer srv.Close()

	g := newHMACGateway(t, HMACConfig{
		CheckoutURL: srv.URL,
		CheckoutKey: "sk_test",
		Amount:      2000,
		Currency:    "xof",
		ProductName: "Abonnement Standard",
	})

	session, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		Email:      "payer@example.com",
		SuccessURL: "http://app/success",
		CancelURL:  "http://app/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://pay.example.com/cs_1", session.URL)

	assert.Equal(t, "payment", got.Mode)
	assert.Equal(t, "payer@example.com", got.CustomerEmail)
	require.Len(t, got.LineItems, 1)
	assert.Equal(t, int64(2000), got.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "xof", got.LineItems[0].PriceData.Currency)
	assert.Equal(t, "Abonnement Standard", got.LineItems[0].PriceData.ProductData.Name)
}

func TestHMACGateway_CreateCheckoutSessionFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := newHMACGateway(t, HMACConfig{CheckoutURL: srv.URL})
	_, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrCheckoutFailed)
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))

	unconfigured := newHMACGateway(t, HMACConfig{})
	_, err = unconfigured.CreateCheckoutSession(context.Background(), CheckoutRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrCheckoutFailed)
}

package billing

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaddleGateway_Validation(t *testing.T) {
	_, err := NewPaddleGateway(PaddleConfig{WebhookSecret: "s"})
	assert.Error(t, err)

	_, err = NewPaddleGateway(PaddleConfig{APIKey: "k"})
	assert.Error(t, err)

	_, err = NewPaddleGateway(PaddleConfig{APIKey: "k", WebhookSecret: "s", Environment: "moon"})
	assert.Error(t, err)

	g, err := NewPaddleGateway(PaddleConfig{APIKey: "k", WebhookSecret: "s", Environment: "sandbox"})
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestPaddleGateway_RejectsUnsigned(t *testing.T) {
	g, err := NewPaddleGateway(PaddleConfig{APIKey: "k", WebhookSecret: "s"})
	require.NoError(t, err)

	payload := []byte(`{"event_id":"evt_1","event_type":"transaction.completed","data":{"custom_data":{"email":"a@b.c"}}}`)

	_, err = g.ParseEvent(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, ErrInvalidSignature)

	h := http.Header{}
	h.Set(PaddleSignatureHeader, "ts=1;h1=deadbeef")
	_, err = g.ParseEvent(context.Background(), payload, h)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPaddleGateway_CheckoutRequiresPrice(t *testing.T) {
	g, err := NewPaddleGateway(PaddleConfig{APIKey: "k", WebhookSecret: "s"})
	require.NoError(t, err)

	_, err = g.CreateCheckoutSession(context.Background(), CheckoutRequest{Email: "a@b.c"})
	assert.ErrorIs(t, err, ErrCheckoutFailed)
}

func TestParsePaddleEvent(t *testing.T) {
	ev, err := parsePaddleEvent([]byte(`{"event_id":"evt_1","event_type":"transaction.completed","data":{"id":"txn_1","custom_data":{"email":"Payer@Example.com"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.True(t, ev.Completed)
	assert.Equal(t, "Payer@Example.com", ev.Email)

	ev, err = parsePaddleEvent([]byte(`{"event_id":"evt_2","event_type":"subscription.updated","data":{}}`))
	require.NoError(t, err)
	assert.False(t, ev.Completed)
	assert.Empty(t, ev.Email)

	_, err = parsePaddleEvent([]byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

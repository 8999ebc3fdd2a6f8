package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"streamgate/billing"
	"streamgate/logging"
	"streamgate/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedEvent(id, email string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"type":"checkout.session.completed","data":{"object":{"customer_details":{"email":%q}}}}`, id, email))
}

func signed(payload []byte) http.Header {
	h := http.Header{}
	h.Set(billing.DefaultSignatureHeader, billing.SignPayload(testWebhookSecret, payload, time.Now()))
	return h
}

func TestReconciler_CompletedTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "payer@example.com", "password123")
	require.NoError(t, err)

	payload := completedEvent("evt_1", "PAYER@example.com")
	for i := 0; i < 2; i++ {
		ack, err := f.reconciler.Handle(ctx, payload, signed(payload))
		require.NoError(t, err)
		assert.True(t, ack.Scheduled)
	}
	f.reconciler.Wait()

	ok, err := f.users.IsSubscribed(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReconciler_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "burst@example.com", "password123")
	require.NoError(t, err)

	payload := completedEvent("evt_9", "burst@example.com")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reconciler.Handle(ctx, payload, signed(payload))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	f.reconciler.Wait()

	ok, err := f.users.IsSubscribed(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReconciler_InvalidSignatureNeverMutates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "victim@example.com", "password123")
	require.NoError(t, err)

	payload := completedEvent("evt_2", "victim@example.com")
	bad := http.Header{}
	bad.Set(billing.DefaultSignatureHeader, billing.SignPayload("not-the-secret", payload, time.Now()))

	ack, err := f.reconciler.Handle(ctx, payload, bad)
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	assert.Nil(t, ack)

	_, err = f.reconciler.Handle(ctx, payload, http.Header{})
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	f.reconciler.Wait()

	ok, err := f.users.IsSubscribed(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReconciler_IgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "other@example.com", "password123")
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_3","type":"checkout.session.expired","data":{"object":{"customer_email":"other@example.com"}}}`)
	ack, err := f.reconciler.Handle(ctx, payload, signed(payload))
	require.NoError(t, err)
	assert.False(t, ack.Scheduled)
	assert.Equal(t, "checkout.session.expired", ack.EventType)
	f.reconciler.Wait()

	ok, err := f.users.IsSubscribed(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReconciler_MissingEmailAcknowledged(t *testing.T) {
	f := newFixture(t)

	payload := []byte(`{"id":"evt_4","type":"checkout.session.completed","data":{"object":{}}}`)
	ack, err := f.reconciler.Handle(context.Background(), payload, signed(payload))
	require.NoError(t, err)
	assert.False(t, ack.Scheduled)
}

func TestReconciler_UnknownEmailCreatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.reconciler.Resolve(ctx, "Stranger@example.com")
	require.NoError(t, err)
	assert.Equal(t, Unresolved, res.Kind)
	assert.Empty(t, res.PrincipalID)
	assert.Equal(t, "stranger@example.com", res.Email)

	_, err = f.users.GetByEmail(ctx, "stranger@example.com")
	assert.Error(t, err)
}

func TestReconciler_ResolveKnownEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "known@example.com", "password123")
	require.NoError(t, err)

	res, err := f.reconciler.Resolve(ctx, "known@example.com")
	require.NoError(t, err)
	assert.Equal(t, Resolved, res.Kind)
	assert.Equal(t, reg.User.ID, res.PrincipalID)
}

func TestReconciler_PersistenceFailureAlertsOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, "late@example.com", "password123")
	require.NoError(t, err)

	f.users.failMarkSubscribed = true
	payload := completedEvent("evt_5", "late@example.com")
	ack, err := f.reconciler.Handle(ctx, payload, signed(payload))
	require.NoError(t, err)
	assert.True(t, ack.Scheduled)
	f.reconciler.Wait()

	require.Len(t, f.alerter.events, 1)
	assert.Equal(t, "evt_5", f.alerter.events[0].ID)

	ok, err := f.users.IsSubscribed(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReconciler_CancelledRequestStillReconciles(t *testing.T) {
	f := newFixture(t)

	reg, err := f.auth.Register(context.Background(), "quick@example.com", "password123")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	payload := completedEvent("evt_6", "quick@example.com")
	_, err = f.reconciler.Handle(ctx, payload, signed(payload))
	require.NoError(t, err)
	cancel()
	f.reconciler.Wait()

	ok, err := f.users.IsSubscribed(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

// stalledUsers holds subscription updates until the caller's deadline passes.
type stalledUsers struct {
	*store.MemoryUsers
}

func (s stalledUsers) MarkSubscribedByEmail(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", fmt.Errorf("%w: %w", store.ErrUnavailable, ctx.Err())
}

func TestReconciler_StoreTimeoutStillAlertsSlack(t *testing.T) {
	f := newFixture(t)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := logging.Discard()
	r := NewReconciler(f.gateway, stalledUsers{store.NewMemoryUsers()},
		NewSlackAlerter(srv.URL, logger), 50*time.Millisecond, logger)

	payload := completedEvent("evt_10", "slow@example.com")
	ack, err := r.Handle(context.Background(), payload, signed(payload))
	require.NoError(t, err)
	assert.True(t, ack.Scheduled)
	r.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestReconciler_UndecodableAuthenticPayloadAcknowledged(t *testing.T) {
	f := newFixture(t)

	payload := []byte(`["not","an","event"]`)
	ack, err := f.reconciler.Handle(context.Background(), payload, signed(payload))
	require.NoError(t, err)
	assert.False(t, ack.Scheduled)
	f.reconciler.Wait()
	assert.Empty(t, f.alerter.events)

	_, err = f.reconciler.Handle(context.Background(), payload, http.Header{})
	assert.ErrorIs(t, err, billing.ErrInvalidSignature)
}

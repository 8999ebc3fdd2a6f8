package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"streamgate/auth"
	"streamgate/billing"
	"streamgate/logging"
	"streamgate/mail"
	"streamgate/store"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testJWTSecret     = "test-jwt-secret"
	testWebhookSecret = "whsec_test"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

// flakyUsers fails selected operations with err.
type flakyUsers struct {
	*store.MemoryUsers
	failUpdatePassword bool
	failMarkSubscribed bool
	err                error
}

func (f *flakyUsers) UpdatePassword(ctx context.Context, id, hash string) error {
	if f.failUpdatePassword {
		return f.err
	}
	return f.MemoryUsers.UpdatePassword(ctx, id, hash)
}

func (f *flakyUsers) MarkSubscribedByEmail(ctx context.Context, email string) (string, error) {
	if f.failMarkSubscribed {
		return "", f.err
	}
	return f.MemoryUsers.MarkSubscribedByEmail(ctx, email)
}

type recordingAlerter struct {
	mu     sync.Mutex
	events []billing.Event
}

func (a *recordingAlerter) ManualReconciliation(_ context.Context, ev billing.Event, _ error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
}

type fixture struct {
	clock    *clock
	users    *flakyUsers
	consumed *store.MemoryConsumedTokens
	hasher   *auth.Hasher
	codec    *auth.TokenCodec
	mailer   *fakeMailer
	alerter  *recordingAlerter
	gateway  *billing.HMACGateway

	auth       *AuthService
	reset      *ResetService
	reconciler *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	c := &clock{t: time.Now().Truncate(time.Second)}
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	codec, err := auth.NewTokenCodec(testJWTSecret, auth.WithClock(c.now))
	require.NoError(t, err)
	gateway, err := billing.NewHMACGateway(billing.HMACConfig{Secret: testWebhookSecret, Tolerance: 5 * time.Minute})
	require.NoError(t, err)

	f := &fixture{
		clock:    c,
		users:    &flakyUsers{MemoryUsers: store.NewMemoryUsers(), err: errors.New("connection reset")},
		consumed: store.NewMemoryConsumedTokens(),
		hasher:   hasher,
		codec:    codec,
		mailer:   &fakeMailer{},
		alerter:  &recordingAlerter{},
		gateway:  gateway,
	}
	logger := logging.Discard()

	f.auth = NewAuthService(f.users, hasher, codec, AuthConfig{SessionTTL: 24 * time.Hour, MinPasswordLength: 8}, logger)
	f.reset = NewResetService(f.users, f.consumed, hasher, codec, f.mailer, ResetConfig{
		TTL:               15 * time.Minute,
		FrontendURL:       "http://frontend.test/",
		MinPasswordLength: 8,
		MailTimeout:       time.Second,
	}, logger)
	f.reconciler = NewReconciler(gateway, f.users, f.alerter, time.Second, logger)
	return f
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"streamgate/billing"
	"streamgate/store"
)

// alertTimeout bounds the ops notification sent after a failed update.
const alertTimeout = 10 * time.Second

type ResolutionKind int

const (
	Unresolved ResolutionKind = iota
	Resolved
)

// Resolution is the outcome of matching a payment to a principal.
// PrincipalID is set only when Kind is Resolved.
type Resolution struct {
	Kind        ResolutionKind
	PrincipalID string
	Email       string
}

// Ack describes how a verified notification was handled. Scheduled is true
// when a subscription update was started.
type Ack struct {
	EventID   string
	EventType string
	Scheduled bool
}

// Reconciler projects gateway checkout-completion events onto the
// subscription flag. Verification and filtering happen inline; the store
// update runs in the background so the gateway is acknowledged promptly.
type Reconciler struct {
	gateway billing.Gateway
	users   store.UserStore
	alerter OpsAlerter
	timeout time.Duration
	logger  *slog.Logger

	wg sync.WaitGroup
}

func NewReconciler(gateway billing.Gateway, users store.UserStore, alerter OpsAlerter, timeout time.Duration, logger *slog.Logger) *Reconciler {
	return &Reconciler{gateway: gateway, users: users, alerter: alerter, timeout: timeout, logger: logger}
}

// Handle authenticates payload and schedules the subscription update for
// completion events. It returns billing.ErrInvalidSignature without touching
// the store. An authentic payload that cannot be decoded is acknowledged so
// the gateway stops redelivering it.
func (r *Reconciler) Handle(ctx context.Context, payload []byte, header http.Header) (*Ack, error) {
	ev, err := r.gateway.ParseEvent(ctx, payload, header)
	if errors.Is(err, billing.ErrInvalidPayload) {
		r.logger.WarnContext(ctx, "undecodable webhook acknowledged",
			slog.Int("bytes", len(payload)),
			slog.Bool("manual_reconciliation", true),
			slog.String("error", err.Error()),
		)
		return &Ack{}, nil
	}
	if err != nil {
		r.logger.WarnContext(ctx, "webhook rejected", slog.String("error", err.Error()))
		return nil, err
	}

	ack := &Ack{EventID: ev.ID, EventType: ev.Type}
	if !ev.Completed {
		r.logger.DebugContext(ctx, "webhook ignored", slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))
		return ack, nil
	}
	if ev.Email == "" {
		r.logger.WarnContext(ctx, "completed checkout without email",
			slog.String("event_id", ev.ID),
			slog.Bool("manual_reconciliation", true),
		)
		return ack, nil
	}

	ack.Scheduled = true
	r.wg.Add(1)
	go func(ctx context.Context, ev billing.Event) {
		defer r.wg.Done()
		r.reconcile(ctx, ev)
	}(context.WithoutCancel(ctx), *ev)
	return ack, nil
}

// Wait blocks until every scheduled update has finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) reconcile(base context.Context, ev billing.Event) {
	ctx, cancel := context.WithTimeout(base, r.timeout)
	defer cancel()

	res, err := r.Resolve(ctx, ev.Email)
	if err != nil {
		r.logger.ErrorContext(ctx, "subscription update failed",
			slog.String("event_id", ev.ID),
			slog.String("email", ev.Email),
			slog.Bool("manual_reconciliation", true),
			slog.String("error", err.Error()),
		)
		if r.alerter != nil {
			// The update may have failed on ctx's own deadline.
			alertCtx, cancelAlert := context.WithTimeout(base, alertTimeout)
			r.alerter.ManualReconciliation(alertCtx, ev, err)
			cancelAlert()
		}
		return
	}

	switch res.Kind {
	case Resolved:
		r.logger.InfoContext(ctx, "subscription activated",
			slog.String("event_id", ev.ID),
			slog.String("user_id", res.PrincipalID),
		)
	case Unresolved:
		r.logger.WarnContext(ctx, "payment for unknown email",
			slog.String("event_id", ev.ID),
			slog.String("email", ev.Email),
		)
	}
}

// Resolve marks the principal owning email as subscribed. An email with no
// principal is Unresolved; no account is created for it.
func (r *Reconciler) Resolve(ctx context.Context, email string) (Resolution, error) {
	email = store.NormalizeEmail(email)
	id, err := r.users.MarkSubscribedByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Resolution{Kind: Unresolved, Email: email}, nil
		}
		return Resolution{}, err
	}
	return Resolution{Kind: Resolved, PrincipalID: id, Email: email}, nil
}

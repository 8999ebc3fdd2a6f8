// Package billing talks to the external payment gateway: it opens hosted
// checkout sessions and authenticates and decodes webhook notifications.
package billing

import (
	"context"
	"net/http"

	"streamgate/apperr"
)

var (
	ErrInvalidSignature = apperr.New(apperr.KindIntegrity, "invalid signature")
	ErrInvalidPayload   = apperr.New(apperr.KindValidation, "invalid webhook payload")
	ErrCheckoutFailed   = apperr.New(apperr.KindExternal, "payment provider error")
)

type CheckoutRequest struct {
	Email      string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// Event is a verified gateway notification reduced to what reconciliation
// needs. Completed marks checkout-completion events; Email is the payer's
// address as reported by the gateway and may be empty.
type Event struct {
	ID        string
	Type      string
	Completed bool
	Email     string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ParseEvent authenticates payload against the signature carried in
	// header. A bad signature returns ErrInvalidSignature; an authentic
	// payload that does not decode returns ErrInvalidPayload.
	ParseEvent(ctx context.Context, payload []byte, header http.Header) (*Event, error)
}

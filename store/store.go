// Package store persists principals, catalog titles and consumed reset tokens.
// Postgres implementations back production; the in-memory ones back tests and
// local development without DATABASE_URL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"streamgate/apperr"
	"streamgate/models"

	"github.com/lib/pq"
)

var (
	ErrNotFound       = apperr.New(apperr.KindNotFound, "not found")
	ErrDuplicateEmail = apperr.New(apperr.KindConflict, "email already in use")
	ErrUnavailable    = apperr.New(apperr.KindUnavailable, "service unavailable")
)

type UserStore interface {
	// Create inserts u and fills its generated fields. A case-insensitive
	// email collision returns ErrDuplicateEmail and leaves the store unchanged.
	Create(ctx context.Context, u *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateFullName(ctx context.Context, id string, fullName *string) (*models.User, error)
	// MarkSubscribedByEmail sets is_subscribed and returns the principal id.
	// Repeating it is a no-op.
	MarkSubscribedByEmail(ctx context.Context, email string) (string, error)
	IsSubscribed(ctx context.Context, id string) (bool, error)
	Ping(ctx context.Context) error
}

type MovieStore interface {
	List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error)
	Get(ctx context.Context, id string) (*models.Movie, error)
	Create(ctx context.Context, m *models.Movie) (*models.Movie, error)
	Update(ctx context.Context, m *models.Movie) (*models.Movie, error)
	Delete(ctx context.Context, id string) error
}

// ConsumedTokens records redeemed single-use token ids until they expire.
type ConsumedTokens interface {
	// Consume marks id as used until the given time. It reports false when
	// id was already consumed.
	Consume(ctx context.Context, id string, until time.Time) (bool, error)
	// Release undoes Consume so a failed redemption can be retried.
	Release(ctx context.Context, id string) error
}

// NormalizeEmail trims and lower-cases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// dbError classifies err. Drivers report cancellation with their own errors,
// so an expired ctx is checked as well.
func dbError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apperr.Wrap(ErrUnavailable, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

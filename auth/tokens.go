package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AudienceSession = "session"
	AudienceReset   = "reset"

	PurposeReset = "reset"
)

var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrMissingSecret  = errors.New("token secret is empty")
)

// SessionClaims identify a principal. Subscription state is deliberately
// absent: it changes out of band and is re-read on every gated request.
type SessionClaims struct {
	jwt.RegisteredClaims
	PrincipalID string `json:"id"`
	Email       string `json:"email"`
	IsAdmin     bool   `json:"is_admin"`
}

// ResetClaims authorize exactly one password change for one principal.
type ResetClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"userId"`
	Purpose string `json:"purpose"`
}

// Claims is implemented by the claim sets the codec knows how to stamp.
type Claims interface {
	jwt.Claims
	registered() *jwt.RegisteredClaims
	audience() string
}

func (c *SessionClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *SessionClaims) audience() string                  { return AudienceSession }

func (c *ResetClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *ResetClaims) audience() string                  { return AudienceReset }

// TokenCodec issues and verifies HS256 tokens. Verification is stateless and
// does no I/O.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for iat/exp stamping and checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

func NewTokenCodec(secret string, opts ...CodecOption) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	c := &TokenCodec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue stamps iat, exp, jti and audience onto claims and signs them.
func (c *TokenCodec) Issue(claims Claims, ttl time.Duration) (string, error) {
	now := c.now()
	rc := claims.registered()
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	rc.Audience = jwt.ClaimStrings{claims.audience()}
	if rc.ID == "" {
		rc.ID = uuid.NewString()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString into claims. It returns ErrTokenExpired only for
// correctly signed tokens of the right audience whose exp has passed, and
// ErrTokenMalformed for everything else.
func (c *TokenCodec) Verify(tokenString string, claims Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(claims.audience()),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}
	if !token.Valid {
		return ErrTokenMalformed
	}
	return nil
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"streamgate/apperr"
	"streamgate/auth"
	"streamgate/models"
	"streamgate/store"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type principalCtxKey struct{}

var (
	ErrMissingToken    = apperr.New(apperr.KindAuthentication, "authentication required")
	ErrInvalidToken    = apperr.New(apperr.KindAuthentication, "invalid token")
	ErrTokenExpired    = apperr.New(apperr.KindAuthentication, "token expired")
	ErrPaymentRequired = apperr.New(apperr.KindPaymentRequired, "subscription required")
	ErrForbidden       = apperr.New(apperr.KindForbidden, "admin access required")
)

// Authenticate verifies the bearer token and attaches the principal to the
// gin context and the request context.
func Authenticate(codec *auth.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abort(c, ErrMissingToken)
			return
		}

		var claims auth.SessionClaims
		if err := codec.Verify(token, &claims); err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				abort(c, ErrTokenExpired)
				return
			}
			abort(c, ErrInvalidToken)
			return
		}
		if claims.PrincipalID == "" {
			abort(c, ErrInvalidToken)
			return
		}

		p := models.Principal{ID: claims.PrincipalID, Email: claims.Email, IsAdmin: claims.IsAdmin}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireSubscription re-reads the subscription flag of the principal on
// every request. Admins are not exempt.
func RequireSubscription(users store.UserStore, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			abort(c, ErrPaymentRequired)
			return
		}

		subscribed, err := users.IsSubscribed(c.Request.Context(), p.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			abort(c, ErrPaymentRequired)
			return
		case err != nil:
			logger.ErrorContext(c.Request.Context(), "subscription check failed",
				slog.String("user_id", p.ID),
				slog.String("error", err.Error()),
			)
			abort(c, err)
			return
		case !subscribed:
			abort(c, ErrPaymentRequired)
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok || !p.IsAdmin {
			abort(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// Principal returns the principal set by Authenticate.
func Principal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(models.Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return "", false
	}
	return token, true
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"streamgate/auth"
	"streamgate/mail"
	"streamgate/store"
)

type ResetConfig struct {
	TTL               time.Duration
	FrontendURL       string
	MinPasswordLength int
	MailTimeout       time.Duration
}

type ResetRequestResult struct {
	EmailSent bool
}

// ResetService runs the password reset flow: a short-lived single-use token
// is mailed to the principal and later exchanged for a new password.
type ResetService struct {
	users    store.UserStore
	consumed store.ConsumedTokens
	hasher   *auth.Hasher
	codec    *auth.TokenCodec
	mailer   mail.Sender
	cfg      ResetConfig
	logger   *slog.Logger

	wg sync.WaitGroup
}

func NewResetService(
	users store.UserStore,
	consumed store.ConsumedTokens,
	hasher *auth.Hasher,
	codec *auth.TokenCodec,
	mailer mail.Sender,
	cfg ResetConfig,
	logger *slog.Logger,
) *ResetService {
	return &ResetService{
		users:    users,
		consumed: consumed,
		hasher:   hasher,
		codec:    codec,
		mailer:   mailer,
		cfg:      cfg,
		logger:   logger,
	}
}

// RequestReset mails a reset link to email. A delivery failure is logged and
// reported through the result, never as an error.
func (s *ResetService) RequestReset(ctx context.Context, email string) (*ResetRequestResult, error) {
	user, err := s.users.GetByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	token, err := s.codec.Issue(&auth.ResetClaims{UserID: user.ID, Purpose: auth.PurposeReset}, s.cfg.TTL)
	if err != nil {
		return nil, err
	}
	link := strings.TrimRight(s.cfg.FrontendURL, "/") + "/reset-password/" + token

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.MailTimeout)
	defer cancel()
	if err := s.mailer.Send(sendCtx, resetEmail(user, link, s.cfg.TTL)); err != nil {
		s.logger.ErrorContext(ctx, "reset email not sent",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return &ResetRequestResult{EmailSent: false}, nil
	}

	s.logger.InfoContext(ctx, "reset email sent", slog.String("user_id", user.ID))
	return &ResetRequestResult{EmailSent: true}, nil
}

// RequestResetInBackground runs RequestReset on a tracked goroutine so the
// caller answers in the same time whether or not email has an account.
func (s *ResetService) RequestResetInBackground(ctx context.Context, email string) {
	s.wg.Add(1)
	go func(ctx context.Context) {
		defer s.wg.Done()
		if _, err := s.RequestReset(ctx, email); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				s.logger.DebugContext(ctx, "reset requested for unknown email")
				return
			}
			s.logger.ErrorContext(ctx, "reset request failed", slog.String("error", err.Error()))
		}
	}(context.WithoutCancel(ctx))
}

// Wait blocks until every background reset request has finished.
func (s *ResetService) Wait() {
	s.wg.Wait()
}

// RedeemReset replaces the password of the token's principal. Each token
// works once; a failed write releases it for another attempt.
func (s *ResetService) RedeemReset(ctx context.Context, token, newPassword string) error {
	var claims auth.ResetClaims
	if err := s.codec.Verify(token, &claims); err != nil {
		return ErrInvalidOrExpiredToken
	}
	if claims.Purpose != auth.PurposeReset || claims.UserID == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return ErrInvalidOrExpiredToken
	}
	if err := validatePassword(newPassword, s.cfg.MinPasswordLength); err != nil {
		return err
	}

	fresh, err := s.consumed.Consume(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		return err
	}
	if !fresh {
		s.logger.WarnContext(ctx, "reset token replayed", slog.String("user_id", claims.UserID))
		return ErrInvalidOrExpiredToken
	}

	if err := s.setPassword(ctx, claims.UserID, newPassword); err != nil {
		if relErr := s.consumed.Release(context.WithoutCancel(ctx), claims.ID); relErr != nil {
			s.logger.ErrorContext(ctx, "release reset token", slog.String("error", relErr.Error()))
		}
		return err
	}

	s.logger.InfoContext(ctx, "password reset", slog.String("user_id", claims.UserID))
	return nil
}

func (s *ResetService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return err
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"streamgate/apperr"
	"streamgate/auth"
	"streamgate/models"
	"streamgate/store"
)

const maxFullNameLength = 255

var (
	ErrInvalidCredentials    = apperr.New(apperr.KindAuthentication, "invalid credentials")
	ErrUserNotFound          = apperr.New(apperr.KindNotFound, "user not found")
	ErrInvalidOrExpiredToken = apperr.New(apperr.KindValidation, "invalid or expired token")
)

type AuthResult struct {
	User  *models.User
	Token string
}

type AuthConfig struct {
	SessionTTL        time.Duration
	MinPasswordLength int
}

type AuthService struct {
	users  store.UserStore
	hasher *auth.Hasher
	codec  *auth.TokenCodec
	cfg    AuthConfig
	logger *slog.Logger
}

func NewAuthService(users store.UserStore, hasher *auth.Hasher, codec *auth.TokenCodec, cfg AuthConfig, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, codec: codec, cfg: cfg, logger: logger}
}

// Register creates a principal with no privileges and returns a session for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password, s.cfg.MinPasswordLength); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, &models.User{Email: email, PasswordHash: hash})
	if err != nil {
		return nil, err
	}

	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// SignIn answers ErrInvalidCredentials for unknown emails and wrong passwords
// alike, and spends a bcrypt comparison in both cases.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, store.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user signed in", slog.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) GetProfile(ctx context.Context, principalID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile changes the display name only. An empty name clears it.
func (s *AuthService) UpdateProfile(ctx context.Context, principalID string, fullName string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	if utf8.RuneCountInString(fullName) > maxFullNameLength {
		return nil, apperr.Validation("full_name must be at most %d characters", maxFullNameLength)
	}

	var name *string
	if fullName != "" {
		name = &fullName
	}
	user, err := s.users.UpdateFullName(ctx, principalID, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueSession(user *models.User) (string, error) {
	return s.codec.Issue(&auth.SessionClaims{
		PrincipalID: user.ID,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
	}, s.cfg.SessionTTL)
}

func normalizeEmail(email string) (string, error) {
	email = store.NormalizeEmail(email)
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("invalid email address")
	}
	return email, nil
}

func validatePassword(password string, minLength int) error {
	switch {
	case password == "":
		return apperr.Validation("password is required")
	case len(password) < minLength:
		return apperr.Validation("password must be at least %d characters", minLength)
	case len(password) > auth.MaxPasswordLength:
		return apperr.Validation("password must be at most %d bytes", auth.MaxPasswordLength)
	}
	return nil
}

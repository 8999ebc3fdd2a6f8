package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is bcrypt's input limit; longer inputs are rejected
// instead of silently truncated.
const MaxPasswordLength = 72

var ErrPasswordMismatch = errors.New("password mismatch")

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
	// dummy is compared against when the principal does not exist, so a
	// failed sign-in costs the same whether or not the email is known.
	dummy []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("invalid bcrypt cost %d", cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("streamgate-dummy-password"), cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Compare returns ErrPasswordMismatch when password does not match hash.
func (h *Hasher) Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}

// CompareDummy burns one comparison's worth of CPU and always fails.
func (h *Hasher) CompareDummy(password string) error {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	return ErrPasswordMismatch
}

package models

import (
	"time"
)

// User is a principal in the credential store. PasswordHash never leaves the
// server: it has no JSON representation.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name"`
	IsAdmin      bool      `json:"is_admin"`
	IsSubscribed bool      `json:"is_subscribed"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the user view returned by signup, signin and /profile.
type Profile struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	IsAdmin  bool    `json:"is_admin"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, FullName: u.FullName, IsAdmin: u.IsAdmin}
}

// Principal is the authenticated identity attached to a request. It is a
// snapshot of the session token claims; entitlement is never part of it.
type Principal struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

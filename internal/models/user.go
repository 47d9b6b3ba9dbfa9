package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         *string
	Role         Role

	// Hash of the last issued refresh token
	// nil if user signed out or never signed in
	RefreshTokenHash *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Whether user has an active session (refresh token was issued and not revoked)
func (u User) SignedIn() bool {
	return u.RefreshTokenHash != nil
}

// Sanitize returns copy of the user without secrets, safe to be sent to the clients
func (u User) Sanitize() User {
	u.PasswordHash = ""
	u.RefreshTokenHash = nil
	return u
}

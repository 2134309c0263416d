package auth

import (
	"errors"
	"time"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var (
	// ErrInvalidCredentials covers unknown email, wrong password and
	// deactivated accounts alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrTokenNotFound indicates an expired or revoked bearer token.
	ErrTokenNotFound = errors.New("auth: token not found")
)

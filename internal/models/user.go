package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique, stored lowercase).
	// Used for login.
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}

// NewUser builds a user with a fresh ID and creation time.
func NewUser(email, name, passwordHash string) *User {
	return &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	}
}

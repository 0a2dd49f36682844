package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrEmailExists        = errors.New("email already registered")
)

// UserStorage defines the interface for user persistence operations.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		cost:    bcrypt.DefaultCost,
	}
}

// WithCost returns a copy of the authenticator hashing with the given bcrypt cost.
// Tests use bcrypt.MinCost to keep registration fast.
func (a *PasswordAuthenticator) WithCost(cost int) *PasswordAuthenticator {
	out := *a
	out.cost = cost
	return &out
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user account with a hashed password.
// Emails are compared case-insensitively.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, name, credential string) (*models.User, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	_, err := a.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, strings.TrimSpace(name), string(hashedPassword))

	// A concurrent registration can still win the race to the unique index.
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "email", email)
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "id", id)
}

// getUser looks a user up by one of its unique columns.
// column is always a constant supplied by this package.
func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM users
		WHERE ` + column + ` = ?
	`

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", value, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return user, nil
}

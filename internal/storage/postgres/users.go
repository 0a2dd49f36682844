package postgres

import (
	"context"
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail looks up a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`, email)
}

// GetUserByID looks up a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, query, key string) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, query, key).Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("user %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/settleup/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when a record does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned (wrapped) when a unique constraint is violated.
	ErrConflict = errors.New("already exists")
)

// Store defines the interface for user, group and expense storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// in-memory guest sessions) without changing the service layer.
type Store interface {
	// CreateUser persists a new user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns ErrNotFound if missing.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if missing.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group.
	// The group.ID, member IDs and CreatedAt fields are populated by the store.
	// Member order is preserved.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members in creation order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsByCreator returns the groups created by creatorID, newest first.
	ListGroupsByCreator(ctx context.Context, creatorID string) ([]*models.Group, error)

	// DeleteGroup removes a group owned by creatorID together with its expenses.
	// Returns ErrNotFound if no such group belongs to creatorID.
	DeleteGroup(ctx context.Context, groupID, creatorID string) error

	// CreateExpense persists a new expense.
	// The expense.ID and CreatedAt fields are populated by the store.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its payments.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns the group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// SetExpenseSettled updates the expense's settled flag.
	SetExpenseSettled(ctx context.Context, expenseID string, settled bool) error

	// DeleteExpense removes an expense and its payments.
	DeleteExpense(ctx context.Context, expenseID string) error

	// Close releases any resources held by the store.
	Close() error
}

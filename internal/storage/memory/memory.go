// Package memory provides an in-process implementation of storage.Store.
// Guest sessions keep their groups and expenses here; nothing is persisted.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps users, groups and expenses in maps guarded by a mutex.
// Every read returns a copy, so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	users    map[string]*models.User
	groups   map[string]*entry[models.Group]
	expenses map[string]*entry[models.Expense]
}

// entry remembers insertion order so listings are stable within one second.
type entry[T any] struct {
	seq   int64
	value T
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		groups:   make(map[string]*entry[models.Group]),
		expenses: make(map[string]*entry[models.Expense]),
	}
}

// Close is a no-op; it exists to satisfy storage.Store.
func (s *Store) Close() error {
	return nil
}

// CreateUser stores a new user.
func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, storage.ErrConflict)
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, storage.ErrConflict)
		}
	}

	u := *user
	s.users[u.ID] = &u
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	out := *u
	return &out, nil
}

// CreateGroup stores a new group, assigning IDs to the group and its members.
func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if _, ok := s.groups[group.ID]; ok {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrConflict)
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Currency == "" {
		group.Currency = models.DefaultCurrency
	}
	for i := range group.Members {
		if group.Members[i].ID == "" {
			group.Members[i].ID = uuid.New().String()
		}
	}

	s.seq++
	s.groups[group.ID] = &entry[models.Group]{seq: s.seq, value: copyGroup(group)}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	out := copyGroup(&e.value)
	return &out, nil
}

// ListGroupsByCreator returns the creator's groups, newest first.
func (s *Store) ListGroupsByCreator(_ context.Context, creatorID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []*entry[models.Group]
	for _, e := range s.groups {
		if e.value.CreatorID == creatorID {
			found = append(found, e)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return newer(found[i].value.CreatedAt, found[i].seq, found[j].value.CreatedAt, found[j].seq)
	})

	groups := make([]*models.Group, len(found))
	for i, e := range found {
		g := copyGroup(&e.value)
		groups[i] = &g
	}
	return groups, nil
}

// DeleteGroup removes a group owned by creatorID and all of its expenses.
func (s *Store) DeleteGroup(_ context.Context, groupID, creatorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.groups[groupID]
	if !ok || e.value.CreatorID != creatorID {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	delete(s.groups, groupID)
	for id, exp := range s.expenses {
		if exp.value.GroupID == groupID {
			delete(s.expenses, id)
		}
	}
	return nil
}

// CreateExpense stores a new expense for an existing group.
func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[expense.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if _, ok := s.expenses[expense.ID]; ok {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrConflict)
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	s.seq++
	s.expenses[expense.ID] = &entry[models.Expense]{seq: s.seq, value: copyExpense(expense)}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	out := copyExpense(&e.value)
	return &out, nil
}

// ListExpensesByGroup returns the group's expenses, newest first.
func (s *Store) ListExpensesByGroup(_ context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []*entry[models.Expense]
	for _, e := range s.expenses {
		if e.value.GroupID == groupID {
			found = append(found, e)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		return newer(found[i].value.CreatedAt, found[i].seq, found[j].value.CreatedAt, found[j].seq)
	})

	expenses := make([]*models.Expense, len(found))
	for i, e := range found {
		exp := copyExpense(&e.value)
		expenses[i] = &exp
	}
	return expenses, nil
}

// SetExpenseSettled updates the settled flag of an expense.
func (s *Store) SetExpenseSettled(_ context.Context, expenseID string, settled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expenseID]
	if !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	e.value.Settled = settled
	return nil
}

// DeleteExpense removes an expense by ID.
func (s *Store) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expenseID]; !ok {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	delete(s.expenses, expenseID)
	return nil
}

func newer(createdA, seqA, createdB, seqB int64) bool {
	if createdA != createdB {
		return createdA > createdB
	}
	return seqA > seqB
}

func copyGroup(g *models.Group) models.Group {
	out := *g
	out.Members = slices.Clone(g.Members)
	return out
}

func copyExpense(e *models.Expense) models.Expense {
	out := *e
	out.Payments = slices.Clone(e.Payments)
	return out
}

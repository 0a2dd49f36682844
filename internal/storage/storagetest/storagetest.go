// Package storagetest holds a conformance suite shared by every storage.Store implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Run exercises store against the behavior every backend must share.
// The store should be empty when Run starts.
func Run(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("CreateUser and lookups", func(t *testing.T) {
		user := models.NewUser("alice@example.com", "Alice", "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != user.ID || byEmail.Name != "Alice" || byEmail.PasswordHash != "hash" {
			t.Errorf("GetUserByEmail returned %+v, want %+v", byEmail, user)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID.Email != user.Email || byID.CreatedAt != user.CreatedAt {
			t.Errorf("GetUserByID returned %+v, want %+v", byID, user)
		}
	})

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		user := models.NewUser("dup@example.com", "Dup", "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		err := store.CreateUser(ctx, models.NewUser("dup@example.com", "Dup Again", "hash"))
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("missing user is ErrNotFound", func(t *testing.T) {
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByEmail: expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetUserByID(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("GetUserByID: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateGroup assigns IDs and keeps member order", func(t *testing.T) {
		group := newGroup("creator-1", "Roommates", "Zoe", "Adam", "Mia")
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("expected CreatedAt to be set")
		}
		if group.Currency != models.DefaultCurrency {
			t.Errorf("currency: expected %q, got %q", models.DefaultCurrency, group.Currency)
		}
		for i, m := range group.Members {
			if m.ID == "" {
				t.Errorf("member %d has no ID", i)
			}
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Roommates" || got.CreatorID != "creator-1" {
			t.Errorf("GetGroup returned %+v", got)
		}
		if len(got.Members) != 3 {
			t.Fatalf("members: expected 3, got %d", len(got.Members))
		}
		for i, want := range group.Members {
			if got.Members[i] != want {
				t.Errorf("member %d: got %+v, want %+v", i, got.Members[i], want)
			}
		}
	})

	t.Run("missing group is ErrNotFound", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListGroupsByCreator returns newest first", func(t *testing.T) {
		older := newGroup("creator-2", "Older", "A", "B")
		older.CreatedAt = 1000
		newer := newGroup("creator-2", "Newer", "C", "D")
		newer.CreatedAt = 2000
		other := newGroup("someone-else", "Other", "E")
		for _, g := range []*models.Group{older, newer, other} {
			if err := store.CreateGroup(ctx, g); err != nil {
				t.Fatalf("CreateGroup failed: %v", err)
			}
		}

		groups, err := store.ListGroupsByCreator(ctx, "creator-2")
		if err != nil {
			t.Fatalf("ListGroupsByCreator failed: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(groups))
		}
		if groups[0].Name != "Newer" || groups[1].Name != "Older" {
			t.Errorf("unexpected order: %s, %s", groups[0].Name, groups[1].Name)
		}
		if len(groups[0].Members) != 2 {
			t.Errorf("expected members to be loaded, got %d", len(groups[0].Members))
		}

		none, err := store.ListGroupsByCreator(ctx, "nobody")
		if err != nil {
			t.Fatalf("ListGroupsByCreator failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no groups, got %d", len(none))
		}
	})

	t.Run("expenses round-trip exactly", func(t *testing.T) {
		group := newGroup("creator-3", "Trip", "A", "B", "C")
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		expense := &models.Expense{
			GroupID: group.ID,
			Title:   "Dinner",
			Amount:  decimal.RequireFromString("100.10"),
			Payments: []models.Payment{
				{MemberID: group.Members[1].ID, Amount: decimal.RequireFromString("60.05")},
				{MemberID: group.Members[0].ID, Amount: decimal.RequireFromString("40.05")},
			},
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == "" || expense.CreatedAt == 0 {
			t.Errorf("expected ID and CreatedAt to be set, got %+v", expense)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Title != "Dinner" || got.GroupID != group.ID || got.Settled {
			t.Errorf("GetExpense returned %+v", got)
		}
		if !got.Amount.Equal(expense.Amount) {
			t.Errorf("amount: got %s, want %s", got.Amount, expense.Amount)
		}
		if len(got.Payments) != 2 {
			t.Fatalf("payments: expected 2, got %d", len(got.Payments))
		}
		for i, p := range expense.Payments {
			if got.Payments[i].MemberID != p.MemberID || !got.Payments[i].Amount.Equal(p.Amount) {
				t.Errorf("payment %d: got %+v, want %+v", i, got.Payments[i], p)
			}
		}
	})

	t.Run("CreateExpense for missing group is ErrNotFound", func(t *testing.T) {
		err := store.CreateExpense(ctx, &models.Expense{GroupID: "nonexistent-id", Title: "x", Amount: decimal.NewFromInt(1)})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListExpensesByGroup, settle and delete", func(t *testing.T) {
		group := newGroup("creator-4", "Flat", "A", "B")
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		first := newExpense(group, "Rent", "500", 1000)
		second := newExpense(group, "Power", "80", 2000)
		for _, e := range []*models.Expense{first, second} {
			if err := store.CreateExpense(ctx, e); err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}
		}

		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 2 || expenses[0].Title != "Power" || expenses[1].Title != "Rent" {
			t.Fatalf("unexpected expenses: %+v", expenses)
		}
		if len(expenses[1].Payments) != 1 {
			t.Errorf("expected payments to be loaded, got %d", len(expenses[1].Payments))
		}

		if err := store.SetExpenseSettled(ctx, first.ID, true); err != nil {
			t.Fatalf("SetExpenseSettled failed: %v", err)
		}
		got, err := store.GetExpense(ctx, first.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Settled {
			t.Error("expected expense to be settled")
		}

		if err := store.DeleteExpense(ctx, first.ID); err != nil {
			t.Fatalf("DeleteExpense failed: %v", err)
		}
		if _, err := store.GetExpense(ctx, first.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteExpense(ctx, first.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second delete: expected ErrNotFound, got %v", err)
		}
		if err := store.SetExpenseSettled(ctx, first.ID, false); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("settle deleted: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteGroup checks creator and cascades", func(t *testing.T) {
		group := newGroup("creator-5", "Doomed", "A", "B")
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
		expense := newExpense(group, "Snacks", "12.50", 0)
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		if err := store.DeleteGroup(ctx, group.ID, "intruder"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("delete by non-creator: expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); err != nil {
			t.Fatalf("group should survive a rejected delete: %v", err)
		}

		if err := store.DeleteGroup(ctx, group.ID, "creator-5"); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected expense to be deleted with its group, got %v", err)
		}
	})
}

func newGroup(creatorID, name string, members ...string) *models.Group {
	group := &models.Group{Name: name, CreatorID: creatorID}
	for _, m := range members {
		group.Members = append(group.Members, models.Member{Name: m})
	}
	return group
}

func newExpense(group *models.Group, title, amount string, createdAt int64) *models.Expense {
	d := decimal.RequireFromString(amount)
	return &models.Expense{
		GroupID:   group.ID,
		Title:     title,
		Amount:    d,
		Payments:  []models.Payment{{MemberID: group.Members[0].ID, Amount: d}},
		CreatedAt: createdAt,
	}
}

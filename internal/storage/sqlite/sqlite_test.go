package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, newTestStore(t))
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "settleup.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	group := &models.Group{Name: "Persistent", CreatorID: "c", Members: []models.Member{{Name: "A"}, {Name: "B"}}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	expense := &models.Expense{
		GroupID:  group.ID,
		Title:    "Tickets",
		Amount:   decimal.RequireFromString("0.10"),
		Payments: []models.Payment{{MemberID: group.Members[0].ID, Amount: decimal.RequireFromString("0.10")}},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	store.Close()

	// Migrations must be idempotent and data must survive.
	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Amount.String() != "0.1" {
		t.Errorf("amount: got %s, want 0.1", got.Amount)
	}
}

func TestRepeatPlaceholder(t *testing.T) {
	tests := map[int]string{-1: "", 0: "", 1: ", ?", 3: ", ?, ?, ?"}
	for n, want := range tests {
		if got := repeatPlaceholder(n); got != want {
			t.Errorf("repeatPlaceholder(%d) = %q, want %q", n, got, want)
		}
	}
}

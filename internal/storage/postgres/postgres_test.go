package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/mmynk/settleup/internal/storage/storagetest"
)

// TestPostgresStore runs the conformance suite against a live database.
// The database should be empty; every table is truncated first.
func TestPostgresStore(t *testing.T) {
	dbURL := os.Getenv("SETTLEUP_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("set SETTLEUP_TEST_DATABASE_URL to run this integration test")
	}

	ctx := context.Background()
	store, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	if _, err := store.pool.Exec(ctx, `TRUNCATE users, groups, group_members, expenses, payments`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	storagetest.Run(t, store)
}

// Package testutil provides shared test fixtures for sheetsync packages.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/sheetsync/internal/storage"
)

// TestUserID is the user seeded into every test database.
const TestUserID = "user-test"

// TestDB represents a test database with a seeded user.
type TestDB struct {
	Storage *storage.SQLiteStorage
	UserID  string
	t       *testing.T
}

// SetupTestDB creates a migrated SQLite database in a temp directory with
// TestUserID seeded. It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "sheetsync.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	if _, err := store.GetOrCreateUser(ctx, TestUserID, "test@example.com", "Test User"); err != nil {
		_ = store.Close()
		t.Fatalf("failed to seed user: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		UserID:  TestUserID,
		t:       t,
	}
}

// AddUser seeds another user and returns its id.
func (db *TestDB) AddUser(id string) string {
	db.t.Helper()
	if _, err := db.Storage.GetOrCreateUser(context.Background(), id, id+"@example.com", id); err != nil {
		db.t.Fatalf("failed to seed user %q: %v", id, err)
	}
	return id
}

package database

import (
	"path/filepath"
	"testing"
)

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test_integration.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	tables := []string{"users", "sessions", "chapter_scores", "migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running migrations again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 recorded migration, got %d", count)
	}
}

// TestWithinTx tests commit and rollback through WithinTx
func TestWithinTx(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test_transactions.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	err = db.WithinTx(func(tx *Tx) error {
		_, err := tx.ExecReturningID("INSERT INTO users (identity, password_hash) VALUES (?, ?)", "committed", "")
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx() commit error = %v", err)
	}

	err = db.WithinTx(func(tx *Tx) error {
		if _, err := tx.Exec("INSERT INTO users (identity, password_hash) VALUES (?, ?)", "rolled-back", ""); err != nil {
			return err
		}
		// Duplicate identity violates the unique constraint and aborts the transaction
		_, err := tx.Exec("INSERT INTO users (identity, password_hash) VALUES (?, ?)", "committed", "")
		return err
	})
	if err == nil {
		t.Fatal("expected unique constraint violation")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("Failed to count users: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 user after rollback, got %d", count)
	}
}

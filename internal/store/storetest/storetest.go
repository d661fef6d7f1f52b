// Package storetest provides migrated throwaway databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"classroll/internal/store"
)

// NewSQLite returns a migrated SQLite database living in t.TempDir().
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "classroll.db")
	if err := store.Migrate(store.DriverSQLite, path); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := store.NewDB(context.Background(), store.DriverSQLite, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db.Client
}

// SeedTeacher inserts a verified teacher row and returns its id.
func SeedTeacher(t testing.TB, db *sqlx.DB, id, email string) string {
	t.Helper()

	_, err := db.Exec(db.Rebind(`
		INSERT INTO teachers (id, name, email, password_hash, is_verified, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`), id, "Teacher "+email, email, "x", true)
	if err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	return id
}

// Count returns the number of rows in table matching the optional where clause.
func Count(t testing.TB, db *sqlx.DB, table, where string, args ...any) int {
	t.Helper()

	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.Get(&n, db.Rebind(q), args...); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

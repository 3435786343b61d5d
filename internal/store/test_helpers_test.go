package store

import (
	"context"
	"path/filepath"
	"testing"
)

const testDDL = `
CREATE TABLE spies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT,
	name TEXT,
	xp INTEGER
);
CREATE TABLE targets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	spy_id INTEGER REFERENCES spies(id),
	name TEXT
);
CREATE UNIQUE INDEX spies_username ON spies(username)
`

// createTestStore creates a migrated SQLite store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background(), []string{testDDL}); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return s
}

// insertSpy inserts a spy row and returns its key.
func insertSpy(t *testing.T, s *Store, username, name string, xp int) int64 {
	t.Helper()
	id, err := s.Insert(context.Background(), "spies", "id", map[string]any{
		"username": username,
		"name":     name,
		"xp":       xp,
	})
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	return id.(int64)
}

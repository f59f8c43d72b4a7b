package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

const kvTableSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// CreateInMemoryDB creates an in-memory SQLite database with the kv table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// Every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(kvTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create kv table: %v", err)
	}

	return db
}

// CreateTestDB creates a test database with sample settings and session ids
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	rows := []struct {
		key   string
		value string
	}{
		{key: "settings:apiBase", value: `"http://localhost:9000"`},
		{key: "settings:autoExtract", value: `true`},
		{key: "agenticMemorySession", value: "claude-1700000000000-abcdefghi"},
		{key: "agenticMemorySession:gemini:gemini.google.com", value: "gemini-1700000000001-jklmnopqr"},
		{key: "agenticMemorySession:claude:claude.ai", value: "claude-1700000000002-stuvwxyz0"},
	}

	for _, row := range rows {
		InsertKV(t, db, row.key, row.value)
	}

	return db
}

// InsertKV inserts a single row into the kv table
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	if _, err := db.Exec("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)", key, value, 1700000000000); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}

package db

import (
	"path/filepath"
	"testing"
)

func TestInitDB_CreatesSchema(t *testing.T) {
	conn, err := InitDB(filepath.Join(t.TempDir(), "scheduler.db"))
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	defer func() { _ = conn.Close() }()

	for _, table := range []string{"documents", "schedule_events", "users"} {
		var name string
		if err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}

	// schema creation is idempotent
	if err := ensureSchema(conn); err != nil {
		t.Fatalf("ensureSchema again: %v", err)
	}
}

func TestInitDB_BadPath(t *testing.T) {
	if _, err := InitDB(filepath.Join(t.TempDir(), "missing", "dir", "scheduler.db")); err == nil {
		t.Fatalf("expected error for unreachable path")
	}
}

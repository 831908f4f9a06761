package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	if err != nil {
		t.Fatalf("tableExists query failed: %v", err)
	}
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "cashtrack.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("InitDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if !tableExists(t, db, "goose_db_version") {
		t.Fatalf("expected goose_db_version table to exist")
	}
	if !tableExists(t, db, "metadata") {
		t.Fatalf("expected metadata table to exist")
	}
}

func TestInitDatabase_Reopen_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "cashtrack.db")

	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("first InitDatabase error: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO metadata(key, value) VALUES ('access_token', 'x')`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	_ = db.Close()

	db, err = InitDatabase(ctx, dsn)
	if err != nil {
		t.Fatalf("second InitDatabase error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var got string
	if err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'access_token'`).Scan(&got); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if got != "x" {
		t.Fatalf("unexpected value after reopen: %q", got)
	}
}

func TestInitDatabase_BadPath(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "missing", "dir", "cashtrack.db")
	if _, err := InitDatabase(context.Background(), dsn); err == nil {
		t.Fatalf("expected error for unreachable path")
	}
}

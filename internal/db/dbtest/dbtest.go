// Package dbtest provides SQLite-backed fixtures for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"agereport/internal/db"
)

// UsersDDL creates the users table with the column layout the loader writes.
// The CHECK constraint lets tests force an insert failure with a negative age.
const UsersDDL = `CREATE TABLE users (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT    NOT NULL,
	age             INTEGER NOT NULL CHECK (age >= 0),
	address         TEXT    NOT NULL,
	additional_info TEXT    NOT NULL
)`

// SQLite opens a file database under t.TempDir, runs ddl, and returns a
// pool over it plus the file path. The pool is closed on cleanup.
func SQLite(t *testing.T, ddl ...string) (db.Pool, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	for _, s := range ddl {
		if _, err := raw.Exec(s); err != nil {
			raw.Close()
			t.Fatalf("dbtest: exec %q: %v", s, err)
		}
	}
	raw.Close()

	p, err := db.Open(context.Background(), "sqlite", path)
	if err != nil {
		t.Fatalf("dbtest: db.Open: %v", err)
	}
	t.Cleanup(p.Close)
	return p, path
}

// Query runs q against the file at path on a fresh handle. Call it only while
// no unit of work is held on the pool.
func Query(t *testing.T, path, q string, args ...any) [][]string {
	t.Helper()
	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("dbtest: open: %v", err)
	}
	defer raw.Close()
	rows, err := raw.Query(q, args...)
	if err != nil {
		t.Fatalf("dbtest: query %q: %v", q, err)
	}
	defer rows.Close()
	cols, _ := rows.Columns()
	var out [][]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			t.Fatalf("dbtest: scan: %v", err)
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = v.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("dbtest: rows: %v", err)
	}
	return out
}

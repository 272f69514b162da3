package store

import (
	"database/sql"
	"testing"

	"github.com/hollyoak/housepoints/internal/database"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedMember(t *testing.T, db *sql.DB, name string, isAdmin bool) int64 {
	t.Helper()
	m, err := NewMemberStore(db).Create(name, "", isAdmin)
	if err != nil {
		t.Fatalf("seed member %s: %v", name, err)
	}
	return m.ID
}

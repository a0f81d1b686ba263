// ABOUTME: Shared helpers for MCP handler tests
// ABOUTME: Opens an in-memory database with the portal schema applied
package handlers

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harperreed/portal/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test db: %v", err)
	}
	database.SetMaxOpenConns(1)
	if err := db.InitSchema(database); err != nil {
		t.Fatalf("Failed to init schema: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"videosplit/internal/app/repository/sqlite"
)

// SetupTestSQLite creates a throwaway SQLite database with the full schema.
// The file is removed when the test completes.
func SetupTestSQLite(t *testing.T) *sqlite.SQLiteDB {
	t.Helper()

	testDBPath := filepath.Join(os.TempDir(), fmt.Sprintf("videosplit_test_%d.sqlite", time.Now().UnixNano()))

	db, err := sql.Open("sqlite3", testDBPath)
	if err != nil {
		t.Fatalf("Failed to create SQLite test database: %v", err)
	}

	sdb, err := sqlite.NewSQLiteDBFromConn(db)
	if err != nil {
		t.Fatalf("Failed to initialize test schema: %v", err)
	}

	t.Cleanup(func() {
		sdb.Close()
		os.Remove(testDBPath)
	})

	return sdb
}

// WithTestDB provides a fresh test database to a test function.
func WithTestDB(t *testing.T, testFunc func(t *testing.T, db *sqlite.SQLiteDB)) {
	t.Helper()

	db := SetupTestSQLite(t)
	testFunc(t, db)
}

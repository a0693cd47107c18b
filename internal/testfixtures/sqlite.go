package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/class-scheduler/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store backed by a temporary file. The
// store is closed automatically when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "classes.db")
	storage, err := sqlite.Open(context.Background(), "file:"+path)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return storage
}

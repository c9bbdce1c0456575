package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite"
	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite/migration"
)

// NewSQLiteStore opens a migrated store in a temporary file. The store is
// closed when the test finishes.
func NewSQLiteStore(tb testing.TB) *sqlite.Store {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "sizzl.db")
	store, err := sqlite.OpenWithConfig(migration.TempFileTestSQLiteConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background(), nil); err != nil {
		tb.Fatalf("failed to migrate storage: %v", err)
	}
	return store
}

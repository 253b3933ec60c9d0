// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/utils"
	"gorm.io/gorm"
)

// NewStore returns a fresh, fully migrated in-memory SQLite store that is
// closed when the test ends
func NewStore(t testing.TB) *database.GORMStore {
	t.Helper()

	store, err := database.StartSQLite(":memory:", nil, utils.NewNopLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := store.Init(); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

// New is NewStore for tests that only need the handle
func New(t testing.TB) *gorm.DB {
	t.Helper()
	return NewStore(t).DB()
}

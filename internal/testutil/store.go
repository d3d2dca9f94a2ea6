// Package testutil provides shared test helpers: an embedded store factory
// and fake provider clients.
package testutil

import (
	"path/filepath"
	"testing"

	"tastebook.io/tastebook/internal/repository"
)

// OpenStore opens an isolated SQLite-backed store in a per-test temp
// directory. Tests run against the real store implementation; only the
// external providers are faked.
func OpenStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	store, err := repository.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

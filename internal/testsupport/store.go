package testsupport

import (
	"testing"

	"mkvauto/internal/config"
	"mkvauto/internal/discdb"
)

// MustOpenDiscDB opens the configured disc database and registers cleanup.
func MustOpenDiscDB(t testing.TB, cfg *config.Config) discdb.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := discdb.Open(cfg.DiscDB, nil)
	if err != nil {
		t.Fatalf("open disc db: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

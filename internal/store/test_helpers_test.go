package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/testutil"
)

// createTestStore creates a new store in a temp dir with deterministic run
// IDs and timestamps.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("")),
		WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestLoadOrder builds a small two-layer load order with an override
// and a tombstone.
func createTestLoadOrder(t *testing.T) *loadorder.Store {
	t.Helper()
	base := testutil.Layer("Skyrim.esm",
		testutil.Zone("000300:Skyrim.esm", "Camp<Zone>&", 1, 30, record.ZoneFlagMatchPCBelowMinimumLevel),
		testutil.NPC("000600:Skyrim.esm", "Bandit", 1, testutil.InZone("000300:Skyrim.esm")),
		testutil.NPC("000601:Skyrim.esm", "Guard", 10),
		testutil.Location("000200:Skyrim.esm", "Camp", "000100:Skyrim.esm"),
	)
	mod := testutil.Layer("Mod.esp",
		testutil.NPC("000600:Skyrim.esm", "Bandit", 7, testutil.InZone("000300:Skyrim.esm")),
	)
	if err := mod.Delete(record.CategoryNPC, testutil.Key("000601:Skyrim.esm")); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	return testutil.Store(base, mod)
}

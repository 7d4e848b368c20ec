package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/store"
)

func TestImport_StoresLayers(t *testing.T) {
	db := filepath.Join(t.TempDir(), "unlevel.db")

	out, _, err := execute(t, NewImportCommand, "text", "--load-order", worldManifest, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Imported 2 layer(s)")
	assert.Contains(t, out, "0. Skyrim.esm (7 records)")
	assert.Contains(t, out, "1. Mod.esp (2 records)")

	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	lo, err := st.ReadLoadOrder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []record.ModKey{"Skyrim.esm", "Mod.esp"}, modKeys(lo))
	_, ok := lo.Lookup(record.CategoryNPC, record.MustFormKey("000602:Skyrim.esm"))
	assert.False(t, ok, "tombstone survives the round trip")
}

func TestImport_ReplacesLayers(t *testing.T) {
	db := filepath.Join(t.TempDir(), "unlevel.db")
	manifest := writeWorld(t, "plugin: Skyrim.esm\nrecords:\n  - category: keyword\n    form_key: 000100:Skyrim.esm\n    editor_id: LocTypeDungeon\n")

	_, _, err := execute(t, NewImportCommand, "text", "--load-order", worldManifest, "--db", db)
	require.NoError(t, err)
	out, _, err := execute(t, NewImportCommand, "json", "--load-order", manifest, "--db", db)
	require.NoError(t, err)

	_, data := decodeData(t, out)
	layers, ok := data["layers"].([]any)
	require.True(t, ok)
	require.Len(t, layers, 1)
	layer := layers[0].(map[string]any)
	assert.Equal(t, "Skyrim.esm", layer["name"])
	assert.Equal(t, float64(1), layer["records"])
	assert.NotEmpty(t, layer["digest"])
}

func TestImport_RequiresFlags(t *testing.T) {
	_, _, err := execute(t, NewImportCommand, "text", "--db", filepath.Join(t.TempDir(), "x.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "load-order" not set`)

	out, _, err := execute(t, NewImportCommand, "text", "--load-order", worldManifest)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestImport_BrokenLayerFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "unlevel.db")
	manifest := writeWorld(t, "plugin: Skyrim.esm\nrecords:\n  - category: dragon\n    form_key: 000100:Skyrim.esm\n")

	out, _, err := execute(t, NewImportCommand, "text", "--load-order", manifest, "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

package loadorder

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/record"
)

func npc(key string, level uint16) *record.NPC {
	return &record.NPC{
		Header: record.Header{Key: record.MustFormKey(key)},
		Level:  level,
	}
}

func levelOf(t *testing.T, r record.Record) uint16 {
	t.Helper()
	n, ok := r.(*record.NPC)
	require.True(t, ok, "expected *record.NPC, got %T", r)
	return n.Level
}

func TestResolveWinner_HighestPriorityLayerWins(t *testing.T) {
	base := NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1), npc("2:Skyrim.esm", 2))
	patch := NewLayer("Patch.esp").MustAdd(npc("1:Skyrim.esm", 10))
	top := NewLayer("Top.esp").MustAdd(npc("1:Skyrim.esm", 100))

	s := MustNew(base, patch, top)

	r, ok := s.ResolveWinner(record.CategoryNPC, record.MustFormKey("1:Skyrim.esm"))
	require.True(t, ok)
	assert.Equal(t, uint16(100), levelOf(t, r))

	res, ok := s.Lookup(record.CategoryNPC, record.MustFormKey("2:Skyrim.esm"))
	require.True(t, ok)
	assert.Equal(t, uint16(2), levelOf(t, res.Record))
	assert.Equal(t, record.ModKey("Skyrim.esm"), res.Layer)
}

func TestResolveWinner_PluginCaseInOverrideKey(t *testing.T) {
	base := NewLayer("Skyrim.esm").MustAdd(npc("000600:Skyrim.esm", 1))
	mod := NewLayer("Mod.esp").MustAdd(npc("000600:skyrim.esm", 9))
	s := MustNew(base, mod)

	for _, key := range []string{"000600:Skyrim.esm", "000600:skyrim.esm", "600:SKYRIM.ESM"} {
		r, ok := s.ResolveWinner(record.CategoryNPC, record.MustFormKey(key))
		require.True(t, ok, key)
		assert.Equal(t, uint16(9), levelOf(t, r), key)
	}

	winners, err := s.AllWinningOverrides(record.CategoryNPC)
	require.NoError(t, err)
	all := slices.Collect(winners)
	require.Len(t, all, 1, "one winner per key")
	assert.Equal(t, uint16(9), levelOf(t, all[0]))
	assert.Equal(t, []record.FormKey{record.MustFormKey("000600:Skyrim.esm")}, s.Keys(record.CategoryNPC))
}

func TestResolveWinner_TombstoneInDifferentPluginCase(t *testing.T) {
	base := NewLayer("Skyrim.esm").MustAdd(npc("000600:Skyrim.esm", 1))
	deleter := NewLayer("Deleter.esp")
	require.NoError(t, deleter.Delete(record.CategoryNPC, record.MustFormKey("000600:SKYRIM.ESM")))
	s := MustNew(base, deleter)

	_, ok := s.ResolveWinner(record.CategoryNPC, record.MustFormKey("000600:Skyrim.esm"))
	assert.False(t, ok)
}

func TestResolveWinner_NotFound(t *testing.T) {
	s := MustNew(NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1)))

	r, ok := s.ResolveWinner(record.CategoryNPC, record.MustFormKey("99:Skyrim.esm"))
	assert.False(t, ok)
	assert.Nil(t, r)

	// Same key in another category does not resolve.
	_, ok = s.ResolveWinner(record.CategoryClass, record.MustFormKey("1:Skyrim.esm"))
	assert.False(t, ok)
}

func TestResolveWinner_TombstoneAboveDefinition(t *testing.T) {
	key := record.MustFormKey("1:Skyrim.esm")
	base := NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1))
	deleter := NewLayer("Deleter.esp")
	require.NoError(t, deleter.Delete(record.CategoryNPC, key))

	s := MustNew(base, deleter)
	_, ok := s.ResolveWinner(record.CategoryNPC, key)
	assert.False(t, ok, "tombstone above the only definition must hide it")
	assert.True(t, s.Defines(record.CategoryNPC, key))
}

func TestResolveWinner_DefinitionAboveTombstone(t *testing.T) {
	key := record.MustFormKey("1:Skyrim.esm")
	base := NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1))
	deleter := NewLayer("Deleter.esp")
	require.NoError(t, deleter.Delete(record.CategoryNPC, key))
	restorer := NewLayer("Restorer.esp").MustAdd(npc("1:Skyrim.esm", 7))

	s := MustNew(base, deleter, restorer)
	r, ok := s.ResolveWinner(record.CategoryNPC, key)
	require.True(t, ok, "a later override resurrects a deleted key")
	assert.Equal(t, uint16(7), levelOf(t, r))
}

func TestResolveWinner_DeletedFlagActsAsTombstone(t *testing.T) {
	deleted := npc("1:Skyrim.esm", 5)
	deleted.Deleted = true

	s := MustNew(
		NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1)),
		NewLayer("Patch.esp").MustAdd(deleted),
	)
	_, ok := s.ResolveWinner(record.CategoryNPC, record.MustFormKey("1:Skyrim.esm"))
	assert.False(t, ok)
}

func TestAllWinningOverrides_OnePerKey(t *testing.T) {
	s := MustNew(
		NewLayer("Skyrim.esm").MustAdd(npc("3:Skyrim.esm", 3), npc("1:Skyrim.esm", 1), npc("2:Skyrim.esm", 2)),
		NewLayer("A.esp").MustAdd(npc("1:Skyrim.esm", 11), npc("5:A.esp", 5)),
		NewLayer("B.esp").MustAdd(npc("1:Skyrim.esm", 111)),
	)
	require.NoError(t, s.Layers()[2].Delete(record.CategoryNPC, record.MustFormKey("2:Skyrim.esm")))

	seq, err := s.AllWinningOverrides(record.CategoryNPC)
	require.NoError(t, err)

	var keys []string
	var levels []uint16
	for r := range seq {
		keys = append(keys, r.FormKey().String())
		levels = append(levels, levelOf(t, r))
	}

	assert.Equal(t, []string{"000005:A.esp", "000001:Skyrim.esm", "000003:Skyrim.esm"}, keys)
	assert.Equal(t, []uint16{5, 111, 3}, levels)

	// Re-iterable with the same result.
	var again []string
	for r := range seq {
		again = append(again, r.FormKey().String())
	}
	assert.Equal(t, keys, again)
}

func TestAllWinningOverrides_UnknownCategory(t *testing.T) {
	s := MustNew(NewLayer("Skyrim.esm"))
	_, err := s.AllWinningOverrides("weapon")
	require.Error(t, err)
	assert.True(t, IsLayerError(err, ErrCodeUnknownCategory))
}

func TestAllWinningOverrides_EarlyStop(t *testing.T) {
	s := MustNew(NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1), npc("2:Skyrim.esm", 2)))
	seq, err := s.AllWinningOverrides(record.CategoryNPC)
	require.NoError(t, err)

	count := 0
	for range seq {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestWinners_Typed(t *testing.T) {
	s := MustNew(NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 4)))
	seq, err := Winners[*record.NPC](s, record.CategoryNPC)
	require.NoError(t, err)

	got := slices.Collect(seq)
	require.Len(t, got, 1)
	assert.Equal(t, uint16(4), got[0].Level)
}

func TestWithTop_DoesNotMutateReceiver(t *testing.T) {
	base := MustNew(NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1)))
	stacked, err := base.WithTop(NewLayer("Out.esp").MustAdd(npc("1:Skyrim.esm", 50)))
	require.NoError(t, err)

	r, _ := base.ResolveWinner(record.CategoryNPC, record.MustFormKey("1:Skyrim.esm"))
	assert.Equal(t, uint16(1), levelOf(t, r))
	r, _ = stacked.ResolveWinner(record.CategoryNPC, record.MustFormKey("1:Skyrim.esm"))
	assert.Equal(t, uint16(50), levelOf(t, r))
	assert.Len(t, base.Layers(), 1)

	_, err = stacked.WithTop(NewLayer("skyrim.ESM"))
	assert.True(t, IsLayerError(err, ErrCodeDuplicateLayer))
}

func TestSubset(t *testing.T) {
	s := MustNew(
		NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1)),
		NewLayer("Filtered.esp").MustAdd(npc("2:Filtered.esp", 2)),
	)

	sub := s.Subset("filtered.esp", "Missing.esp")
	require.Len(t, sub.Layers(), 1)
	assert.True(t, sub.Defines(record.CategoryNPC, record.MustFormKey("2:Filtered.esp")))
	assert.False(t, sub.Defines(record.CategoryNPC, record.MustFormKey("1:Skyrim.esm")))
}

func TestLayer_StructuralErrors(t *testing.T) {
	l := NewLayer("Skyrim.esm").MustAdd(npc("1:Skyrim.esm", 1))

	err := l.Add(npc("1:Skyrim.esm", 2))
	require.Error(t, err)
	assert.True(t, IsLayerError(err, ErrCodeDuplicateKey))
	assert.Contains(t, err.Error(), "DUPLICATE_KEY")

	err = l.Add(&record.NPC{})
	assert.True(t, IsLayerError(err, ErrCodeInvalidKey))

	err = l.Add(record.NewTombstone("weapon", record.MustFormKey("2:Skyrim.esm")))
	assert.True(t, IsLayerError(err, ErrCodeUnknownCategory))

	err = l.Add(npc("1:SKYRIM.ESM", 3))
	assert.True(t, IsLayerError(err, ErrCodeDuplicateKey), "plugin-name case does not make a new key")

	// Tombstone for a key already defined in the same layer is also a duplicate.
	err = l.Delete(record.CategoryNPC, record.MustFormKey("1:Skyrim.esm"))
	assert.True(t, IsLayerError(err, ErrCodeDuplicateKey))
}

func TestLayer_RecordsSortedWithTombstones(t *testing.T) {
	l := NewLayer("Skyrim.esm").MustAdd(npc("2:Skyrim.esm", 2), npc("1:Skyrim.esm", 1))
	require.NoError(t, l.Delete(record.CategoryNPC, record.MustFormKey("3:Skyrim.esm")))

	var deleted []bool
	for r := range l.Records(record.CategoryNPC) {
		deleted = append(deleted, r.IsDeleted())
	}
	assert.Equal(t, []bool{false, false, true}, deleted)
	assert.Equal(t, 3, l.Len(record.CategoryNPC))
	assert.Equal(t, []record.Category{record.CategoryNPC}, l.Categories())
}

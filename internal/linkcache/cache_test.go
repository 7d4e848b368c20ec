package linkcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

func fixture(t *testing.T) *Cache {
	t.Helper()
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(
		&record.Class{Header: record.Header{Key: record.MustFormKey("10:Skyrim.esm"), EDID: "ClassWarrior"}},
		&record.NPC{
			Header: record.Header{Key: record.MustFormKey("1:Skyrim.esm")},
			Class:  record.LinkTo[*record.Class](record.MustFormKey("10:Skyrim.esm")),
			Zone:   record.LinkTo[*record.EncounterZone](record.MustFormKey("20:Skyrim.esm")),
		},
		&record.EncounterZone{
			Header:   record.Header{Key: record.MustFormKey("20:Skyrim.esm")},
			Location: record.LinkTo[*record.Location](record.MustFormKey("30:Skyrim.esm")),
		},
		&record.Location{
			Header: record.Header{Key: record.MustFormKey("30:Skyrim.esm")},
			Keywords: []record.Link[*record.Keyword]{
				record.LinkTo[*record.Keyword](record.MustFormKey("40:Skyrim.esm")),
				record.LinkTo[*record.Keyword](record.MustFormKey("41:Skyrim.esm")),
				record.LinkTo[*record.Keyword](record.MustFormKey("42:Skyrim.esm")),
			},
		},
		&record.Keyword{Header: record.Header{Key: record.MustFormKey("40:Skyrim.esm"), EDID: "LocTypeDungeon"}},
		&record.Keyword{Header: record.Header{Key: record.MustFormKey("42:Skyrim.esm"), EDID: "LocTypeCave"}},
	)
	return New(loadorder.MustNew(base), nil)
}

func TestResolve_Hit(t *testing.T) {
	c := fixture(t)
	cls, ok := Resolve(c, record.LinkTo[*record.Class](record.MustFormKey("10:Skyrim.esm")))
	require.True(t, ok)
	assert.Equal(t, "ClassWarrior", cls.EditorID())
}

func TestResolve_NullLink(t *testing.T) {
	c := fixture(t)
	var null record.Link[*record.Class]
	cls, ok := Resolve(c, null)
	assert.False(t, ok)
	assert.Nil(t, cls)
}

func TestResolve_DanglingLink(t *testing.T) {
	c := fixture(t)
	assert.NotPanics(t, func() {
		_, ok := Resolve(c, record.LinkTo[*record.Class](record.MustFormKey("FFFF:Missing.esp")))
		assert.False(t, ok)
	})
}

func TestResolve_NilCache(t *testing.T) {
	_, ok := Resolve[*record.Class](nil, record.LinkTo[*record.Class](record.MustFormKey("10:Skyrim.esm")))
	assert.False(t, ok)
}

func TestResolveIn_WrongType(t *testing.T) {
	c := fixture(t)
	// The key exists as a Class; asking for an NPC in the class category is a type mismatch.
	_, ok := ResolveIn[*record.NPC](c, record.CategoryClass, record.MustFormKey("10:Skyrim.esm"))
	assert.False(t, ok)
}

func TestResolve_ChainedHops(t *testing.T) {
	c := fixture(t)
	npc, ok := ResolveIn[*record.NPC](c, record.CategoryNPC, record.MustFormKey("1:Skyrim.esm"))
	require.True(t, ok)

	zone, ok := Resolve(c, npc.Zone)
	require.True(t, ok)
	loc, ok := Resolve(c, zone.Location)
	require.True(t, ok)

	keywords := ResolveAll(c, loc.Keywords)
	require.Len(t, keywords, 2, "dangling keyword 41 is skipped")
	assert.Equal(t, "LocTypeDungeon", keywords[0].EditorID())
	assert.Equal(t, "LocTypeCave", keywords[1].EditorID())
}

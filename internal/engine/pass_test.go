package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/output"
	"github.com/roach88/unlevel/internal/record"
)

func npcPass(rules ...Rule[*record.NPC]) *Pass[*record.NPC] {
	return &Pass[*record.NPC]{
		Name:     "npcs",
		Category: record.CategoryNPC,
		Pipeline: NewPipeline(rules...),
	}
}

func TestPass_CommitsOnlyChanged(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(testNPC(1, 5), testNPC(2, 20), testNPC(3, 1))
	ctx, _ := testContext(t, base)
	w := output.NewWriter("Unlevel.esp")

	stats, err := npcPass(setLevel(20)).Run(context.Background(), ctx, w, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Changed)
	assert.Equal(t, 0, stats.Skipped)
	assert.Equal(t, 2, w.Len())
	assert.False(t, w.Contains(record.CategoryNPC, testNPC(2, 0).FormKey()))
}

func TestPass_NothingChangedWritesNothing(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(testNPC(1, 20))
	ctx, _ := testContext(t, base)
	w := output.NewWriter("Unlevel.esp")

	_, err := npcPass(setLevel(20)).Run(context.Background(), ctx, w, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0, w.Commits())
}

func TestPass_WinnersOnly(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(testNPC(1, 5), testNPC(2, 5))
	top := loadorder.NewLayer("Mod.esp").MustAdd(testNPC(1, 7))
	require.NoError(t, top.Delete(record.CategoryNPC, testNPC(2, 0).FormKey()))
	ctx, _ := testContext(t, base, top)
	w := output.NewWriter("Unlevel.esp")

	var seen []uint16
	observe := Mutate("observe", func(n *record.NPC, _ *Context) bool {
		seen = append(seen, n.Level)
		return false
	})
	stats, err := npcPass(observe).Run(context.Background(), ctx, w, Options{})
	require.NoError(t, err)

	assert.Equal(t, []uint16{7}, seen, "deleted key is not enumerated; override wins")
	assert.Equal(t, 1, stats.Processed)
}

func TestPass_Skip(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(testNPC(1, 5), testNPC(2, 5))
	ctx, _ := testContext(t, base)
	w := output.NewWriter("Unlevel.esp")
	p := npcPass(setLevel(20))
	p.Skip = func(n *record.NPC, _ *Context) bool { return n.FormKey().ID == 2 }

	stats, err := p.Run(context.Background(), ctx, w, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Skipped)
	assert.True(t, w.Contains(record.CategoryNPC, testNPC(1, 0).FormKey()))
	assert.False(t, w.Contains(record.CategoryNPC, testNPC(2, 0).FormKey()))
}

func TestPass_UnknownCategoryIsStructural(t *testing.T) {
	ctx, _ := testContext(t)
	p := npcPass()
	p.Category = "weather"

	_, err := p.Run(context.Background(), ctx, output.NewWriter("Unlevel.esp"), Options{})

	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
	assert.True(t, loadorder.IsLayerError(err, loadorder.ErrCodeUnknownCategory))
}

func TestPass_CancelledBetweenRecords(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(testNPC(1, 5), testNPC(2, 5))
	rc, _ := testContext(t, base)
	ctx, cancel := context.WithCancel(context.Background())
	stopAfterFirst := Mutate("stop", func(n *record.NPC, _ *Context) bool {
		cancel()
		n.Level = 99
		return true
	})
	w := output.NewWriter("Unlevel.esp")

	stats, err := npcPass(stopAfterFirst).Run(ctx, rc, w, Options{})

	require.Error(t, err)
	assert.True(t, IsAborted(err))
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, w.Len())
}

func TestPass_ProgressEveryBatch(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm")
	for i := uint32(1); i <= 7; i++ {
		base.MustAdd(testNPC(i, 1))
	}
	ctx, buf := testContext(t, base)

	_, err := npcPass().Run(context.Background(), ctx, output.NewWriter("Unlevel.esp"), Options{ProgressEvery: 3})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(buf.String(), "pass progress"))
	assert.Contains(t, buf.String(), "pass complete")
}

func TestPass_ProgressDisabled(t *testing.T) {
	base := loadorder.NewLayer("Skyrim.esm").MustAdd(testNPC(1, 1))
	ctx, buf := testContext(t, base)

	_, err := npcPass().Run(context.Background(), ctx, output.NewWriter("Unlevel.esp"), Options{ProgressEvery: -1})
	require.NoError(t, err)

	assert.NotContains(t, buf.String(), "pass progress")
}

func TestPassError_Format(t *testing.T) {
	err := &PassError{
		Code:     ErrCodeCommitFailed,
		Pass:     "npcs",
		Category: record.CategoryNPC,
		Key:      record.MustFormKey("000001:Skyrim.esm"),
		Message:  "output writer rejected record",
	}
	assert.Equal(t,
		"COMMIT_FAILED: output writer rejected record (pass=npcs, category=npc, key=000001:Skyrim.esm)",
		err.Error())
	assert.False(t, IsStructuralError(err))
}

package engine

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

func testNPC(id uint32, level uint16) *record.NPC {
	return &record.NPC{
		Header: record.Header{Key: record.FormKey{Mod: "Skyrim.esm", ID: id}, EDID: "npc"},
		Level:  level,
	}
}

func testContext(t *testing.T, layers ...*loadorder.Layer) (*Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := loadorder.New(layers...)
	require.NoError(t, err)
	return NewContext(s, nil, log), &buf
}

func setLevel(level uint16) Rule[*record.NPC] {
	return Mutate("set-level", func(n *record.NPC, _ *Context) bool {
		if n.Level == level {
			return false
		}
		n.Level = level
		return true
	})
}

func TestMutate_DoesNotTouchInput(t *testing.T) {
	ctx, _ := testContext(t)
	in := testNPC(1, 5)

	res := setLevel(20).Apply(in, ctx)

	require.True(t, res.IsChanged())
	assert.Equal(t, uint16(20), res.Record().Level)
	assert.Equal(t, uint16(5), in.Level, "input record must not be mutated")
	assert.NotSame(t, in, res.Record())
}

func TestMutate_NoopIsUnchanged(t *testing.T) {
	ctx, _ := testContext(t)

	res := setLevel(5).Apply(testNPC(1, 5), ctx)

	assert.False(t, res.IsChanged())
	assert.Nil(t, res.Record())
}

func TestPipeline_AllUnchanged(t *testing.T) {
	ctx, _ := testContext(t)
	p := NewPipeline(setLevel(5), setLevel(5))

	res := p.Run(testNPC(1, 5), ctx)

	assert.False(t, res.IsChanged())
}

func TestPipeline_LaterRulesSeeEarlierCopies(t *testing.T) {
	ctx, _ := testContext(t)
	var seen []uint16
	observe := Rule[*record.NPC]{
		Name: "observe",
		Apply: func(n *record.NPC, _ *Context) Result[*record.NPC] {
			seen = append(seen, n.Level)
			return Unchanged[*record.NPC]()
		},
	}
	p := NewPipeline(observe, setLevel(10), observe, setLevel(10), observe)

	res := p.Run(testNPC(1, 1), ctx)

	require.True(t, res.IsChanged())
	assert.Equal(t, []uint16{1, 10, 10}, seen)
	assert.Equal(t, uint16(10), res.Record().Level)
}

func TestPipeline_AnyChangeMarksChanged(t *testing.T) {
	ctx, _ := testContext(t)
	// The second rule is a no-op on the first rule's copy; the aggregate is
	// still changed.
	p := NewPipeline(setLevel(10), setLevel(10))

	res := p.Run(testNPC(1, 1), ctx)

	assert.True(t, res.IsChanged())
}

func TestPipeline_PanicIsContainedPerRule(t *testing.T) {
	ctx, buf := testContext(t)
	boom := Rule[*record.NPC]{
		Name: "boom",
		Apply: func(*record.NPC, *Context) Result[*record.NPC] {
			panic("malformed record")
		},
	}
	p := NewPipeline(boom, setLevel(30))

	res := p.Run(testNPC(1, 1), ctx)

	require.True(t, res.IsChanged(), "rules after the failing one still run")
	assert.Equal(t, uint16(30), res.Record().Level)
	assert.Contains(t, buf.String(), "rule=boom")
	assert.Contains(t, buf.String(), "malformed record")
}

func TestPipeline_RejectsIdentityChange(t *testing.T) {
	ctx, buf := testContext(t)
	rekey := Rule[*record.NPC]{
		Name: "rekey",
		Apply: func(n *record.NPC, _ *Context) Result[*record.NPC] {
			cp := n.Copy()
			cp.Key.ID = 99
			return Changed(cp)
		},
	}

	res := NewPipeline(rekey).Run(testNPC(1, 1), ctx)

	assert.False(t, res.IsChanged())
	assert.Contains(t, buf.String(), "changed identity")
}

func TestPipeline_ChangedWithoutRecordIsUnchanged(t *testing.T) {
	ctx, _ := testContext(t)
	bad := Rule[*record.NPC]{
		Name: "bad",
		Apply: func(*record.NPC, *Context) Result[*record.NPC] {
			return Changed[*record.NPC](nil)
		},
	}

	res := NewPipeline(bad).Run(testNPC(1, 1), ctx)

	assert.False(t, res.IsChanged())
}

func TestPipeline_DeclarationOrderIsFixed(t *testing.T) {
	rules := []Rule[*record.NPC]{setLevel(1), setLevel(2)}
	p := NewPipeline(rules...)
	rules[0].Name = "mutated"

	assert.Equal(t, []string{"set-level", "set-level"}, p.Names())
	assert.Equal(t, "set-level -> set-level", p.String())
}

func TestPipeline_NilIsUnchanged(t *testing.T) {
	ctx, _ := testContext(t)
	var p *Pipeline[*record.NPC]

	assert.False(t, p.Run(testNPC(1, 1), ctx).IsChanged())
	assert.Empty(t, p.Names())
}

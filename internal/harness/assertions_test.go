package harness

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/store"
	"github.com/roach88/unlevel/internal/testutil"
)

func sampleResult() *Result {
	r := NewResult()
	r.Output = "Unlevel.esp"
	r.Passes = []engine.PassStats{
		{Name: "zones", Category: record.CategoryEncounterZone, Processed: 2, Changed: 1},
		{Name: "npc_levels", Category: record.CategoryNPC, Processed: 3, Changed: 0},
	}
	r.Records = []record.Record{
		testutil.NPC("000600:Skyrim.esm", "Bandit", 30, testutil.InZone("000300:Skyrim.esm")),
		testutil.Zone("000300:Skyrim.esm", "BanditCampZone", 30, 30, 0),
	}
	return r
}

func TestAssertOutputContains(t *testing.T) {
	r := sampleResult()

	tests := []struct {
		name   string
		a      Assertion
		failed bool
	}{
		{"present", Assertion{Category: "npc", FormKey: "000600:Skyrim.esm"}, false},
		{"fields match", Assertion{Category: "npc", FormKey: "000600:Skyrim.esm", Expect: map[string]any{"level": 30, "zone": "000300:Skyrim.esm"}}, false},
		{"nested fields match", Assertion{Category: "npc", FormKey: "000600:Skyrim.esm", Expect: map[string]any{"configuration": map[string]any{"min_level": 0, "max_level": 0}}}, false},
		{"float written as int", Assertion{Category: "npc", FormKey: "000600:Skyrim.esm", Expect: map[string]any{"level_mult": 1}}, false},
		{"field differs", Assertion{Category: "npc", FormKey: "000600:Skyrim.esm", Expect: map[string]any{"level": 31}}, true},
		{"field missing", Assertion{Category: "npc", FormKey: "000600:Skyrim.esm", Expect: map[string]any{"class": "000400:Skyrim.esm"}}, true},
		{"wrong category", Assertion{Category: "class", FormKey: "000600:Skyrim.esm"}, true},
		{"not in output", Assertion{Category: "npc", FormKey: "000601:Skyrim.esm"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertOutputContains(r, tt.a)
			if !tt.failed {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, AssertOutputContains, ae.Type)
		})
	}
}

func TestAssertOutputContains_BadKey(t *testing.T) {
	err := assertOutputContains(sampleResult(), Assertion{Category: "npc", FormKey: "nope"})

	require.Error(t, err)
	var ae *AssertionError
	assert.False(t, errors.As(err, &ae), "a malformed key is not an assertion failure")
}

func TestAssertOutputAbsent(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertOutputAbsent(r, Assertion{Category: "npc", FormKey: "000601:Skyrim.esm"}))
	assert.Error(t, assertOutputAbsent(r, Assertion{Category: "npc", FormKey: "000600:Skyrim.esm"}))
}

func TestAssertOutputCount(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertOutputCount(r, Assertion{Count: 2}))
	err := assertOutputCount(r, Assertion{Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 3 output records")
	assert.Contains(t, err.Error(), "Actual: 2 output records")
	assert.Contains(t, err.Error(), "[1] npc 000600:Skyrim.esm Bandit")
}

func TestAssertPassChanged(t *testing.T) {
	r := sampleResult()

	assert.NoError(t, assertPassChanged(r, Assertion{Pass: "zones", Count: 1}))
	assert.NoError(t, assertPassChanged(r, Assertion{Pass: "npc_levels", Count: 0}))

	err := assertPassChanged(r, Assertion{Pass: "zones", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changed 1 of 2 processed")

	err = assertPassChanged(r, Assertion{Pass: "classes", Count: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass did not run")
}

func TestAssertStoredRun(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	r := sampleResult()
	r.Digest = "abc"
	r.RunID, err = st.SaveRun(ctx, store.Run{Output: r.Output, Digest: r.Digest, Records: r.Records})
	require.NoError(t, err)

	assert.NoError(t, assertStoredRun(ctx, st, r, Assertion{Count: 2}))
	assert.Error(t, assertStoredRun(ctx, st, r, Assertion{Count: 1}))

	r.Digest = "other"
	err = assertStoredRun(ctx, st, r, Assertion{Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stored digest")

	r.RunID = "missing"
	err = assertStoredRun(ctx, st, r, Assertion{Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read error")
}

func TestAssertFixedPoint(t *testing.T) {
	assert.NoError(t, assertFixedPoint(func() (int, error) { return 0, nil }))

	err := assertFixedPoint(func() (int, error) { return 2, nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 records")

	boom := errors.New("boom")
	err = assertFixedPoint(func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()

	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertOutputCount, Count: 2},
		{Type: AssertOutputAbsent, Category: "npc", FormKey: "000600:Skyrim.esm"},
		{Type: AssertStoredRun, Count: 2},
		{Type: AssertFixedPoint},
		{Type: "bogus"},
	}, nil)

	require.Len(t, errs, 4)
	assert.Contains(t, errs[0], "output_absent")
	assert.Contains(t, errs[1], "stored_run requires database context")
	assert.Contains(t, errs[2], "fixed_point requires a recheck function")
	assert.Contains(t, errs[3], `unknown assertion type "bogus"`)
}

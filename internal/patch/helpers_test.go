package patch

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/match"
	"github.com/roach88/unlevel/internal/output"
	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/testutil"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTables() *config.Tables {
	return &config.Tables{
		DefaultMaxLevel: config.DefaultMaxLevel,
		ZoneLevels:      map[record.Identity]uint16{},
		ExcludedNPCs:    map[record.Identity]bool{},
		NPCLevelMode:    config.LevelModeRaise,
		LeveledMode:     config.LeveledModeRaise,
		LeveledCount:    1,
	}
}

func zoneRule(level uint16, keys []string, forbidden []string) config.ZoneRule {
	return config.ZoneRule{
		Match:    match.NewRule(keys, forbidden),
		Keys:     keys,
		MaxLevel: level,
	}
}

func newContext(t *config.Tables, layers ...*loadorder.Layer) *engine.Context {
	return engine.NewContext(testutil.Store(layers...), t, quiet)
}

// runPass runs p over layers and returns the writer it committed to.
func runPass(t *testing.T, p engine.Runner, tables *config.Tables, layers ...*loadorder.Layer) (*output.Writer, engine.PassStats) {
	t.Helper()
	w := output.NewWriter("Unlevel.esp")
	stats, err := p.Run(context.Background(), newContext(tables, layers...), w, engine.Options{ProgressEvery: -1})
	require.NoError(t, err)
	return w, stats
}

func boolPtr(b bool) *bool { return &b }

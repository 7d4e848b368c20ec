package patch

import (
	"slices"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/linkcache"
	"github.com/roach88/unlevel/internal/record"
)

// LeveledNPCsPass normalizes the entries of leveled NPC lists.
//
// In raise mode each entry is raised to the zone max level of the NPC it
// references. In flatten mode every entry gets the same level and count,
// and entries that reference nothing are dropped. A list left with no
// entries is never written.
func LeveledNPCsPass() *engine.Pass[*record.LeveledNPC] {
	return &engine.Pass[*record.LeveledNPC]{
		Name:     "leveled_npcs",
		Category: record.CategoryLeveledNPC,
		Pipeline: engine.NewPipeline(engine.Rule[*record.LeveledNPC]{
			Name:  "normalize-entries",
			Apply: normalizeEntries,
		}),
	}
}

func normalizeEntries(l *record.LeveledNPC, ctx *engine.Context) engine.Result[*record.LeveledNPC] {
	var entries []record.LeveledEntry
	switch tablesOf(ctx).LeveledMode {
	case config.LeveledModeFlatten:
		entries = flattenEntries(l.Entries, ctx)
	default:
		entries = raiseEntries(l.Entries, ctx)
	}
	if len(entries) == 0 || slices.Equal(entries, l.Entries) {
		return engine.Unchanged[*record.LeveledNPC]()
	}
	cp := l.Copy()
	cp.Entries = entries
	return engine.Changed(cp)
}

// entryLevel returns the zone max level for the entry's reference, and
// false when the reference is null or does not resolve.
func entryLevel(e record.LeveledEntry, ctx *engine.Context) (uint16, bool) {
	if e.Reference.IsNull() {
		return 0, false
	}
	npc, ok := linkcache.Resolve(ctx.Links, e.Reference)
	if !ok {
		return 0, false
	}
	return ZoneMaxLevel(npc, ctx), true
}

func raiseEntries(in []record.LeveledEntry, ctx *engine.Context) []record.LeveledEntry {
	out := slices.Clone(in)
	def := tablesOf(ctx).Default()
	for i, e := range out {
		lvl, ok := entryLevel(e, ctx)
		if !ok {
			lvl = def
		}
		if e.Level < lvl {
			out[i].Level = lvl
		}
	}
	return out
}

func flattenEntries(in []record.LeveledEntry, ctx *engine.Context) []record.LeveledEntry {
	t := tablesOf(ctx)
	var (
		out    []record.LeveledEntry
		target uint16
	)
	for _, e := range in {
		lvl, ok := entryLevel(e, ctx)
		if !ok {
			continue
		}
		target = max(target, lvl)
		out = append(out, e)
	}
	if target == 0 {
		target = t.Default()
	}
	count := t.LeveledCount
	if count == 0 {
		count = 1
	}
	for i := range out {
		out[i].Level = target
		out[i].Count = count
	}
	return out
}

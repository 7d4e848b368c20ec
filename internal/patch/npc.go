package patch

import (
	"slices"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/linkcache"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// Skill level formula: base + normalized weight * span, truncated.
const (
	skillBase = 15
	skillSpan = 50
)

// NPCConfigurationPass turns off player-relative level calculation.
func NPCConfigurationPass() *engine.Pass[*record.NPC] {
	return &engine.Pass[*record.NPC]{
		Name:     "npc_configuration",
		Category: record.CategoryNPC,
		Pipeline: engine.NewPipeline(engine.Mutate("fixed-configuration", fixConfiguration)),
	}
}

func fixConfiguration(n *record.NPC, _ *engine.Context) bool {
	changed := false
	if n.Configuration.Flags.Has(record.NPCFlagCalcFromPCLevel) {
		n.Configuration.Flags &^= record.NPCFlagCalcFromPCLevel
		changed = true
	}
	if n.Configuration.MinLevel != n.Configuration.MaxLevel {
		n.Configuration.MinLevel = n.Configuration.MaxLevel
		changed = true
	}
	return changed
}

// NPCLevelsPass sets static NPC levels from the zone they spawn in.
func NPCLevelsPass() *engine.Pass[*record.NPC] {
	return &engine.Pass[*record.NPC]{
		Name:     "npc_levels",
		Category: record.CategoryNPC,
		Pipeline: engine.NewPipeline(
			engine.Mutate("zone-level", zoneLevel),
			engine.Mutate("static-level", staticLevel),
		),
	}
}

// zoneLevel raises (or in pin mode, sets) the NPC level to its zone max.
func zoneLevel(n *record.NPC, ctx *engine.Context) bool {
	target := ZoneMaxLevel(n, ctx)
	switch tablesOf(ctx).NPCLevelMode {
	case config.LevelModePin:
		if n.Level == target {
			return false
		}
	default:
		if n.Level >= target {
			return false
		}
	}
	n.Level = target
	return true
}

func staticLevel(n *record.NPC, _ *engine.Context) bool {
	changed := false
	if n.LevelMult != 1 {
		n.LevelMult = 1
		changed = true
	}
	if n.LevelOffset != 0 {
		n.LevelOffset = 0
		changed = true
	}
	return changed
}

func excluded(n *record.NPC, ctx *engine.Context) bool {
	return tablesOf(ctx).Excluded(n.FormKey())
}

// ClassesPass normalizes the skill weights of every class a non-excluded
// NPC uses. Unused classes are left alone.
func ClassesPass() *engine.Pass[*record.Class] {
	var (
		store *loadorder.Store
		used  map[record.Identity]bool
	)
	return &engine.Pass[*record.Class]{
		Name:     "classes",
		Category: record.CategoryClass,
		Pipeline: engine.NewPipeline(engine.Mutate("normalize-weights", normalizeClass)),
		Skip: func(c *record.Class, ctx *engine.Context) bool {
			if s := ctx.Store(); s != store {
				store = s
				used = UsedClasses(s, tablesOf(ctx))
			}
			return !used[c.FormKey().Identity()]
		},
	}
}

// UsedClasses returns the keys of the classes referenced by NPC winners
// that are not excluded.
func UsedClasses(s *loadorder.Store, t *config.Tables) map[record.Identity]bool {
	if t == nil {
		t = emptyTables
	}
	used := make(map[record.Identity]bool)
	npcs, err := loadorder.Winners[*record.NPC](s, record.CategoryNPC)
	if err != nil {
		return used
	}
	for n := range npcs {
		if t.Excluded(n.FormKey()) || n.Class.IsNull() {
			continue
		}
		used[n.Class.Key.Identity()] = true
	}
	return used
}

func normalizeClass(c *record.Class, _ *engine.Context) bool {
	ws := classWeights(c)
	norm, ok := NormalizeWeights(ws)
	if !ok || !weightsMoved(ws, norm) {
		return false
	}
	for i := range c.SkillWeights {
		c.SkillWeights[i].Weight = norm[i]
	}
	return true
}

func classWeights(c *record.Class) []float64 {
	ws := make([]float64, len(c.SkillWeights))
	for i, w := range c.SkillWeights {
		ws[i] = w.Weight
	}
	return ws
}

// NPCClassesPass derives NPC skills and perks from their class.
func NPCClassesPass() *engine.Pass[*record.NPC] {
	return &engine.Pass[*record.NPC]{
		Name:     "npc_classes",
		Category: record.CategoryNPC,
		Pipeline: engine.NewPipeline(
			engine.Mutate("relevel-skills", relevelSkills),
			engine.Mutate("class-perks", classPerks),
		),
		Skip: excluded,
	}
}

// relevelSkills sets each listed skill to 15 + weight*50 from the class's
// normalized weights. Skills the class does not weight are left alone.
func relevelSkills(n *record.NPC, ctx *engine.Context) bool {
	if n.Class.IsNull() || len(n.Skills) == 0 {
		return false
	}
	class, ok := linkcache.Resolve(ctx.Links, n.Class)
	if !ok {
		return false
	}
	norm, ok := NormalizeWeights(classWeights(class))
	if !ok {
		return false
	}
	weights := make(map[record.Skill]float64, len(norm))
	for i, w := range class.SkillWeights {
		if _, seen := weights[w.Skill]; !seen {
			weights[w.Skill] = norm[i]
		}
	}

	changed := false
	for i, sv := range n.Skills {
		if !sv.Skill.Valid() {
			continue
		}
		w, ok := weights[sv.Skill]
		if !ok {
			continue
		}
		lvl := uint16(skillBase + w*skillSpan)
		if sv.Level != lvl {
			n.Skills[i].Level = lvl
			changed = true
		}
	}
	return changed
}

// classPerks replaces the NPC's perks with its class's perks. A null class
// means no perks; a class that does not resolve leaves the perks as they
// are.
func classPerks(n *record.NPC, ctx *engine.Context) bool {
	var want []record.PerkRank
	if !n.Class.IsNull() {
		class, ok := linkcache.Resolve(ctx.Links, n.Class)
		if !ok {
			return false
		}
		want = class.Perks
	}
	if slices.Equal(n.Perks, want) {
		return false
	}
	n.Perks = slices.Clone(want)
	return true
}

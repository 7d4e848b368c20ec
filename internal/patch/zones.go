package patch

import (
	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/linkcache"
	"github.com/roach88/unlevel/internal/match"
	"github.com/roach88/unlevel/internal/record"
)

// ZonesPass pins every matched encounter zone to a fixed level.
func ZonesPass() *engine.Pass[*record.EncounterZone] {
	return &engine.Pass[*record.EncounterZone]{
		Name:     "zones",
		Category: record.CategoryEncounterZone,
		Pipeline: engine.NewPipeline(engine.Mutate("unlevel-zone", unlevelZone)),
		Skip:     filteredZone,
	}
}

// filteredZone reports whether a plugin in the plugin filter mentions z.
// Zones those plugins touch are left to them.
func filteredZone(z *record.EncounterZone, ctx *engine.Context) bool {
	filter := tablesOf(ctx).PluginFilter
	if len(filter) == 0 {
		return false
	}
	return ctx.Store().Subset(filter...).Defines(record.CategoryEncounterZone, z.FormKey())
}

func zoneMatch(r config.ZoneRule) match.Rule { return r.Match }

// matchZone finds the zone definition for z: by EditorID first, then by the
// keywords of its location.
func matchZone(z *record.EncounterZone, ctx *engine.Context) (config.ZoneRule, string, bool) {
	t := tablesOf(ctx)
	if edid := z.EditorID(); edid != "" {
		if i, ok := match.FirstMatch(t.ZonesByID, zoneMatch, edid); ok {
			return t.ZonesByID[i], "editor_id", true
		}
	}
	if len(t.ZonesByKeyword) == 0 || ctx.Links == nil {
		return config.ZoneRule{}, "", false
	}
	loc, ok := linkcache.Resolve(ctx.Links, z.Location)
	if !ok {
		return config.ZoneRule{}, "", false
	}
	var targets []string
	for _, kw := range linkcache.ResolveAll(ctx.Links, loc.Keywords) {
		if kw.EditorID() != "" {
			targets = append(targets, kw.EditorID())
		}
	}
	if len(targets) == 0 {
		return config.ZoneRule{}, "", false
	}
	if i, ok := match.FirstMatch(t.ZonesByKeyword, zoneMatch, targets...); ok {
		return t.ZonesByKeyword[i], "keyword", true
	}
	return config.ZoneRule{}, "", false
}

func unlevelZone(z *record.EncounterZone, ctx *engine.Context) bool {
	def, by, ok := matchZone(z, ctx)
	if !ok {
		return false
	}
	before := *z

	z.Flags = z.Flags.
		Set(record.ZoneFlagMatchPCBelowMinimumLevel, false).
		Set(record.ZoneFlagMatchPCAboveMaximumLevel, false)
	if def.EnableCombatBoundary != nil {
		z.Flags = z.Flags.Set(record.ZoneFlagDisableCombatBoundary, !*def.EnableCombatBoundary)
	}
	z.MinLevel = def.MaxLevel
	z.MaxLevel = def.MaxLevel

	if *z == before {
		return false
	}
	ctx.Logger().Debug("zone unleveled",
		"form_key", z.FormKey().String(),
		"matched_by", by,
		"keys", def.Keys,
		"level", def.MaxLevel,
	)
	return true
}

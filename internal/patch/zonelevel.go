package patch

import (
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/linkcache"
	"github.com/roach88/unlevel/internal/record"
)

// LevelSource names the tier a zone max level was taken from.
type LevelSource int

const (
	SourceDefault LevelSource = iota
	SourceTable
	SourceZone
)

func (s LevelSource) String() string {
	switch s {
	case SourceTable:
		return "table"
	case SourceZone:
		return "zone"
	default:
		return "default"
	}
}

// ZoneMaxLevel returns the maximum level of the encounter zone npc belongs
// to. Tiers, first hit wins: the explicit table entry for the zone, the
// zone's own MaxLevel when positive, the configured default.
//
// Every lookup failure (null link, dangling zone, deleted zone) falls
// through to the default; ZoneMaxLevel never fails.
func ZoneMaxLevel(npc *record.NPC, ctx *engine.Context) uint16 {
	lvl, _ := ZoneMaxLevelSource(npc, ctx)
	return lvl
}

// ZoneMaxLevelSource is ZoneMaxLevel that also reports the tier used.
func ZoneMaxLevelSource(npc *record.NPC, ctx *engine.Context) (uint16, LevelSource) {
	t := tablesOf(ctx)
	if npc == nil || npc.Zone.IsNull() || ctx == nil || ctx.Links == nil {
		return t.Default(), SourceDefault
	}
	zone, ok := linkcache.Resolve(ctx.Links, npc.Zone)
	if !ok {
		return t.Default(), SourceDefault
	}
	if lvl, ok := t.ZoneLevel(zone.FormKey()); ok {
		return lvl, SourceTable
	}
	if zone.MaxLevel > 0 {
		return zone.MaxLevel, SourceZone
	}
	return t.Default(), SourceDefault
}

package testutil

import (
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// Key parses a textual form key and panics on malformed input.
func Key(s string) record.FormKey {
	return record.MustFormKey(s)
}

// Layer builds a layer named name holding records. It panics on duplicate
// keys.
func Layer(name string, records ...record.Record) *loadorder.Layer {
	return loadorder.NewLayer(record.ModKey(name)).MustAdd(records...)
}

// Store builds a store from layers, lowest priority first.
func Store(layers ...*loadorder.Layer) *loadorder.Store {
	return loadorder.MustNew(layers...)
}

// NPCOption customizes an NPC fixture.
type NPCOption func(*record.NPC)

// NPC builds an NPC with LevelMult 1 and no other scaling.
func NPC(key, edid string, level uint16, opts ...NPCOption) *record.NPC {
	n := &record.NPC{
		Header:    record.Header{Key: Key(key), EDID: edid},
		Level:     level,
		LevelMult: 1,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// InZone links the NPC to an encounter zone.
func InZone(zone string) NPCOption {
	return func(n *record.NPC) { n.Zone.SetTo(Key(zone)) }
}

// OfClass links the NPC to a class.
func OfClass(class string) NPCOption {
	return func(n *record.NPC) { n.Class.SetTo(Key(class)) }
}

// WithSkills sets the NPC's skill levels.
func WithSkills(skills ...record.SkillValue) NPCOption {
	return func(n *record.NPC) { n.Skills = skills }
}

// WithPerks sets the NPC's perks.
func WithPerks(perks ...record.PerkRank) NPCOption {
	return func(n *record.NPC) { n.Perks = perks }
}

// Scaled gives the NPC player-relative scaling.
func Scaled(mult float64, offset int16, minLevel, maxLevel uint16) NPCOption {
	return func(n *record.NPC) {
		n.LevelMult = mult
		n.LevelOffset = offset
		n.Configuration = record.NPCConfiguration{
			Flags:    record.NPCFlagCalcFromPCLevel,
			MinLevel: minLevel,
			MaxLevel: maxLevel,
		}
	}
}

// Zone builds an encounter zone.
func Zone(key, edid string, minLevel, maxLevel uint16, flags record.ZoneFlags) *record.EncounterZone {
	return &record.EncounterZone{
		Header:   record.Header{Key: Key(key), EDID: edid},
		Flags:    flags,
		MinLevel: minLevel,
		MaxLevel: maxLevel,
	}
}

// ZoneAt is Zone with a location link.
func ZoneAt(key, edid, location string, minLevel, maxLevel uint16) *record.EncounterZone {
	z := Zone(key, edid, minLevel, maxLevel, 0)
	z.Location.SetTo(Key(location))
	return z
}

// Location builds a location tagged with keyword keys.
func Location(key, edid string, keywords ...string) *record.Location {
	l := &record.Location{Header: record.Header{Key: Key(key), EDID: edid}}
	for _, kw := range keywords {
		l.Keywords = append(l.Keywords, record.LinkTo[*record.Keyword](Key(kw)))
	}
	return l
}

// Keyword builds a keyword.
func Keyword(key, edid string) *record.Keyword {
	return &record.Keyword{Header: record.Header{Key: Key(key), EDID: edid}}
}

// Class builds a class.
func Class(key, edid string, weights []record.SkillWeight, perks ...record.PerkRank) *record.Class {
	return &record.Class{
		Header:       record.Header{Key: Key(key), EDID: edid},
		SkillWeights: weights,
		Perks:        perks,
	}
}

// Entry builds a leveled list entry. An empty ref leaves the reference null.
func Entry(level, count uint16, ref string) record.LeveledEntry {
	e := record.LeveledEntry{Level: level, Count: count}
	if ref != "" {
		e.Reference.SetTo(Key(ref))
	}
	return e
}

// Leveled builds a leveled NPC list.
func Leveled(key, edid string, entries ...record.LeveledEntry) *record.LeveledNPC {
	return &record.LeveledNPC{
		Header:  record.Header{Key: Key(key), EDID: edid},
		Entries: entries,
	}
}

// FloatSetting builds a float game setting.
func FloatSetting(key, edid string, v float64) *record.GameSetting {
	return &record.GameSetting{
		Header: record.Header{Key: Key(key), EDID: edid},
		Type:   record.SettingFloat,
		Float:  v,
	}
}

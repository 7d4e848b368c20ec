package record

import "slices"

// SkillValue is an NPC's level in one skill.
type SkillValue struct {
	Skill Skill  `json:"skill" yaml:"skill"`
	Level uint16 `json:"level" yaml:"level"`
}

// SkillWeight is a class's relative investment in one skill.
type SkillWeight struct {
	Skill  Skill   `json:"skill" yaml:"skill"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// PerkRank grants a perk at a rank. Perks are referenced by key only; their
// definitions are not modeled.
type PerkRank struct {
	Perk FormKey `json:"perk" yaml:"perk"`
	Rank uint8   `json:"rank" yaml:"rank"`
}

// NPCConfiguration holds the level-scaling block of an NPC.
type NPCConfiguration struct {
	Flags    NPCFlags `json:"flags,omitempty" yaml:"flags,omitempty"`
	MinLevel uint16   `json:"min_level" yaml:"min_level"`
	MaxLevel uint16   `json:"max_level" yaml:"max_level"`
}

// NPC is a non-player actor definition.
type NPC struct {
	Header        `yaml:",inline"`
	Level         uint16               `json:"level" yaml:"level"`
	LevelMult     float64              `json:"level_mult" yaml:"level_mult"`
	LevelOffset   int16                `json:"level_offset" yaml:"level_offset"`
	Configuration NPCConfiguration     `json:"configuration" yaml:"configuration"`
	Zone          Link[*EncounterZone] `json:"zone,omitzero" yaml:"zone,omitempty"`
	Class         Link[*Class]         `json:"class,omitzero" yaml:"class,omitempty"`
	DefaultOutfit Link[*Outfit]        `json:"default_outfit,omitzero" yaml:"default_outfit,omitempty"`
	Skills        []SkillValue         `json:"skills,omitempty" yaml:"skills,omitempty"`
	Perks         []PerkRank           `json:"perks,omitempty" yaml:"perks,omitempty"`
}

// Category implements Record.
func (*NPC) Category() Category { return CategoryNPC }

// Clone implements Record.
func (n *NPC) Clone() Record { return n.Copy() }

// Copy returns a deep copy with the concrete type.
func (n *NPC) Copy() *NPC {
	c := *n
	c.Skills = slices.Clone(n.Skills)
	c.Perks = slices.Clone(n.Perks)
	return &c
}

// EncounterZone controls the level range of actors spawned in an area.
type EncounterZone struct {
	Header   `yaml:",inline"`
	Location Link[*Location] `json:"location,omitzero" yaml:"location,omitempty"`
	Flags    ZoneFlags       `json:"flags,omitempty" yaml:"flags,omitempty"`
	MinLevel uint16          `json:"min_level" yaml:"min_level"`
	MaxLevel uint16          `json:"max_level" yaml:"max_level"`
}

// Category implements Record.
func (*EncounterZone) Category() Category { return CategoryEncounterZone }

// Clone implements Record.
func (z *EncounterZone) Clone() Record { return z.Copy() }

// Copy returns a copy with the concrete type.
func (z *EncounterZone) Copy() *EncounterZone {
	c := *z
	return &c
}

// Location is a named place tagged with keywords.
type Location struct {
	Header   `yaml:",inline"`
	Keywords []Link[*Keyword] `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// Category implements Record.
func (*Location) Category() Category { return CategoryLocation }

// Clone implements Record.
func (l *Location) Clone() Record {
	c := *l
	c.Keywords = slices.Clone(l.Keywords)
	return &c
}

// Keyword is a tag whose EditorID is used for matching.
type Keyword struct {
	Header `yaml:",inline"`
}

// Category implements Record.
func (*Keyword) Category() Category { return CategoryKeyword }

// Clone implements Record.
func (k *Keyword) Clone() Record {
	c := *k
	return &c
}

// Class describes skill investment and the perks granted to members.
type Class struct {
	Header       `yaml:",inline"`
	SkillWeights []SkillWeight `json:"skill_weights,omitempty" yaml:"skill_weights,omitempty"`
	Perks        []PerkRank    `json:"perks,omitempty" yaml:"perks,omitempty"`
}

// Category implements Record.
func (*Class) Category() Category { return CategoryClass }

// Clone implements Record.
func (c *Class) Clone() Record { return c.Copy() }

// Copy returns a deep copy with the concrete type.
func (c *Class) Copy() *Class {
	cp := *c
	cp.SkillWeights = slices.Clone(c.SkillWeights)
	cp.Perks = slices.Clone(c.Perks)
	return &cp
}

// Weight returns the weight for skill s, if the class lists it.
func (c *Class) Weight(s Skill) (float64, bool) {
	for _, w := range c.SkillWeights {
		if w.Skill == s {
			return w.Weight, true
		}
	}
	return 0, false
}

// LeveledEntry is one row of a leveled list.
type LeveledEntry struct {
	Level     uint16     `json:"level" yaml:"level"`
	Count     uint16     `json:"count" yaml:"count"`
	Reference Link[*NPC] `json:"reference,omitzero" yaml:"reference,omitempty"`
}

// LeveledNPC is a leveled list of actors.
type LeveledNPC struct {
	Header  `yaml:",inline"`
	Entries []LeveledEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Category implements Record.
func (*LeveledNPC) Category() Category { return CategoryLeveledNPC }

// Clone implements Record.
func (l *LeveledNPC) Clone() Record { return l.Copy() }

// Copy returns a deep copy with the concrete type.
func (l *LeveledNPC) Copy() *LeveledNPC {
	c := *l
	c.Entries = slices.Clone(l.Entries)
	return &c
}

// SettingType is the value type of a game setting.
type SettingType string

const (
	SettingFloat  SettingType = "float"
	SettingInt    SettingType = "int"
	SettingBool   SettingType = "bool"
	SettingString SettingType = "string"
)

// GameSetting is a global engine tunable.
type GameSetting struct {
	Header `yaml:",inline"`
	Type   SettingType `json:"type" yaml:"type"`
	Float  float64     `json:"float,omitempty" yaml:"float,omitempty"`
	Int    int64       `json:"int,omitempty" yaml:"int,omitempty"`
	Bool   bool        `json:"bool,omitempty" yaml:"bool,omitempty"`
	Text   string      `json:"string,omitempty" yaml:"string,omitempty"`
}

// Category implements Record.
func (*GameSetting) Category() Category { return CategoryGameSetting }

// Clone implements Record.
func (g *GameSetting) Clone() Record {
	c := *g
	return &c
}

// Outfit is a list of items worn by default.
type Outfit struct {
	Header `yaml:",inline"`
	Items  []FormKey `json:"items,omitempty" yaml:"items,omitempty"`
}

// Category implements Record.
func (*Outfit) Category() Category { return CategoryOutfit }

// Clone implements Record.
func (o *Outfit) Clone() Record {
	c := *o
	c.Items = slices.Clone(o.Items)
	return &c
}

// Package config loads the rule tables that drive a patch run.
//
// Settings and zone lists are read with CUE: a settings file may be written
// in CUE or plain JSON and is unified with an embedded schema that supplies
// defaults and rejects structurally invalid values. Individual table entries
// (zone definitions, zone level overrides, excluded NPC keys) are validated
// one at a time when Tables are built; a malformed entry is skipped and
// reported as an Issue rather than failing the run.
package config

import _ "embed"

//go:embed schema.cue
var schemaCUE string

// File names looked up in a config directory.
const (
	SettingsCUE  = "settings.cue"
	SettingsJSON = "settings.json"

	ZoneTypesKeywordPath    = "zone_types_keyword.json"
	ZoneTypesEDIDPath       = "zone_types_edid.json"
	ZoneTypesKeywordMLUPath = "zone_types_keyword_mlu.json"
	ZoneTypesEDIDMLUPath    = "zone_types_edid_mlu.json"
)

// Level modes for NPC level fixing.
const (
	LevelModeRaise = "raise" // raise Level to the zone maximum when below it
	LevelModePin   = "pin"   // set Level to exactly the zone maximum
)

// Leveled list modes.
const (
	LeveledModeRaise   = "raise"
	LeveledModeFlatten = "flatten"
)

// Settings mirrors the user-facing settings file.
type Settings struct {
	DefaultMaxLevel int                `json:"default_max_level"`
	Zones           ZoneSettings       `json:"zones"`
	NPCs            NPCSettings        `json:"npcs"`
	Leveled         LeveledSettings    `json:"leveled"`
	ZoneMaxLevels   map[string]float64 `json:"zone_max_levels"`
}

// ZoneSettings configures the encounter zone pass and spawn multipliers.
type ZoneSettings struct {
	UseMorrowlootZoneBalance bool     `json:"use_morrowloot_zone_balance"`
	PluginFilter             []string `json:"plugin_filter"`
	EasySpawnLevelMult       float64  `json:"easy_spawn_level_mult"`
	NormalSpawnLevelMult     float64  `json:"normal_spawn_level_mult"`
	HardSpawnLevelMult       float64  `json:"hard_spawn_level_mult"`
	VeryHardSpawnLevelMult   float64  `json:"very_hard_spawn_level_mult"`
}

// NPCSettings configures the NPC passes.
type NPCSettings struct {
	Excluded  []string `json:"excluded"`
	LevelMode string   `json:"level_mode"`
}

// LeveledSettings configures the leveled list pass.
type LeveledSettings struct {
	Mode  string `json:"mode"`
	Count int    `json:"count"`
}

// ZoneList is one zone definition file.
type ZoneList struct {
	Zones []ZoneEntry `json:"zones"`
}

// ZoneEntry is one zone definition: the keys it matches, the keys that veto
// a match, and the level the zone is pinned to.
type ZoneEntry struct {
	Keys                 []string `json:"keys"`
	ForbiddenKeys        []string `json:"forbidden_keys"`
	MinLevel             float64  `json:"min_level"`
	MaxLevel             float64  `json:"max_level"`
	EnableCombatBoundary *bool    `json:"enable_combat_boundary,omitempty"`
}

// Config is everything loaded from a config directory, before validation
// into Tables.
type Config struct {
	Settings       Settings
	ZonesByKeyword ZoneList
	ZonesByID      ZoneList

	// Sources lists the files that were read, for diagnostics.
	Sources []string
}

package config

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/unlevel/internal/match"
	"github.com/roach88/unlevel/internal/record"
)

// DefaultMaxLevel is the level used when neither the override table nor the
// zone itself provides one.
const DefaultMaxLevel uint16 = 50

// maxZoneLevel bounds zone levels to what an encounter zone can store.
const maxZoneLevel = 255

// Issue is a malformed auxiliary entry that was skipped.
type Issue struct {
	Source  string `json:"source"`
	Entry   string `json:"entry"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Source, i.Entry, i.Message)
}

// ZoneRule is a validated zone definition.
type ZoneRule struct {
	Match                match.Rule
	Keys                 []string
	MaxLevel             uint16
	EnableCombatBoundary *bool
}

// SpawnMult is one game setting to force to a value, by editor ID.
type SpawnMult struct {
	EditorID string
	Value    float64
}

// Spawn multiplier game setting editor IDs.
const (
	GameSettingLeveledActorMultEasy     = "fLeveledActorMultEasy"
	GameSettingLeveledActorMultMedium   = "fLeveledActorMultMedium"
	GameSettingLeveledActorMultHard     = "fLeveledActorMultHard"
	GameSettingLeveledActorMultVeryHard = "fLeveledActorMultVeryHard"
)

// Tables are the validated, read-only lookup tables handed to every rule.
// They are built once before the first pass and never mutated afterwards.
type Tables struct {
	DefaultMaxLevel uint16

	// ZoneLevels holds explicit per-zone maximum levels keyed by zone
	// identity.
	ZoneLevels map[record.Identity]uint16

	ZonesByID      []ZoneRule
	ZonesByKeyword []ZoneRule
	PluginFilter   []record.ModKey

	ExcludedNPCs map[record.Identity]bool
	NPCLevelMode string

	LeveledMode  string
	LeveledCount uint16

	SpawnMults []SpawnMult
}

// ZoneLevel returns the explicit override for zone key, if any.
func (t *Tables) ZoneLevel(key record.FormKey) (uint16, bool) {
	if t == nil {
		return 0, false
	}
	lvl, ok := t.ZoneLevels[key.Identity()]
	return lvl, ok
}

// Excluded reports whether NPC key is excluded from class rewriting.
func (t *Tables) Excluded(key record.FormKey) bool {
	return t != nil && t.ExcludedNPCs[key.Identity()]
}

// Default returns the fallback level, never zero.
func (t *Tables) Default() uint16 {
	if t == nil || t.DefaultMaxLevel == 0 {
		return DefaultMaxLevel
	}
	return t.DefaultMaxLevel
}

// BuildTables validates cfg into Tables. Malformed entries are skipped and
// returned as issues; each issue is also logged at warn level.
func BuildTables(cfg *Config, log *slog.Logger) (*Tables, []Issue) {
	if log == nil {
		log = slog.Default()
	}
	s := cfg.Settings
	t := &Tables{
		DefaultMaxLevel: DefaultMaxLevel,
		ZoneLevels:      make(map[record.Identity]uint16),
		ExcludedNPCs:    make(map[record.Identity]bool),
		NPCLevelMode:    s.NPCs.LevelMode,
		LeveledMode:     s.Leveled.Mode,
		LeveledCount:    1,
	}
	var issues []Issue
	skip := func(source, entry, format string, args ...any) {
		is := Issue{Source: source, Entry: entry, Message: fmt.Sprintf(format, args...)}
		log.Warn("skipping malformed config entry", "source", is.Source, "entry", is.Entry, "reason", is.Message)
		issues = append(issues, is)
	}

	if s.DefaultMaxLevel > 0 && s.DefaultMaxLevel <= math.MaxUint16 {
		t.DefaultMaxLevel = uint16(s.DefaultMaxLevel)
	}
	if t.NPCLevelMode == "" {
		t.NPCLevelMode = LevelModeRaise
	}
	if t.LeveledMode == "" {
		t.LeveledMode = LeveledModeRaise
	}
	if s.Leveled.Count > 0 && s.Leveled.Count <= math.MaxUint16 {
		t.LeveledCount = uint16(s.Leveled.Count)
	}

	// Sorted for deterministic issue order.
	zoneKeys := make([]string, 0, len(s.ZoneMaxLevels))
	for k := range s.ZoneMaxLevels {
		zoneKeys = append(zoneKeys, k)
	}
	slices.Sort(zoneKeys)
	for _, raw := range zoneKeys {
		key, err := record.ParseFormKey(raw)
		if err != nil {
			skip("zone_max_levels", raw, "%v", err)
			continue
		}
		lvl, ok := asLevel(s.ZoneMaxLevels[raw])
		if !ok {
			skip("zone_max_levels", raw, "level %v is not an integer in 1..%d", s.ZoneMaxLevels[raw], maxZoneLevel)
			continue
		}
		if _, dup := t.ZoneLevels[key.Identity()]; dup {
			skip("zone_max_levels", raw, "zone %s is listed twice", key)
			continue
		}
		t.ZoneLevels[key.Identity()] = lvl
	}

	for i, raw := range s.NPCs.Excluded {
		key, err := record.ParseFormKey(raw)
		if err != nil {
			skip("npcs.excluded", fmt.Sprintf("[%d]", i), "%v", err)
			continue
		}
		t.ExcludedNPCs[key.Identity()] = true
	}

	for _, name := range s.Zones.PluginFilter {
		if name == "" {
			continue
		}
		t.PluginFilter = append(t.PluginFilter, record.ModKey(name))
	}

	t.ZonesByID = buildZoneRules("zones_by_id", cfg.ZonesByID, skip)
	t.ZonesByKeyword = buildZoneRules("zones_by_keyword", cfg.ZonesByKeyword, skip)

	t.SpawnMults = []SpawnMult{
		{GameSettingLeveledActorMultEasy, s.Zones.EasySpawnLevelMult},
		{GameSettingLeveledActorMultMedium, s.Zones.NormalSpawnLevelMult},
		{GameSettingLeveledActorMultHard, s.Zones.HardSpawnLevelMult},
		{GameSettingLeveledActorMultVeryHard, s.Zones.VeryHardSpawnLevelMult},
	}

	return t, issues
}

func buildZoneRules(source string, list ZoneList, skip func(source, entry, format string, args ...any)) []ZoneRule {
	var rules []ZoneRule
	for i, ze := range list.Zones {
		entry := fmt.Sprintf("zones[%d]", i)
		r := ZoneRule{
			Match:                match.NewRule(ze.Keys, ze.ForbiddenKeys),
			Keys:                 slices.Clone(ze.Keys),
			EnableCombatBoundary: ze.EnableCombatBoundary,
		}
		if r.Match.Empty() {
			skip(source, entry, "no match keys")
			continue
		}
		lvl, ok := asLevel(ze.MaxLevel)
		if !ok {
			skip(source, entry, "max_level %v is not an integer in 1..%d", ze.MaxLevel, maxZoneLevel)
			continue
		}
		if ze.MinLevel > ze.MaxLevel {
			skip(source, entry, "min_level %v exceeds max_level %v", ze.MinLevel, ze.MaxLevel)
			continue
		}
		r.MaxLevel = lvl
		rules = append(rules, r)
	}
	return rules
}

func asLevel(v float64) (uint16, bool) {
	if v != math.Trunc(v) || v < 1 || v > maxZoneLevel {
		return 0, false
	}
	return uint16(v), true
}

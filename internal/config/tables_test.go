package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/record"
)

func TestBuildTables_Valid(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Settings.ZoneMaxLevels = map[string]float64{"000A:Skyrim.esm": 40}
	cfg.Settings.NPCs.Excluded = []string{"032D9E:Skyrim.esm"}
	cfg.Settings.Zones.PluginFilter = []string{"Filtered.esp", ""}
	cfg.Settings.Zones.VeryHardSpawnLevelMult = 2
	cfg.ZonesByKeyword.Zones = []ZoneEntry{{Keys: []string{"LocTypeDungeon"}, MaxLevel: 30}}

	tables, issues := BuildTables(cfg, nil)
	assert.Empty(t, issues)

	lvl, ok := tables.ZoneLevel(record.MustFormKey("A:Skyrim.esm"))
	assert.True(t, ok)
	assert.Equal(t, uint16(40), lvl)
	assert.True(t, tables.Excluded(record.MustFormKey("32D9E:Skyrim.esm")))
	assert.Equal(t, []record.ModKey{"Filtered.esp"}, tables.PluginFilter)
	assert.Equal(t, DefaultMaxLevel, tables.Default())
	require.Len(t, tables.ZonesByKeyword, 1)
	assert.Equal(t, uint16(30), tables.ZonesByKeyword[0].MaxLevel)
	assert.True(t, tables.ZonesByKeyword[0].Match.Matches("loctypedungeon"))

	require.Len(t, tables.SpawnMults, 4)
	assert.Equal(t, SpawnMult{GameSettingLeveledActorMultVeryHard, 2}, tables.SpawnMults[3])
}

func TestBuildTables_MalformedEntriesSkipped(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Settings.ZoneMaxLevels = map[string]float64{
		"not-a-key":       40,
		"000B:Skyrim.esm": 12.5,
		"000C:Skyrim.esm": 0,
		"000D:Skyrim.esm": 20,
	}
	cfg.Settings.NPCs.Excluded = []string{"bogus"}
	cfg.ZonesByID.Zones = []ZoneEntry{
		{Keys: nil, MaxLevel: 10},
		{Keys: []string{"X"}, MaxLevel: 300},
		{Keys: []string{"Y"}, MinLevel: 20, MaxLevel: 10},
		{Keys: []string{"Z"}, MaxLevel: 10},
	}

	tables, issues := BuildTables(cfg, nil)

	assert.Len(t, issues, 7)
	assert.Equal(t, map[record.Identity]uint16{record.MustFormKey("D:Skyrim.esm").Identity(): 20}, tables.ZoneLevels)
	assert.Empty(t, tables.ExcludedNPCs)
	require.Len(t, tables.ZonesByID, 1)
	assert.Equal(t, []string{"Z"}, tables.ZonesByID[0].Keys)
}

func TestBuildTables_KeysIgnorePluginCase(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Settings.ZoneMaxLevels = map[string]float64{"000A:skyrim.esm": 40}
	cfg.Settings.NPCs.Excluded = []string{"032D9E:SKYRIM.ESM"}

	tables, issues := BuildTables(cfg, nil)
	assert.Empty(t, issues)

	lvl, ok := tables.ZoneLevel(record.MustFormKey("00000A:Skyrim.esm"))
	assert.True(t, ok)
	assert.Equal(t, uint16(40), lvl)
	assert.True(t, tables.Excluded(record.MustFormKey("032D9E:Skyrim.esm")))
}

func TestBuildTables_ZoneListedTwiceInDifferentCase(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)
	cfg.Settings.ZoneMaxLevels = map[string]float64{
		"000A:Skyrim.esm": 40,
		"000A:skyrim.esm": 20,
	}

	tables, issues := BuildTables(cfg, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, "000A:skyrim.esm", issues[0].Entry)
	lvl, ok := tables.ZoneLevel(record.MustFormKey("A:SKYRIM.ESM"))
	assert.True(t, ok)
	assert.Equal(t, uint16(40), lvl)
}

func TestTables_NilSafe(t *testing.T) {
	var tables *Tables
	_, ok := tables.ZoneLevel(record.MustFormKey("1:Skyrim.esm"))
	assert.False(t, ok)
	assert.False(t, tables.Excluded(record.MustFormKey("1:Skyrim.esm")))
	assert.Equal(t, DefaultMaxLevel, tables.Default())
}

func TestParseEnv_Defaults(t *testing.T) {
	t.Setenv("UNLEVEL_DB", "/tmp/unlevel.db")
	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/unlevel.db", e.Database)
	assert.Equal(t, "Unlevel.esp", e.OutputName)
	assert.Equal(t, 100, e.ProgressEvery)
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("UNLEVEL_PROGRESS_EVERY", "often")
	_, err := LoadEnv()
	assert.Error(t, err)
}

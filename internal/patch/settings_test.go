package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/record"
	tu "github.com/roach88/unlevel/internal/testutil"
)

func TestGameSettingsPass(t *testing.T) {
	easy := tu.FloatSetting("000800:Skyrim.esm", "fLeveledActorMultEasy", 0.33)
	hard := tu.FloatSetting("000802:Skyrim.esm", "FLEVELEDACTORMULTHARD", 1.25)
	other := tu.FloatSetting("000803:Skyrim.esm", "fJumpHeightMin", 76)
	intSetting := &record.GameSetting{
		Header: record.Header{Key: tu.Key("000804:Skyrim.esm"), EDID: "fLeveledActorMultMedium"},
		Type:   record.SettingInt,
		Int:    3,
	}
	tables := newTables()
	tables.SpawnMults = []config.SpawnMult{
		{EditorID: config.GameSettingLeveledActorMultEasy, Value: 1},
		{EditorID: config.GameSettingLeveledActorMultMedium, Value: 1},
		{EditorID: config.GameSettingLeveledActorMultHard, Value: 1.25},
	}

	w, stats := runPass(t, GameSettingsPass(), tables, tu.Layer("Skyrim.esm", easy, hard, other, intSetting))

	assert.Equal(t, 4, stats.Processed)
	assert.Equal(t, 1, stats.Changed, "only the easy multiplier differs")
	got, ok := w.Get(record.CategoryGameSetting, easy.FormKey())
	require.True(t, ok)
	assert.Equal(t, 1.0, got.(*record.GameSetting).Float)
}

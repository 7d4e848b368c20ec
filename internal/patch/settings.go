package patch

import (
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/record"
)

// GameSettingsPass forces the spawn level multipliers to their configured
// values.
func GameSettingsPass() *engine.Pass[*record.GameSetting] {
	return &engine.Pass[*record.GameSetting]{
		Name:     "game_settings",
		Category: record.CategoryGameSetting,
		Pipeline: engine.NewPipeline(engine.Mutate("spawn-level-mult", setSpawnMult)),
	}
}

func setSpawnMult(g *record.GameSetting, ctx *engine.Context) bool {
	if g.Type != record.SettingFloat || g.EditorID() == "" {
		return false
	}
	edid := record.Fold(g.EditorID())
	for _, m := range tablesOf(ctx).SpawnMults {
		if record.Fold(m.EditorID) != edid {
			continue
		}
		if g.Float == m.Value {
			return false
		}
		g.Float = m.Value
		return true
	}
	return false
}

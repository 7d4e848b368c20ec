package patch

import (
	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
)

var emptyTables = &config.Tables{DefaultMaxLevel: config.DefaultMaxLevel}

func tablesOf(ctx *engine.Context) *config.Tables {
	if ctx == nil || ctx.Tables == nil {
		return emptyTables
	}
	return ctx.Tables
}

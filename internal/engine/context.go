package engine

import (
	"log/slog"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/linkcache"
	"github.com/roach88/unlevel/internal/loadorder"
)

// Context bundles everything a rule may consult. It is passed explicitly to
// every rule call and is read-only for the duration of a pass.
type Context struct {
	Links  *linkcache.Cache
	Tables *config.Tables
	Log    *slog.Logger
}

// NewContext builds a Context over store s. A nil logger falls back to
// slog.Default().
func NewContext(s *loadorder.Store, tables *config.Tables, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{
		Links:  linkcache.New(s, log),
		Tables: tables,
		Log:    log,
	}
}

// Store returns the store the context resolves against.
func (c *Context) Store() *loadorder.Store {
	return c.Links.Store()
}

// Logger returns the context's logger, or slog.Default() when none is set.
func (c *Context) Logger() *slog.Logger {
	if c == nil || c.Log == nil {
		return slog.Default()
	}
	return c.Log
}

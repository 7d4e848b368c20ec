// Package linkcache resolves weak record links against a Store.
//
// Resolution never raises: a null link, a dangling key, or a key whose
// winner has an unexpected Go type all resolve to (zero, false). Chained
// lookups (NPC → Class → perks) are successive single-hop calls; the cache
// does not detect cycles across hops, each hop being a bounded lookup.
package linkcache

import (
	"log/slog"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// Cache resolves links against one frozen Store.
type Cache struct {
	store *loadorder.Store
	log   *slog.Logger
}

// New creates a Cache over s. A nil logger falls back to slog.Default().
func New(s *loadorder.Store, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: s, log: log}
}

// Store returns the underlying store.
func (c *Cache) Store() *loadorder.Store {
	return c.store
}

// Lookup resolves a raw key in category cat.
func (c *Cache) Lookup(cat record.Category, key record.FormKey) (record.Record, bool) {
	if key.IsZero() {
		return nil, false
	}
	return c.store.ResolveWinner(cat, key)
}

// categoryOf maps a concrete record type to its category without needing a
// value.
func categoryOf[T record.Record]() (record.Category, bool) {
	var zero T
	switch any(zero).(type) {
	case *record.NPC:
		return record.CategoryNPC, true
	case *record.EncounterZone:
		return record.CategoryEncounterZone, true
	case *record.Location:
		return record.CategoryLocation, true
	case *record.Keyword:
		return record.CategoryKeyword, true
	case *record.Class:
		return record.CategoryClass, true
	case *record.LeveledNPC:
		return record.CategoryLeveledNPC, true
	case *record.GameSetting:
		return record.CategoryGameSetting, true
	case *record.Outfit:
		return record.CategoryOutfit, true
	default:
		return "", false
	}
}

// Resolve returns the winning definition referenced by link, or false when
// the link is null or does not resolve.
func Resolve[T record.Record](c *Cache, link record.Link[T]) (T, bool) {
	var zero T
	if c == nil || link.IsNull() {
		return zero, false
	}
	cat, ok := categoryOf[T]()
	if !ok {
		return zero, false
	}
	return ResolveIn[T](c, cat, link.Key)
}

// ResolveIn resolves key in an explicit category and asserts the winner's
// type. A winner of the wrong type is reported as absent.
func ResolveIn[T record.Record](c *Cache, cat record.Category, key record.FormKey) (T, bool) {
	var zero T
	r, ok := c.Lookup(cat, key)
	if !ok {
		return zero, false
	}
	typed, ok := r.(T)
	if !ok {
		c.log.Debug("link target has unexpected type",
			"category", cat,
			"form_key", key.String(),
			"type", typeName(r),
		)
		return zero, false
	}
	return typed, true
}

// ResolveAll resolves each link and returns the targets that resolved, in
// input order.
func ResolveAll[T record.Record](c *Cache, links []record.Link[T]) []T {
	out := make([]T, 0, len(links))
	for _, l := range links {
		if t, ok := Resolve(c, l); ok {
			out = append(out, t)
		}
	}
	return out
}

func typeName(r record.Record) string {
	if r == nil {
		return "<nil>"
	}
	return string(r.Category())
}

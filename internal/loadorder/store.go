package loadorder

import (
	"fmt"
	"iter"
	"slices"

	"github.com/roach88/unlevel/internal/record"
)

// Store is an immutable load order: layers ordered lowest priority first.
//
// Thread-safety: a Store is read-only after construction and safe for
// concurrent use.
type Store struct {
	layers []*Layer
}

// Resolution is a winning definition together with the layer it came from.
type Resolution struct {
	Record record.Record
	Layer  record.ModKey
}

// New builds a Store from layers in load order (lowest priority first).
// Two layers naming the same plugin is a structural error.
//
// The layers slice is copied; the layers themselves are shared and must not
// be modified afterwards.
func New(layers ...*Layer) (*Store, error) {
	seen := make(map[string]bool, len(layers))
	for _, l := range layers {
		if l == nil {
			return nil, fmt.Errorf("new store: nil layer")
		}
		folded := l.name.Folded()
		if seen[folded] {
			return nil, &LayerError{Code: ErrCodeDuplicateLayer, Layer: l.name, Message: "plugin appears twice in load order"}
		}
		seen[folded] = true
	}
	return &Store{layers: slices.Clone(layers)}, nil
}

// MustNew is like New but panics on error.
// Use only in tests.
func MustNew(layers ...*Layer) *Store {
	s, err := New(layers...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithTop returns a new Store with top stacked above every existing layer.
// The receiver is not modified.
func (s *Store) WithTop(top *Layer) (*Store, error) {
	layers := make([]*Layer, 0, len(s.layers)+1)
	layers = append(layers, s.layers...)
	layers = append(layers, top)
	return New(layers...)
}

// Layers returns the layers in load order (lowest priority first).
func (s *Store) Layers() []*Layer {
	return slices.Clone(s.layers)
}

// Layer returns the layer for plugin name, matched case-insensitively.
func (s *Store) Layer(name record.ModKey) (*Layer, bool) {
	for _, l := range s.layers {
		if l.name.Equal(name) {
			return l, true
		}
	}
	return nil, false
}

// Subset returns a Store with only the named plugins, keeping load order.
// Unknown names are ignored.
func (s *Store) Subset(names ...record.ModKey) *Store {
	var keep []*Layer
	for _, l := range s.layers {
		for _, n := range names {
			if l.name.Equal(n) {
				keep = append(keep, l)
				break
			}
		}
	}
	return &Store{layers: keep}
}

// Lookup resolves the winning definition of key in category c.
//
// Layers are walked in priority order; the first mention decides. A
// tombstone (or a definition flagged deleted) makes the key unresolvable
// even when lower layers define it. The bool is false when nothing wins.
func (s *Store) Lookup(c record.Category, key record.FormKey) (Resolution, bool) {
	for i := len(s.layers) - 1; i >= 0; i-- {
		r, ok := s.layers[i].Get(c, key)
		if !ok {
			continue
		}
		if r.IsDeleted() {
			return Resolution{}, false
		}
		return Resolution{Record: r, Layer: s.layers[i].name}, true
	}
	return Resolution{}, false
}

// ResolveWinner returns the winning definition of key in category c.
func (s *Store) ResolveWinner(c record.Category, key record.FormKey) (record.Record, bool) {
	res, ok := s.Lookup(c, key)
	return res.Record, ok
}

// Defines reports whether any layer mentions key in c, tombstones included.
func (s *Store) Defines(c record.Category, key record.FormKey) bool {
	for _, l := range s.layers {
		if _, ok := l.Get(c, key); ok {
			return true
		}
	}
	return false
}

// Keys returns every distinct key mentioned in c across all layers, sorted.
// A key spelled with different plugin-name case in several layers is
// listed once, as the lowest layer spells it.
func (s *Store) Keys(c record.Category) []record.FormKey {
	seen := make(map[record.Identity]bool)
	var keys []record.FormKey
	for _, l := range s.layers {
		for id, r := range l.records[c] {
			if !seen[id] {
				seen[id] = true
				keys = append(keys, r.FormKey())
			}
		}
	}
	slices.SortFunc(keys, record.CompareFormKeys)
	return keys
}

// AllWinningOverrides yields exactly one winner per distinct non-deleted key
// in category c, sorted by FormKey. The sequence is lazy: winners are
// resolved as the consumer pulls them. It can be iterated more than once.
//
// An unknown category is a structural error.
func (s *Store) AllWinningOverrides(c record.Category) (iter.Seq[record.Record], error) {
	if !c.Valid() {
		return nil, &LayerError{Code: ErrCodeUnknownCategory, Category: c, Message: "cannot enumerate unknown category"}
	}
	keys := s.Keys(c)
	return func(yield func(record.Record) bool) {
		for _, k := range keys {
			r, ok := s.ResolveWinner(c, k)
			if !ok {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}, nil
}

// Winners is the typed form of AllWinningOverrides. Records whose Go type is
// not T are skipped.
func Winners[T record.Record](s *Store, c record.Category) (iter.Seq[T], error) {
	all, err := s.AllWinningOverrides(c)
	if err != nil {
		return nil, err
	}
	return func(yield func(T) bool) {
		for r := range all {
			typed, ok := r.(T)
			if !ok {
				continue
			}
			if !yield(typed) {
				return
			}
		}
	}, nil
}

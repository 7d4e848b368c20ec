package loadorder

import (
	"iter"
	"slices"

	"github.com/roach88/unlevel/internal/record"
)

// Layer is one input source: the records (and tombstones) a single plugin
// contributes. A key appears at most once per category in a layer.
//
// Keys are held by record.Identity, so two keys that differ only in the
// case of the plugin name are the same entry.
//
// A Layer is built with Add/Delete and must not be modified after it has
// been handed to a Store.
type Layer struct {
	name    record.ModKey
	records map[record.Category]map[record.Identity]record.Record
}

// NewLayer creates an empty layer named after the plugin it represents.
func NewLayer(name record.ModKey) *Layer {
	return &Layer{
		name:    name,
		records: make(map[record.Category]map[record.Identity]record.Record),
	}
}

// Name returns the plugin name of the layer.
func (l *Layer) Name() record.ModKey {
	return l.name
}

// Add inserts a definition. Adding a key already present in the same
// category is a structural error.
func (l *Layer) Add(r record.Record) error {
	c := r.Category()
	if !c.Valid() {
		return &LayerError{Code: ErrCodeUnknownCategory, Layer: l.name, Category: c, Key: r.FormKey(), Message: "unknown record category"}
	}
	key := r.FormKey()
	if key.IsZero() {
		return &LayerError{Code: ErrCodeInvalidKey, Layer: l.name, Category: c, Message: "record has no form key"}
	}
	byKey, ok := l.records[c]
	if !ok {
		byKey = make(map[record.Identity]record.Record)
		l.records[c] = byKey
	}
	if _, exists := byKey[key.Identity()]; exists {
		return &LayerError{Code: ErrCodeDuplicateKey, Layer: l.name, Category: c, Key: key, Message: "key defined twice in layer"}
	}
	byKey[key.Identity()] = r
	return nil
}

// MustAdd is like Add but panics on error.
// Use only in tests or when inputs are known to be valid.
func (l *Layer) MustAdd(records ...record.Record) *Layer {
	for _, r := range records {
		if err := l.Add(r); err != nil {
			panic(err)
		}
	}
	return l
}

// Delete records a tombstone for key in category c.
func (l *Layer) Delete(c record.Category, key record.FormKey) error {
	return l.Add(record.NewTombstone(c, key))
}

// Get returns this layer's own mention of key, which may be a tombstone.
func (l *Layer) Get(c record.Category, key record.FormKey) (record.Record, bool) {
	r, ok := l.records[c][key.Identity()]
	return r, ok
}

// Len returns the number of entries (definitions and tombstones) in c.
func (l *Layer) Len(c record.Category) int {
	return len(l.records[c])
}

// Categories returns the categories this layer mentions, in declaration order.
func (l *Layer) Categories() []record.Category {
	var out []record.Category
	for _, c := range record.Categories() {
		if len(l.records[c]) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Keys returns the keys this layer mentions in c, sorted.
func (l *Layer) Keys(c record.Category) []record.FormKey {
	keys := make([]record.FormKey, 0, len(l.records[c]))
	for _, r := range l.records[c] {
		keys = append(keys, r.FormKey())
	}
	slices.SortFunc(keys, record.CompareFormKeys)
	return keys
}

// Records yields this layer's entries in c in key order, tombstones included.
func (l *Layer) Records(c record.Category) iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		for _, k := range l.Keys(c) {
			if !yield(l.records[c][k.Identity()]) {
				return
			}
		}
	}
}

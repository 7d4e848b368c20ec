// Package output accumulates the records a run has changed into a new
// override layer.
//
// Commits are insert-or-replace per (category, key): within a run the last
// commit wins and the layer never holds two entries for one key.
package output

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// Writer is the output layer under construction.
//
// Thread-safety: Commit and all readers are serialized by a mutex, so
// per-record rule evaluation may be parallelized without further
// coordination.
type Writer struct {
	name record.ModKey

	mu      sync.Mutex
	records map[record.Category]map[record.Identity]record.Record
	commits int
}

// NewWriter creates an empty output layer for plugin name.
func NewWriter(name record.ModKey) *Writer {
	return &Writer{
		name:    name,
		records: make(map[record.Category]map[record.Identity]record.Record),
	}
}

// Name returns the plugin name of the output layer.
func (w *Writer) Name() record.ModKey {
	return w.name
}

// Commit inserts or replaces the record for its key in category c.
// The writer takes ownership of r; callers must not mutate it afterwards.
func (w *Writer) Commit(c record.Category, r record.Record) error {
	if r == nil {
		return fmt.Errorf("commit %s: nil record", c)
	}
	if r.Category() != c {
		return &loadorder.LayerError{
			Code:     loadorder.ErrCodeCategoryMismatch,
			Layer:    w.name,
			Category: c,
			Key:      r.FormKey(),
			Message:  fmt.Sprintf("record of category %s committed as %s", r.Category(), c),
		}
	}
	if r.FormKey().IsZero() {
		return &loadorder.LayerError{Code: loadorder.ErrCodeInvalidKey, Layer: w.name, Category: c, Message: "commit without form key"}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	byKey, ok := w.records[c]
	if !ok {
		byKey = make(map[record.Identity]record.Record)
		w.records[c] = byKey
	}
	byKey[r.FormKey().Identity()] = r
	w.commits++
	return nil
}

// Contains reports whether key has been committed in category c.
func (w *Writer) Contains(c record.Category, key record.FormKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.records[c][key.Identity()]
	return ok
}

// Get returns the committed record for key in c.
func (w *Writer) Get(c record.Category, key record.FormKey) (record.Record, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.records[c][key.Identity()]
	return r, ok
}

// Len returns the number of distinct records in the layer.
func (w *Writer) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, byKey := range w.records {
		n += len(byKey)
	}
	return n
}

// Commits returns how many commits were made, replacements included.
func (w *Writer) Commits() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.commits
}

// Finalize returns the accumulated records of category c sorted by key.
func (w *Writer) Finalize(c record.Category) []record.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := slices.Collect(maps.Values(w.records[c]))
	slices.SortFunc(out, func(a, b record.Record) int {
		return record.CompareFormKeys(a.FormKey(), b.FormKey())
	})
	return out
}

// All returns every committed record, grouped by category in declaration
// order and sorted by key within a category.
func (w *Writer) All() []record.Record {
	var out []record.Record
	for _, c := range record.Categories() {
		out = append(out, w.Finalize(c)...)
	}
	return out
}

// Layer freezes the current contents into a loadorder.Layer named after the
// output plugin. Later commits do not affect the returned layer.
func (w *Writer) Layer() *loadorder.Layer {
	l := loadorder.NewLayer(w.name)
	for _, r := range w.All() {
		// Keys are unique per category by construction.
		_ = l.Add(r)
	}
	return l
}

// Digest returns the content digest of the whole output layer.
func (w *Writer) Digest() (string, error) {
	return record.LayerDigest(w.All())
}

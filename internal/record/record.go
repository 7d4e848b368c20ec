package record

// Record is one definition of a keyed record inside a layer.
//
// Implementations are pointer types. A Record obtained from a layer must be
// treated as read-only; call Clone to obtain a copy that may be mutated.
// Clone preserves identity (same FormKey and Category).
type Record interface {
	FormKey() FormKey
	Category() Category
	EditorID() string
	IsDeleted() bool
	Clone() Record
}

// Header carries the identity fields common to every record.
type Header struct {
	Key     FormKey `json:"form_key" yaml:"form_key"`
	EDID    string  `json:"editor_id,omitempty" yaml:"editor_id,omitempty"`
	Deleted bool    `json:"deleted,omitempty" yaml:"deleted,omitempty"`
}

// FormKey returns the record identity.
func (h *Header) FormKey() FormKey { return h.Key }

// EditorID returns the editor identifier, which may be empty.
func (h *Header) EditorID() string { return h.EDID }

// IsDeleted reports whether this definition is a deletion marker.
func (h *Header) IsDeleted() bool { return h.Deleted }

// Tombstone is a deletion marker for a key within one layer. It suppresses
// every lower-priority definition of the same key.
type Tombstone struct {
	Header
	Of Category `json:"category" yaml:"category"`
}

// NewTombstone builds a deletion marker for key in category c.
func NewTombstone(c Category, key FormKey) *Tombstone {
	return &Tombstone{Header: Header{Key: key, Deleted: true}, Of: c}
}

// Category returns the category the marker deletes from.
func (t *Tombstone) Category() Category { return t.Of }

// IsDeleted always reports true.
func (t *Tombstone) IsDeleted() bool { return true }

// Clone returns a copy of the marker.
func (t *Tombstone) Clone() Record {
	c := *t
	return &c
}

// Link is a weak, typed reference to another record by key. The zero value
// is the null link. Resolving a Link never implies ownership.
type Link[T Record] struct {
	Key FormKey
}

// LinkTo builds a link to key.
func LinkTo[T Record](key FormKey) Link[T] {
	return Link[T]{Key: key}
}

// IsNull reports whether the link points nowhere.
func (l Link[T]) IsNull() bool { return l.Key.IsZero() }

// IsZero lets yaml and json omitzero drop null links.
func (l Link[T]) IsZero() bool { return l.IsNull() }

// SetTo repoints the link at key.
func (l *Link[T]) SetTo(key FormKey) { l.Key = key }

// String returns the target key in textual form.
func (l Link[T]) String() string { return l.Key.String() }

// MarshalText implements encoding.TextMarshaler.
func (l Link[T]) MarshalText() ([]byte, error) { return l.Key.MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Link[T]) UnmarshalText(text []byte) error { return l.Key.UnmarshalText(text) }

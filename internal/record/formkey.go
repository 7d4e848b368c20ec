package record

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// ModKey names the plugin file a record originates from (e.g. "Skyrim.esm").
// Comparison between ModKeys is case-insensitive.
type ModKey string

// Equal reports whether two ModKeys name the same plugin.
func (m ModKey) Equal(other ModKey) bool {
	return m.Folded() == other.Folded()
}

// Folded returns the case-folded plugin name, suitable as a map key.
func (m ModKey) Folded() string {
	return Fold(string(m))
}

// Fold returns the case-folded form of s. A Caser is stateful, so each call
// builds its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// FormKey is the stable identity of a record: origin plugin + local ID.
// Textual form is "032D9E:Skyrim.esm".
type FormKey struct {
	Mod ModKey
	ID  uint32
}

// ParseFormKey parses the textual "ID:Plugin" form. The ID is hexadecimal
// and may be zero-padded to any width up to 8 digits.
func ParseFormKey(s string) (FormKey, error) {
	idPart, modPart, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return FormKey{}, fmt.Errorf("form key %q: missing ':' separator", s)
	}
	if idPart == "" || len(idPart) > 8 {
		return FormKey{}, fmt.Errorf("form key %q: local id must be 1-8 hex digits", s)
	}
	id, err := strconv.ParseUint(idPart, 16, 32)
	if err != nil {
		return FormKey{}, fmt.Errorf("form key %q: local id: %w", s, err)
	}
	if modPart == "" {
		return FormKey{}, fmt.Errorf("form key %q: missing plugin name", s)
	}
	return FormKey{Mod: ModKey(modPart), ID: uint32(id)}, nil
}

// MustFormKey is like ParseFormKey but panics on error.
// Use only in tests or for compile-time constants.
func MustFormKey(s string) FormKey {
	k, err := ParseFormKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String returns the canonical textual form, or "" for the zero key.
func (k FormKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%06X:%s", k.ID, k.Mod)
}

// Identity is the map identity of a FormKey: the folded plugin name and
// the local ID. Keys that differ only in plugin-name case share an Identity.
type Identity struct {
	mod string
	id  uint32
}

// Identity returns the case-insensitive identity of k.
func (k FormKey) Identity() Identity {
	return Identity{mod: k.Mod.Folded(), id: k.ID}
}

// Equal reports whether k and other name the same record.
func (k FormKey) Equal(other FormKey) bool {
	return k.ID == other.ID && k.Mod.Equal(other.Mod)
}

// IsZero reports whether k is the null key.
func (k FormKey) IsZero() bool {
	return k.Mod == "" && k.ID == 0
}

// MarshalText implements encoding.TextMarshaler.
func (k FormKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero key.
func (k *FormKey) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*k = FormKey{}
		return nil
	}
	parsed, err := ParseFormKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// CompareFormKeys orders keys by folded plugin name, then local ID.
// Used wherever a stable enumeration order is required.
func CompareFormKeys(a, b FormKey) int {
	if c := cmp.Compare(a.Mod.Folded(), b.Mod.Folded()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	return cmp.Compare(a.Mod, b.Mod)
}

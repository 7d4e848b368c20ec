package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/unlevel/internal/record"
)

// marshalJSON encodes v as compact JSON TEXT.
// HTML escaping is disabled so EditorIDs containing <, > or & are stored
// verbatim.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalRecord converts a record definition to JSON TEXT for storage.
func marshalRecord(r record.Record) (string, error) {
	data, err := marshalJSON(r)
	if err != nil {
		return "", fmt.Errorf("marshal %s %s: %w", r.Category(), r.FormKey(), err)
	}
	return data, nil
}

// unmarshalRecord decodes a stored payload into the concrete type for
// category c. Tombstones are rebuilt from their key alone.
func unmarshalRecord(c record.Category, key record.FormKey, deleted bool, payload string) (record.Record, error) {
	if deleted {
		return record.NewTombstone(c, key), nil
	}
	r, err := record.New(c)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), r); err != nil {
		return nil, fmt.Errorf("unmarshal %s %s: %w", c, key, err)
	}
	if r.FormKey() != key {
		return nil, fmt.Errorf("unmarshal %s %s: payload carries key %s", c, key, r.FormKey())
	}
	return r, nil
}

func unmarshalJSON[T any](data string) (T, error) {
	var v T
	if data == "" {
		return v, nil
	}
	err := json.Unmarshal([]byte(data), &v)
	return v, err
}

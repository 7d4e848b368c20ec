package layerfile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// file is the on-disk shape of a layer file.
type file struct {
	Plugin  string      `yaml:"plugin,omitempty"`
	Records []yaml.Node `yaml:"records"`
}

// header is the part of an entry read before the record type is known.
type header struct {
	Category record.Category `yaml:"category"`
	Key      record.FormKey  `yaml:"form_key"`
	Deleted  bool            `yaml:"deleted"`
}

// ReadLayer reads the layer file at path as plugin name. A plugin field in
// the file must agree with name, case-insensitively.
func ReadLayer(path string, name record.ModKey) (*loadorder.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Message: "read layer file", Err: err}
	}
	return decodeLayer(path, name, data)
}

// DecodeLayer decodes a layer file from r. path is used in errors only.
func DecodeLayer(r io.Reader, path string, name record.ModKey) (*loadorder.Layer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Path: path, Message: "read layer", Err: err}
	}
	return decodeLayer(path, name, data)
}

func decodeLayer(path string, name record.ModKey, data []byte) (*loadorder.Layer, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, &DecodeError{Path: path, Message: "parse YAML", Err: err}
	}
	if f.Plugin != "" && !record.ModKey(f.Plugin).Equal(name) {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("file declares plugin %q, load order names it %q", f.Plugin, name)}
	}

	l := loadorder.NewLayer(name)
	for i := range f.Records {
		node := &f.Records[i]
		r, err := decodeEntry(node)
		if err != nil {
			return nil, &DecodeError{Path: path, Line: node.Line, Message: fmt.Sprintf("records[%d]", i), Err: err}
		}
		if err := l.Add(r); err != nil {
			return nil, &DecodeError{Path: path, Line: node.Line, Message: fmt.Sprintf("records[%d]", i), Err: err}
		}
	}
	return l, nil
}

func decodeEntry(node *yaml.Node) (record.Record, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("entry is not a mapping")
	}
	var h header
	if err := node.Decode(&h); err != nil {
		return nil, err
	}
	if !h.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q", h.Category)
	}
	if h.Key.IsZero() {
		return nil, fmt.Errorf("form_key is required")
	}

	body := withoutKey(node, "category")
	if h.Deleted {
		if len(body.Content) != 4 {
			return nil, fmt.Errorf("deleted entry carries fields besides form_key")
		}
		return record.NewTombstone(h.Category, h.Key), nil
	}

	r, err := record.New(h.Category)
	if err != nil {
		return nil, err
	}
	// Re-encode the body so the strict decoder can reject unknown fields.
	raw, err := yaml.Marshal(body)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(r); err != nil {
		return nil, err
	}
	return r, nil
}

// withoutKey returns a shallow copy of mapping node m without key.
func withoutKey(m *yaml.Node, key string) *yaml.Node {
	out := *m
	out.Content = nil
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			continue
		}
		out.Content = append(out.Content, m.Content[i], m.Content[i+1])
	}
	return &out
}

// WriteLayer encodes l as a layer file. Entries are grouped by category in
// declaration order and sorted by key, so equal layers encode identically.
func WriteLayer(w io.Writer, l *loadorder.Layer) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	records := &yaml.Node{Kind: yaml.SequenceNode}
	doc.Content = append(doc.Content,
		scalar("plugin"), scalar(string(l.Name())),
		scalar("records"), records,
	)

	for _, c := range l.Categories() {
		for r := range l.Records(c) {
			entry, err := encodeEntry(r)
			if err != nil {
				return fmt.Errorf("encode %s %s: %w", c, r.FormKey(), err)
			}
			records.Content = append(records.Content, entry)
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func encodeEntry(r record.Record) (*yaml.Node, error) {
	entry := &yaml.Node{Kind: yaml.MappingNode}
	entry.Content = append(entry.Content, scalar("category"), scalar(string(r.Category())))
	if r.IsDeleted() {
		entry.Content = append(entry.Content,
			scalar("form_key"), scalar(r.FormKey().String()),
			scalar("deleted"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"},
		)
		return entry, nil
	}

	var body yaml.Node
	if err := body.Encode(r); err != nil {
		return nil, err
	}
	entry.Content = append(entry.Content, body.Content...)
	return entry, nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

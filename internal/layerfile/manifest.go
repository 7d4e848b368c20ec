package layerfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// Manifest lists the layers of a load order, lowest priority first.
type Manifest struct {
	Layers []ManifestEntry `yaml:"layers"`

	// dir is the directory layer file paths are relative to.
	dir string
}

// ManifestEntry names one layer and the file holding it.
type ManifestEntry struct {
	Name record.ModKey `yaml:"name"`
	File string        `yaml:"file"`
}

// ReadManifest reads and validates the manifest at path.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Message: "read manifest", Err: err}
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(&m); err != nil && err != io.EOF {
		return nil, &DecodeError{Path: path, Message: "parse YAML", Err: err}
	}
	m.dir = filepath.Dir(path)

	if err := m.validate(); err != nil {
		return nil, &DecodeError{Path: path, Message: "invalid manifest", Err: err}
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Layers) == 0 {
		return fmt.Errorf("layers list is required and must be non-empty")
	}
	seen := make(map[string]bool, len(m.Layers))
	for i, e := range m.Layers {
		if e.Name == "" {
			return fmt.Errorf("layers[%d]: name is required", i)
		}
		if e.File == "" {
			return fmt.Errorf("layers[%d]: file is required", i)
		}
		if seen[e.Name.Folded()] {
			return fmt.Errorf("layers[%d]: duplicate layer %q", i, e.Name)
		}
		seen[e.Name.Folded()] = true
	}
	return nil
}

// Path returns the resolved path of a layer file.
func (m *Manifest) Path(e ManifestEntry) string {
	if filepath.IsAbs(e.File) || m.dir == "" {
		return e.File
	}
	return filepath.Join(m.dir, e.File)
}

// Names returns the layer names in load order.
func (m *Manifest) Names() []record.ModKey {
	names := make([]record.ModKey, len(m.Layers))
	for i, e := range m.Layers {
		names[i] = e.Name
	}
	return names
}

// Load reads every layer file and builds the load order.
func (m *Manifest) Load() (*loadorder.Store, error) {
	layers := make([]*loadorder.Layer, 0, len(m.Layers))
	for _, e := range m.Layers {
		l, err := ReadLayer(m.Path(e), e.Name)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return loadorder.New(layers...)
}

// LoadOrder reads the manifest at path and every layer it lists.
func LoadOrder(path string) (*loadorder.Store, error) {
	m, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	return m.Load()
}

// WriteLayerFile writes l to path, creating or truncating the file.
func WriteLayerFile(path string, l *loadorder.Layer) error {
	var buf bytes.Buffer
	if err := WriteLayer(&buf, l); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write layer file: %w", err)
	}
	return nil
}

package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/unlevel/internal/record"
)

// DefaultOutput is the output plugin name used when a scenario names none.
const DefaultOutput = "Unlevel.esp"

// Scenario defines one end-to-end patch run and what its output must hold.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// LoadOrder is the path of the load order manifest.
	LoadOrder string `yaml:"load_order"`

	// Config is an optional rule table directory. Empty means schema
	// defaults.
	Config string `yaml:"config,omitempty"`

	// Output is the output plugin name. Defaults to DefaultOutput.
	Output string `yaml:"output,omitempty"`

	// Assertions validate the output layer and the run.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the output of a scenario run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "output_contains": the output holds category/form_key, optionally with fields
	// - "output_absent": the output does not hold category/form_key
	// - "output_count": the output holds exactly Count records
	// - "pass_changed": pass Pass changed exactly Count records
	// - "stored_run": the persisted run reads back with Count records
	// - "fixed_point": a second run over load order + output changes nothing
	Type string `yaml:"type"`

	Category string `yaml:"category,omitempty"`
	FormKey  string `yaml:"form_key,omitempty"`

	// Expect holds expected record fields (used by output_contains).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Pass is the pass name (used by pass_changed).
	Pass string `yaml:"pass,omitempty"`

	// Count is the expected number (used by output_count, pass_changed,
	// stored_run).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertOutputContains = "output_contains"
	AssertOutputAbsent   = "output_absent"
	AssertOutputCount    = "output_count"
	AssertPassChanged    = "pass_changed"
	AssertStoredRun      = "stored_run"
	AssertFixedPoint     = "fixed_point"
)

// LoadScenario reads and parses a scenario YAML file. Relative paths in the
// scenario are resolved against the directory of path.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving relative paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths BEFORE validation
	scenario.LoadOrder = resolvePath(basePath, scenario.LoadOrder)
	scenario.Config = resolvePath(basePath, scenario.Config)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// OutputName returns the output plugin name of s.
func (s *Scenario) OutputName() record.ModKey {
	if s.Output == "" {
		return DefaultOutput
	}
	return record.ModKey(s.Output)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.LoadOrder == "" {
		return fmt.Errorf("load_order is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if _, err := os.Stat(s.LoadOrder); os.IsNotExist(err) {
		return fmt.Errorf("load order manifest not found: %s", s.LoadOrder)
	}
	if s.Config != "" {
		if info, err := os.Stat(s.Config); err != nil || !info.IsDir() {
			return fmt.Errorf("config directory not found: %s", s.Config)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertOutputContains, AssertOutputAbsent:
		if !record.Category(a.Category).Valid() {
			return fmt.Errorf("assertions[%d]: unknown category %q for %s", index, a.Category, a.Type)
		}
		if _, err := record.ParseFormKey(a.FormKey); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		if a.Type == AssertOutputAbsent && len(a.Expect) > 0 {
			return fmt.Errorf("assertions[%d]: expect is not allowed for output_absent", index)
		}
	case AssertOutputCount, AssertStoredRun:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertPassChanged:
		if a.Pass == "" {
			return fmt.Errorf("assertions[%d]: pass is required for pass_changed", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for pass_changed", index)
		}
	case AssertFixedPoint:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

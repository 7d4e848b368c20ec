package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Trace renders the deterministic part of a result: pass stats in run order
// and every output record as compact JSON, one per line. Durations, digests
// and run IDs are left out.
//
//	scenario: bandit_camp
//	output: Unlevel.esp
//	pass zones encounter_zone processed=1 changed=1 skipped=0
//	records: 1
//	encounter_zone 000300:Skyrim.esm {"form_key":"000300:Skyrim.esm",...}
func Trace(name string, result *Result) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "output: %s\n", result.Output)
	for _, p := range result.Passes {
		fmt.Fprintf(&buf, "pass %s %s processed=%d changed=%d skipped=%d\n",
			p.Name, p.Category, p.Processed, p.Changed, p.Skipped)
	}
	fmt.Fprintf(&buf, "records: %d\n", len(result.Records))
	for _, r := range result.Records {
		payload, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("trace %s %s: %w", r.Category(), r.FormKey(), err)
		}
		fmt.Fprintf(&buf, "%s %s %s\n", r.Category(), r.FormKey(), payload)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its trace against a golden
// file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	trace, err := Trace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, trace)
	return nil
}

package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Output   []record.Record // Full output layer for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Output) > 0 {
		fmt.Fprintf(&buf, "\nOutput layer:\n")
		for i, r := range e.Output {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", i+1, r.Category(), r.FormKey(), r.EditorID())
		}
	}
	return buf.String()
}

// assertOutputContains checks that the output holds the record and that its
// fields match the expected subset.
func assertOutputContains(result *Result, a Assertion) error {
	key, err := record.ParseFormKey(a.FormKey)
	if err != nil {
		return fmt.Errorf("%s: %w", AssertOutputContains, err)
	}
	rec, ok := result.Find(record.Category(a.Category), key)
	if !ok {
		return &AssertionError{
			Type:     AssertOutputContains,
			Expected: fmt.Sprintf("%s %s in output", a.Category, key),
			Actual:   "not found in output",
			Output:   result.Records,
		}
	}
	if len(a.Expect) == 0 {
		return nil
	}

	actual, err := toFields(rec)
	if err != nil {
		return fmt.Errorf("%s: %w", AssertOutputContains, err)
	}
	expected, err := normalize(a.Expect)
	if err != nil {
		return fmt.Errorf("%s: expect: %w", AssertOutputContains, err)
	}
	for _, field := range sortedKeys(expected) {
		got, exists := actual[field]
		if !exists || !valuesEqual(got, expected[field]) {
			return &AssertionError{
				Type:     AssertOutputContains,
				Expected: fmt.Sprintf("%s %s with %s=%v", a.Category, key, field, expected[field]),
				Actual:   fmt.Sprintf("%s=%v", field, got),
				Output:   result.Records,
			}
		}
	}
	return nil
}

func assertOutputAbsent(result *Result, a Assertion) error {
	key, err := record.ParseFormKey(a.FormKey)
	if err != nil {
		return fmt.Errorf("%s: %w", AssertOutputAbsent, err)
	}
	if _, ok := result.Find(record.Category(a.Category), key); ok {
		return &AssertionError{
			Type:     AssertOutputAbsent,
			Expected: fmt.Sprintf("%s %s not in output", a.Category, key),
			Actual:   "found in output",
			Output:   result.Records,
		}
	}
	return nil
}

func assertOutputCount(result *Result, a Assertion) error {
	if len(result.Records) != a.Count {
		return &AssertionError{
			Type:     AssertOutputCount,
			Expected: fmt.Sprintf("%d output records", a.Count),
			Actual:   fmt.Sprintf("%d output records", len(result.Records)),
			Output:   result.Records,
		}
	}
	return nil
}

func assertPassChanged(result *Result, a Assertion) error {
	stats, ok := result.PassStats(a.Pass)
	if !ok {
		return &AssertionError{
			Type:     AssertPassChanged,
			Expected: fmt.Sprintf("pass %s in run", a.Pass),
			Actual:   "pass did not run",
		}
	}
	if stats.Changed != a.Count {
		return &AssertionError{
			Type:     AssertPassChanged,
			Expected: fmt.Sprintf("pass %s changed %d records", a.Pass, a.Count),
			Actual:   fmt.Sprintf("changed %d of %d processed", stats.Changed, stats.Processed),
		}
	}
	return nil
}

// assertStoredRun reads the persisted run back and checks its record count
// and digest.
func assertStoredRun(ctx context.Context, st *store.Store, result *Result, a Assertion) error {
	run, err := st.ReadRun(ctx, result.RunID)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredRun,
			Expected: fmt.Sprintf("run %s in store", result.RunID),
			Actual:   fmt.Sprintf("read error: %v", err),
		}
	}
	if len(run.Records) != a.Count {
		return &AssertionError{
			Type:     AssertStoredRun,
			Expected: fmt.Sprintf("%d stored records", a.Count),
			Actual:   fmt.Sprintf("%d stored records", len(run.Records)),
		}
	}
	if run.Digest != result.Digest {
		return &AssertionError{
			Type:     AssertStoredRun,
			Expected: fmt.Sprintf("stored digest %s", result.Digest),
			Actual:   fmt.Sprintf("stored digest %s", run.Digest),
		}
	}
	return nil
}

func assertFixedPoint(recheck func() (int, error)) error {
	n, err := recheck()
	if err != nil {
		return fmt.Errorf("%s: second run: %w", AssertFixedPoint, err)
	}
	if n != 0 {
		return &AssertionError{
			Type:     AssertFixedPoint,
			Expected: "second run over load order and output produces no records",
			Actual:   fmt.Sprintf("%d records", n),
		}
	}
	return nil
}

// toFields returns the JSON object form of r.
func toFields(r record.Record) (map[string]any, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// normalize passes YAML-decoded values through JSON so numbers and nested
// values compare like the record side.
func normalize(v map[string]any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valuesEqual compares two values for equality.
// Handles nested maps and slices.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	return reflect.DeepEqual(actual, expected)
}

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	Ctx     context.Context
	Store   *store.Store
	Recheck func() (int, error)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOutputContains:
			err = assertOutputContains(result, assertion)
		case AssertOutputAbsent:
			err = assertOutputAbsent(result, assertion)
		case AssertOutputCount:
			err = assertOutputCount(result, assertion)
		case AssertPassChanged:
			err = assertPassChanged(result, assertion)
		case AssertStoredRun:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored_run requires database context", i)
			} else {
				err = assertStoredRun(actx.Ctx, actx.Store, result, assertion)
			}
		case AssertFixedPoint:
			if actx == nil || actx.Recheck == nil {
				err = fmt.Errorf("assertion[%d]: fixed_point requires a recheck function", i)
			} else {
				err = assertFixedPoint(actx.Recheck)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

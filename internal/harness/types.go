package harness

import (
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/record"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Output is the output plugin name.
	Output record.ModKey `json:"output"`

	// Passes holds the stats of every pass, in run order.
	Passes []engine.PassStats `json:"passes"`

	// Records is the output layer, grouped by category and sorted by key.
	Records []record.Record `json:"-"`

	// Digest is the content digest of the output layer.
	Digest string `json:"digest"`

	// RunID is the ID the run was persisted under.
	RunID string `json:"run_id"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Find returns the output record of key in category c.
func (r *Result) Find(c record.Category, key record.FormKey) (record.Record, bool) {
	for _, rec := range r.Records {
		if rec.Category() == c && rec.FormKey().Equal(key) {
			return rec, true
		}
	}
	return nil, false
}

// PassStats returns the stats of the named pass.
func (r *Result) PassStats(name string) (engine.PassStats, bool) {
	for _, p := range r.Passes {
		if p.Name == name {
			return p, true
		}
	}
	return engine.PassStats{}, false
}

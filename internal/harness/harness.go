package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/layerfile"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/output"
	"github.com/roach88/unlevel/internal/patch"
	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/store"
	"github.com/roach88/unlevel/internal/testutil"
)

// Harness is the scenario execution environment.
// It runs scenarios against a fresh in-memory store with a fixed run ID and
// a deterministic clock.
type Harness struct {
	store  *store.Store
	base   *loadorder.Store
	tables *config.Tables
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the manifest and every layer file it lists
// 2. Import the load order into the store and read it back
// 3. Build rule tables from the config directory or schema defaults
// 4. Run a patch session and persist the run
// 5. Evaluate assertions
//
// An error is returned when the scenario cannot run at all; failed
// assertions are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithRunIDGenerator(testutil.NewFixedRunIDGenerator("")),
		store.WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	ctx := context.Background()

	if err := h.load(ctx, scenario); err != nil {
		return nil, err
	}

	w, report, err := h.session(ctx, h.base, scenario.OutputName())
	if err != nil {
		return nil, fmt.Errorf("failed to run session: %w", err)
	}

	result := NewResult()
	result.Output = report.Output
	result.Passes = report.Passes
	result.Records = w.All()
	result.Digest = report.Digest

	result.RunID, err = st.SaveRun(ctx, store.Run{
		Output:    report.Output,
		LoadOrder: layerNames(h.base),
		Passes:    report.Passes,
		Digest:    report.Digest,
		Records:   result.Records,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist run: %w", err)
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   st,
		Recheck: func() (int, error) { return h.recheck(ctx, w) },
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// load reads the load order and rule tables. The load order is round-tripped
// through the store so the session runs over what was persisted.
func (h *Harness) load(ctx context.Context, scenario *Scenario) error {
	files, err := layerfile.LoadOrder(scenario.LoadOrder)
	if err != nil {
		return fmt.Errorf("failed to load layers: %w", err)
	}
	if err := h.store.ImportLoadOrder(ctx, files); err != nil {
		return fmt.Errorf("failed to import layers: %w", err)
	}
	h.base, err = h.store.ReadLoadOrder(ctx)
	if err != nil {
		return fmt.Errorf("failed to read layers back: %w", err)
	}

	var cfg *config.Config
	if scenario.Config != "" {
		cfg, _, err = config.Load(scenario.Config)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	h.tables, _ = config.BuildTables(cfg, h.logger)
	return nil
}

func (h *Harness) session(ctx context.Context, base *loadorder.Store, name record.ModKey) (*output.Writer, *patch.Report, error) {
	w := output.NewWriter(name)
	s, err := patch.NewSession(base, h.tables, w,
		patch.WithLogger(h.logger),
		patch.WithProgressEvery(-1),
	)
	if err != nil {
		return nil, nil, err
	}
	report, err := s.Run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return w, report, nil
}

// recheck runs a second session over the load order with the first output
// stacked on top and returns how many records it produced.
func (h *Harness) recheck(ctx context.Context, first *output.Writer) (int, error) {
	stacked, err := h.base.WithTop(first.Layer())
	if err != nil {
		return 0, err
	}
	w, _, err := h.session(ctx, stacked, record.ModKey("Recheck-"+string(first.Name())))
	if err != nil {
		return 0, err
	}
	return w.Len(), nil
}

func layerNames(s *loadorder.Store) []record.ModKey {
	layers := s.Layers()
	names := make([]record.ModKey, len(layers))
	for i, l := range layers {
		names[i] = l.Name()
	}
	return names
}

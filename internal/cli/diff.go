package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/layerfile"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// Diff entry statuses.
const (
	DiffAdded     = "added"     // no pre-patch winner
	DiffChanged   = "changed"   // differs from the pre-patch winner
	DiffUnchanged = "unchanged" // identical to the pre-patch winner
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	InputFlags
	Layer string
	Name  string
	RunID string
}

// DiffEntry compares one output record with its pre-patch winner.
type DiffEntry struct {
	Category string   `json:"category"`
	FormKey  string   `json:"form_key"`
	EditorID string   `json:"editor_id,omitempty"`
	Status   string   `json:"status"`
	Fields   []string `json:"fields,omitempty"`
}

// DiffResult is the comparison of a whole output layer.
type DiffResult struct {
	Output    string      `json:"output"`
	Added     int         `json:"added"`
	Changed   int         `json:"changed"`
	Unchanged int         `json:"unchanged"`
	Entries   []DiffEntry `json:"entries"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show how the output layer differs from the records it overrides",
		Long: `Compare every record of an output layer with the winner it overrides in
the load order and list the fields that differ.

The output layer is read from a layer file (--layer) or from a persisted
run in the database (--run, latest run by default). Unchanged records are
listed only with --verbose.

Examples:
  unlevel diff --load-order ./world/loadorder.yaml --layer unlevel.yaml
  unlevel diff --db ./unlevel.db
  unlevel diff --db ./unlevel.db --run 019312ab-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, cmd)
		},
	}

	name := rootOpts.Env.OutputName
	if name == "" {
		name = DefaultOutputName
	}
	opts.InputFlags.register(cmd, rootOpts.Env)
	cmd.Flags().StringVar(&opts.Layer, "layer", "", "output layer file")
	cmd.Flags().StringVar(&opts.Name, "name", name, "plugin name of the output layer file")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "persisted run ID (latest when empty)")

	return cmd
}

func runDiff(opts *DiffOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ctx, stop := signalContext(cmd, log)
	defer stop()

	base, err := loadBase(ctx, opts.InputFlags, log)
	if err != nil {
		return inputError(formatter, opts.InputFlags, err)
	}
	out, err := loadOutputLayer(ctx, opts, log)
	if err != nil {
		var de *layerfile.DecodeError
		switch {
		case errors.Is(err, errNoOutput):
			return commandError(formatter, ErrCodeInvalidArgs, "no output layer", err)
		case errors.Is(err, sql.ErrNoRows):
			return commandError(formatter, ErrCodeNotFound, "run not found", err)
		case errors.As(err, &de):
			return commandError(formatter, ErrCodeLoadOrder, "failed to read output layer", err)
		default:
			return commandError(formatter, ErrCodeStore, "failed to read output layer", err)
		}
	}

	result, err := diffLayer(base, out)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, "failed to compare output", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "output: %s\n", result.Output)
	for _, e := range result.Entries {
		line := fmt.Sprintf("%s %s", e.Category, e.FormKey)
		if e.EditorID != "" {
			line += " " + e.EditorID
		}
		switch e.Status {
		case DiffAdded:
			fmt.Fprintf(w, "+ %s\n", line)
		case DiffChanged:
			fmt.Fprintf(w, "~ %s: %s\n", line, strings.Join(e.Fields, ", "))
		default:
			if opts.Verbose {
				fmt.Fprintf(w, "= %s\n", line)
			}
		}
	}
	fmt.Fprintf(w, "%d changed, %d added, %d unchanged\n", result.Changed, result.Added, result.Unchanged)
	return nil
}

var errNoOutput = errors.New("either --layer or --db is required for the output layer")

func loadOutputLayer(ctx context.Context, opts *DiffOptions, log *slog.Logger) (*loadorder.Layer, error) {
	if opts.Layer != "" {
		return layerfile.ReadLayer(opts.Layer, record.ModKey(opts.Name))
	}
	if opts.Database == "" {
		return nil, errNoOutput
	}

	st, closeStore, err := openStore(opts.Database, log)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	id := opts.RunID
	if id == "" {
		latest, err := st.LatestRun(ctx)
		if err != nil {
			return nil, err
		}
		id = latest.ID
	}
	log.Debug("reading run", "run_id", id)
	return st.ReadRunLayer(ctx, id)
}

// diffLayer compares every record of out with its winner in base.
func diffLayer(base *loadorder.Store, out *loadorder.Layer) (DiffResult, error) {
	result := DiffResult{Output: string(out.Name()), Entries: []DiffEntry{}}
	for _, c := range out.Categories() {
		for r := range out.Records(c) {
			e := DiffEntry{Category: string(c), FormKey: r.FormKey().String(), EditorID: r.EditorID()}
			prev, ok := base.ResolveWinner(c, r.FormKey())
			switch {
			case !ok:
				e.Status = DiffAdded
				result.Added++
			case record.Equal(prev, r):
				e.Status = DiffUnchanged
				result.Unchanged++
			default:
				fields, err := changedFields(prev, r)
				if err != nil {
					return DiffResult{}, fmt.Errorf("%s %s: %w", c, r.FormKey(), err)
				}
				e.Status = DiffChanged
				e.Fields = fields
				result.Changed++
			}
			result.Entries = append(result.Entries, e)
		}
	}
	return result, nil
}

// changedFields lists the top-level JSON fields that differ between a and
// b, sorted.
func changedFields(a, b record.Record) ([]string, error) {
	fa, err := rawFields(a)
	if err != nil {
		return nil, err
	}
	fb, err := rawFields(b)
	if err != nil {
		return nil, err
	}

	var fields []string
	for k, va := range fa {
		if vb, ok := fb[k]; !ok || !bytes.Equal(va, vb) {
			fields = append(fields, k)
		}
	}
	for k := range fb {
		if _, ok := fa[k]; !ok {
			fields = append(fields, k)
		}
	}
	slices.Sort(fields)
	return fields, nil
}

func rawFields(r record.Record) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

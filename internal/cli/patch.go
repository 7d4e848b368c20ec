package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/engine"
	"github.com/roach88/unlevel/internal/layerfile"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/output"
	"github.com/roach88/unlevel/internal/patch"
	"github.com/roach88/unlevel/internal/record"
	"github.com/roach88/unlevel/internal/store"
)

// PatchOptions holds flags for the patch command.
type PatchOptions struct {
	*RootOptions
	InputFlags
	ConfigDir     string
	Out           string
	Name          string
	ProgressEvery int
}

// PatchResult is the summary printed after a session.
type PatchResult struct {
	Output    string             `json:"output"`
	LoadOrder []string           `json:"load_order"`
	Passes    []engine.PassStats `json:"passes"`
	Records   int                `json:"records"`
	Digest    string             `json:"digest"`
	RunID     string             `json:"run_id,omitempty"`
	OutFile   string             `json:"out_file,omitempty"`
	Issues    []config.Issue     `json:"issues,omitempty"`
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Run every pass and build the output layer",
		Long: `Run the patch passes over a load order and build the output layer.

The load order comes from a manifest (--load-order) or, when only --db is
given, from layers previously stored with "unlevel import". The output
layer is written as a layer file (--out) and/or persisted as a run in the
database (--db). A failed session writes nothing.

Exit codes:
  0 - Session completed
  2 - Command error (bad layer file, unreadable config, aborted session)

Examples:
  unlevel patch --load-order ./world/loadorder.yaml --config ./config --out unlevel.yaml
  unlevel patch --db ./unlevel.db --name Unlevel.esp
  unlevel patch --load-order ./world/loadorder.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(opts, cmd)
		},
	}

	name := rootOpts.Env.OutputName
	if name == "" {
		name = DefaultOutputName
	}
	opts.InputFlags.register(cmd, rootOpts.Env)
	cmd.Flags().StringVar(&opts.ConfigDir, "config", rootOpts.Env.ConfigDir, "rule table directory (schema defaults when empty)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the output layer to this file")
	cmd.Flags().StringVar(&opts.Name, "name", name, "output plugin name")
	cmd.Flags().IntVar(&opts.ProgressEvery, "progress-every", rootOpts.Env.ProgressEvery, "records between progress log lines (negative disables)")

	return cmd
}

func runPatch(opts *PatchOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	ctx, stop := signalContext(cmd, log)
	defer stop()

	base, err := loadBase(ctx, opts.InputFlags, log)
	if err != nil {
		return inputError(formatter, opts.InputFlags, err)
	}
	formatter.VerboseLog("Loaded %d layer(s)", len(base.Layers()))

	tables, issues, err := loadTables(opts.ConfigDir, log)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "failed to load config", err)
	}

	w := output.NewWriter(record.ModKey(opts.Name))
	session, err := patch.NewSession(base, tables, w,
		patch.WithLogger(log),
		patch.WithProgressEvery(opts.ProgressEvery),
	)
	if err != nil {
		return commandError(formatter, ErrCodeInvalidArgs, "failed to start session", err)
	}
	report, err := session.Run(ctx)
	if err != nil {
		return commandError(formatter, ErrCodePatchFailed, "patch session aborted", err)
	}

	result := PatchResult{
		Output:    string(report.Output),
		LoadOrder: layerNames(base),
		Passes:    report.Passes,
		Records:   report.Records,
		Digest:    report.Digest,
		Issues:    issues,
	}

	if opts.Out != "" {
		if err := layerfile.WriteLayerFile(opts.Out, w.Layer()); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, "failed to write output layer", err)
		}
		result.OutFile = opts.Out
		log.Info("output layer written", "path", opts.Out, "records", report.Records)
	}

	if opts.Database != "" {
		st, closeStore, err := openStore(opts.Database, log)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to open database", err)
		}
		defer closeStore()
		result.RunID, err = st.SaveRun(ctx, store.Run{
			Output:    report.Output,
			LoadOrder: modKeys(base),
			Passes:    report.Passes,
			Digest:    report.Digest,
			Records:   w.All(),
		})
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to persist run", err)
		}
		log.Info("run persisted", "run_id", result.RunID, "db", opts.Database)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputPatchText(formatter, result)
}

func outputPatchText(formatter *OutputFormatter, result PatchResult) error {
	out := formatter.Writer
	fmt.Fprintf(out, "output: %s\n", result.Output)
	for _, p := range result.Passes {
		fmt.Fprintf(out, "  %-18s %-15s processed=%d changed=%d skipped=%d\n",
			p.Name, p.Category, p.Processed, p.Changed, p.Skipped)
	}
	fmt.Fprintf(out, "records: %d\n", result.Records)
	fmt.Fprintf(out, "digest: %s\n", result.Digest)
	if result.OutFile != "" {
		fmt.Fprintf(out, "written: %s\n", result.OutFile)
	}
	if result.RunID != "" {
		fmt.Fprintf(out, "run: %s\n", result.RunID)
	}
	if len(result.Issues) > 0 {
		fmt.Fprintf(out, "skipped %d config entr(ies)\n", len(result.Issues))
	}
	return nil
}

func modKeys(s *loadorder.Store) []record.ModKey {
	layers := s.Layers()
	names := make([]record.ModKey, len(layers))
	for i, l := range layers {
		names[i] = l.Name()
	}
	return names
}

func layerNames(s *loadorder.Store) []string {
	keys := modKeys(s)
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	return names
}

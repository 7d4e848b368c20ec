package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/layerfile"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	LoadOrder string
	Database  string
}

// ImportedLayer is one stored layer.
type ImportedLayer struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Digest  string `json:"digest"`
}

// ImportResult lists the layers now in the database.
type ImportResult struct {
	Database string          `json:"db"`
	Layers   []ImportedLayer `json:"layers"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a load order in the database",
		Long: `Read every layer listed in a load order manifest and store them in a
SQLite database, replacing any layers stored before. Persisted runs are
kept. "unlevel patch --db" without --load-order reads the layers back.

Example:
  unlevel import --load-order ./world/loadorder.yaml --db ./unlevel.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LoadOrder, "load-order", "", "path to load order manifest (required)")
	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Env.Database, "path to SQLite database")
	_ = cmd.MarkFlagRequired("load-order")

	return cmd
}

func runImport(opts *ImportOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Database == "" {
		return commandError(formatter, ErrCodeInvalidArgs, "missing database", fmt.Errorf("--db is required"))
	}

	ctx, stop := signalContext(cmd, log)
	defer stop()

	lo, err := layerfile.LoadOrder(opts.LoadOrder)
	if err != nil {
		return commandError(formatter, ErrCodeLoadOrder, "failed to load layers", err)
	}

	st, closeStore, err := openStore(opts.Database, log)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open database", err)
	}
	defer closeStore()

	if err := st.ImportLoadOrder(ctx, lo); err != nil {
		return commandError(formatter, ErrCodeStore, "failed to import layers", err)
	}
	stored, err := st.Layers(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list stored layers", err)
	}

	result := ImportResult{Database: opts.Database, Layers: make([]ImportedLayer, 0, len(stored))}
	for _, l := range stored {
		result.Layers = append(result.Layers, ImportedLayer{
			Name:    string(l.Name),
			Records: l.Records,
			Digest:  l.Digest,
		})
	}
	log.Info("load order imported", "db", opts.Database, "layers", len(result.Layers))

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d layer(s) into %s\n", len(result.Layers), result.Database)
	for i, l := range result.Layers {
		fmt.Fprintf(formatter.Writer, "  %d. %s (%d records)\n", i, l.Name, l.Records)
	}
	return nil
}

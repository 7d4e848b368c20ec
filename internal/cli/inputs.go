package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/config"
	"github.com/roach88/unlevel/internal/layerfile"
	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/store"
)

// DefaultOutputName is the output plugin name when neither --name nor
// UNLEVEL_OUTPUT_NAME is set.
const DefaultOutputName = "Unlevel.esp"

// InputFlags selects where the load order comes from.
type InputFlags struct {
	LoadOrder string // manifest path
	Database  string // SQLite store path
}

func (f *InputFlags) register(cmd *cobra.Command, env config.Env) {
	cmd.Flags().StringVar(&f.LoadOrder, "load-order", "", "path to load order manifest")
	cmd.Flags().StringVar(&f.Database, "db", env.Database, "path to SQLite database")
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger returns a text logger on w, at debug level under --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// signalContext derives a context from the command that is cancelled on
// SIGINT or SIGTERM. The returned stop func must be called.
func signalContext(cmd *cobra.Command, log *slog.Logger) (context.Context, func()) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

// openStore opens the database at path, logging the close error if any.
func openStore(path string, log *slog.Logger) (*store.Store, func(), error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}, nil
}

// loadBase reads the load order from the manifest, or from the store when
// only --db is given.
func loadBase(ctx context.Context, f InputFlags, log *slog.Logger) (*loadorder.Store, error) {
	switch {
	case f.LoadOrder != "":
		log.Debug("loading load order", "manifest", f.LoadOrder)
		return layerfile.LoadOrder(f.LoadOrder)
	case f.Database != "":
		log.Debug("reading load order", "db", f.Database)
		st, closeStore, err := openStore(f.Database, log)
		if err != nil {
			return nil, err
		}
		defer closeStore()
		base, err := st.ReadLoadOrder(ctx)
		if err != nil {
			return nil, err
		}
		if len(base.Layers()) == 0 {
			return nil, fmt.Errorf("database %s holds no layers (run unlevel import first)", f.Database)
		}
		return base, nil
	default:
		return nil, errNoInput
	}
}

var errNoInput = errors.New("either --load-order or --db is required")

// loadTables builds rule tables from dir, or from schema defaults when dir
// is empty. Skipped entries are returned as issues.
func loadTables(dir string, log *slog.Logger) (*config.Tables, []config.Issue, error) {
	var (
		cfg    *config.Config
		issues []config.Issue
		err    error
	)
	if dir != "" {
		log.Debug("loading config", "dir", dir)
		cfg, issues, err = config.Load(dir)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, nil, err
	}
	for _, is := range issues {
		log.Warn("skipping config entry", "source", is.Source, "entry", is.Entry, "error", is.Message)
	}
	tables, tableIssues := config.BuildTables(cfg, log)
	return tables, append(issues, tableIssues...), nil
}

// inputError reports a failure to read the load order as a command error.
func inputError(formatter *OutputFormatter, f InputFlags, err error) error {
	code := ErrCodeLoadOrder
	switch {
	case errors.Is(err, errNoInput):
		code = ErrCodeInvalidArgs
	case f.LoadOrder == "":
		code = ErrCodeStore
	}
	return commandError(formatter, code, "failed to load layers", err)
}

// commandError outputs err and returns an exit code 2 error.
func commandError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), err)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Env holds UNLEVEL_* defaults for subcommand flags.
	Env config.Env
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the unlevel CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	env, envErr := config.LoadEnv()
	opts.Env = env

	cmd := &cobra.Command{
		Use:   "unlevel",
		Short: "unlevel - level-scaling patcher",
		Long: `Build a patch layer that removes player-level scaling from a load order.

Records are read from layer files listed in a load order manifest (or from
a SQLite store), run through the zone, NPC, leveled list and class passes,
and written as one output layer stacked above every input.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return WrapExitError(ExitCommandError, "invalid UNLEVEL_* environment", envErr)
			}
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewPatchCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

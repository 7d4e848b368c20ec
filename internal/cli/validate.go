package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid           bool           `json:"valid"`
	Sources         []string       `json:"sources"`
	DefaultMaxLevel uint16         `json:"default_max_level"`
	ZonesByKeyword  int            `json:"zones_by_keyword"`
	ZonesByID       int            `json:"zones_by_id"`
	ZoneLevels      int            `json:"zone_levels"`
	ExcludedNPCs    int            `json:"excluded_npcs"`
	Issues          []config.Issue `json:"issues,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ConfigDir string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a rule table directory without patching",
		Long: `Load a rule table directory and report every entry a patch run would skip.

Settings and zone lists are checked against the embedded schema. An
unreadable directory or a malformed file is a command error; malformed
entries inside otherwise valid files are reported as issues.

Exit codes:
  0 - Config valid
  1 - One or more entries would be skipped
  2 - Command error (missing directory, unreadable or malformed file)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigDir, "config", rootOpts.Env.ConfigDir, "rule table directory")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.ConfigDir == "" {
		return outputValidateError(formatter, ErrCodeInvalidArgs, "--config is required", nil)
	}

	cfg, issues, err := config.Load(opts.ConfigDir)
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, ErrCodeConfig, loadErr.Error(), map[string]string{"code": loadErr.Code, "path": loadErr.Path})
		}
		return outputValidateError(formatter, ErrCodeConfig, err.Error(), nil)
	}
	formatter.VerboseLog("Read %d config file(s) from %s", len(cfg.Sources), opts.ConfigDir)

	// Issues are reported below, not logged.
	tables, tableIssues := config.BuildTables(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	issues = append(issues, tableIssues...)

	result := ValidationResult{
		Valid:           len(issues) == 0,
		Sources:         cfg.Sources,
		DefaultMaxLevel: tables.Default(),
		ZonesByKeyword:  len(tables.ZonesByKeyword),
		ZonesByID:       len(tables.ZonesByID),
		ZoneLevels:      len(tables.ZoneLevels),
		ExcludedNPCs:    len(tables.ExcludedNPCs),
		Issues:          issues,
	}
	if result.Sources == nil {
		result.Sources = []string{}
	}

	if !result.Valid {
		return outputValidationIssues(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Config valid")
	fmt.Fprintf(formatter.Writer, "  files: %d\n", len(result.Sources))
	fmt.Fprintf(formatter.Writer, "  default max level: %d\n", result.DefaultMaxLevel)
	fmt.Fprintf(formatter.Writer, "  zone definitions: %d by keyword, %d by editor ID\n", result.ZonesByKeyword, result.ZonesByID)
	fmt.Fprintf(formatter.Writer, "  zone level overrides: %d\n", result.ZoneLevels)
	fmt.Fprintf(formatter.Writer, "  excluded NPCs: %d\n", result.ExcludedNPCs)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable config is a command-level error (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationIssues outputs every skipped entry.
func outputValidationIssues(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeConfigIssues,
				Message: fmt.Sprintf("%d config entr(ies) would be skipped", len(result.Issues)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, is := range result.Issues {
		fmt.Fprintf(formatter.Writer, "%s\n", is.Source)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", is.Entry, is.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(result.Issues)))
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/unlevel/internal/loadorder"
	"github.com/roach88/unlevel/internal/record"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	InputFlags
}

// Mention is one layer that carries the key.
type Mention struct {
	Layer   string `json:"layer"`
	Deleted bool   `json:"deleted,omitempty"`
}

// ResolveResult is the winning definition of one key.
type ResolveResult struct {
	Category string        `json:"category"`
	FormKey  string        `json:"form_key"`
	Layer    string        `json:"layer"`
	Record   record.Record `json:"record"`
	Mentions []Mention     `json:"mentions"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <category> <formkey>",
		Short: "Print the winning definition of a key",
		Long: `Resolve a key against the load order and print the winning definition
together with the layer it came from and every layer that mentions it.

Exit codes:
  0 - Key resolved
  1 - No winner (never defined, or deleted by the highest mention)
  2 - Command error (bad category or key, unreadable layers)

Examples:
  unlevel resolve npc 000600:Skyrim.esm --load-order ./world/loadorder.yaml
  unlevel resolve encounter_zone 000300:Skyrim.esm --db ./unlevel.db --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], args[1], cmd)
		},
	}

	opts.InputFlags.register(cmd, rootOpts.Env)

	return cmd
}

func runResolve(opts *ResolveOptions, category, formKey string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	log := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	c := record.Category(category)
	if !c.Valid() {
		return commandError(formatter, ErrCodeInvalidArgs, "invalid category",
			fmt.Errorf("unknown category %q", category))
	}
	key, err := record.ParseFormKey(formKey)
	if err != nil {
		return commandError(formatter, ErrCodeInvalidArgs, "invalid form key", err)
	}

	ctx, stop := signalContext(cmd, log)
	defer stop()

	base, err := loadBase(ctx, opts.InputFlags, log)
	if err != nil {
		return inputError(formatter, opts.InputFlags, err)
	}

	mentions := mentionsOf(base, c, key)
	res, ok := base.Lookup(c, key)
	if !ok {
		msg := fmt.Sprintf("%s %s is not defined in the load order", c, key)
		if len(mentions) > 0 {
			msg = fmt.Sprintf("%s %s is deleted by %s", c, key, mentions[len(mentions)-1].Layer)
		}
		_ = formatter.Error(ErrCodeNotFound, msg, mentions)
		return NewExitError(ExitFailure, msg)
	}

	result := ResolveResult{
		Category: string(c),
		FormKey:  key.String(),
		Layer:    string(res.Layer),
		Record:   res.Record,
		Mentions: mentions,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	out := formatter.Writer
	fmt.Fprintf(out, "%s %s", result.Category, result.FormKey)
	if edid := res.Record.EditorID(); edid != "" {
		fmt.Fprintf(out, " (%s)", edid)
	}
	fmt.Fprintf(out, "\nwinner: %s\n", result.Layer)
	for _, m := range mentions {
		if m.Deleted {
			fmt.Fprintf(out, "  %s (deleted)\n", m.Layer)
		} else {
			fmt.Fprintf(out, "  %s\n", m.Layer)
		}
	}
	data, err := json.MarshalIndent(res.Record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render record: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// mentionsOf lists every layer carrying key in c, lowest priority first.
func mentionsOf(s *loadorder.Store, c record.Category, key record.FormKey) []Mention {
	mentions := []Mention{}
	for _, l := range s.Layers() {
		if r, ok := l.Get(c, key); ok {
			mentions = append(mentions, Mention{Layer: string(l.Name()), Deleted: r.IsDeleted()})
		}
	}
	return mentions
}

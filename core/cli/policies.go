package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// PoliciesOptions holds the parsed arguments and flags for "policies".
type PoliciesOptions struct {
	// Name selects one policy. Empty lists them all.
	Name   string
	Format string
}

// PoliciesRunFunc is the function signature for the policies command handler.
type PoliciesRunFunc func(ctx context.Context, opts PoliciesOptions) error

// NewPoliciesCmd creates the "policies" subcommand.
func NewPoliciesCmd(runFunc PoliciesRunFunc) *cobra.Command {
	var opts PoliciesOptions

	cmd := &cobra.Command{
		Use:   "policies [name]",
		Short: "List release policies or print one policy's rules",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Name = args[0]
			}
			switch opts.Format {
			case "text", "json", "yaml", "toml":
				return nil
			}
			return fmt.Errorf("--format must be text, json, yaml or toml, got %q", opts.Format)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format: text, json, yaml or toml")

	return cmd
}

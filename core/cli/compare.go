package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// CompareOptions holds the parsed arguments and flags for "compare".
type CompareOptions struct {
	Old string
	New string
	ReportOptions
}

// CompareRunFunc is the function signature for the compare command handler.
// It is injected by the wiring layer (cmd/semdiff).
type CompareRunFunc func(ctx context.Context, opts CompareOptions) error

// NewCompareCmd creates the "compare" subcommand.
func NewCompareCmd(runFunc CompareRunFunc) *cobra.Command {
	var opts CompareOptions

	cmd := &cobra.Command{
		Use:   "compare OLD.json NEW.json",
		Short: "Compare two API snapshot files",
		Long: "Compare two JSON API snapshots and report the changes and the release type they require.\n" +
			"Either path may be '-' to read standard input.",
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Old, opts.New = args[0], args[1]
			return validateCompareFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	addReportFlags(cmd, &opts.ReportOptions)

	return cmd
}

func validateCompareFlags(opts CompareOptions) error {
	if opts.Old == "-" && opts.New == "-" {
		return fmt.Errorf("only one snapshot can be read from standard input")
	}
	for _, p := range []string{opts.Old, opts.New} {
		if p == "-" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("snapshot does not exist: %s", p)
			}
			return fmt.Errorf("cannot access snapshot: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("snapshot is a directory: %s", p)
		}
	}
	return validateReportFlags(opts.ReportOptions)
}

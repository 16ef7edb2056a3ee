package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// GoOptions holds the parsed flags for "go".
type GoOptions struct {
	Module string
	From   string
	To     string
	Repo   string
	OldDir string
	NewDir string
	ReportOptions
}

// Remote reports whether both versions are fetched from the module proxy.
func (o GoOptions) Remote() bool {
	return o.OldDir == "" && o.NewDir == ""
}

// GoRunFunc is the function signature for the go command handler.
// It is injected by the wiring layer (cmd/semdiff).
type GoRunFunc func(ctx context.Context, opts GoOptions) error

// NewGoCmd creates the "go" subcommand.
func NewGoCmd(runFunc GoRunFunc) *cobra.Command {
	var opts GoOptions

	cmd := &cobra.Command{
		Use:   "go",
		Short: "Compare two versions of a Go module",
		Long: "Extract the exported API of two versions of a Go module and report the release type\n" +
			"the difference requires. Versions are fetched from GOPROXY, or read from local\n" +
			"directories with --old-dir and --new-dir. When both versions are known, the declared\n" +
			"bump is checked against the verdict.",
		Example: "  semdiff go --module github.com/acme/lib --from v1.3.0 --to v1.4.0\n" +
			"  semdiff go --module github.com/acme/lib --to v2.0.0 --repo .\n" +
			"  semdiff go --old-dir ./v1 --new-dir ./v2",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return validateGoFlags(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunc(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "Go module path")
	cmd.Flags().StringVar(&opts.From, "from", "", "Old version (default: the version required by --repo)")
	cmd.Flags().StringVar(&opts.To, "to", "", "New version")
	cmd.Flags().StringVar(&opts.Repo, "repo", "", "Repository whose go.mod supplies the old version")
	cmd.Flags().StringVar(&opts.OldDir, "old-dir", "", "Directory holding the old module source")
	cmd.Flags().StringVar(&opts.NewDir, "new-dir", "", "Directory holding the new module source")
	addReportFlags(cmd, &opts.ReportOptions)

	cmd.MarkFlagsRequiredTogether("old-dir", "new-dir")
	cmd.MarkFlagsMutuallyExclusive("old-dir", "module")
	cmd.MarkFlagsMutuallyExclusive("from", "repo")

	return cmd
}

func validateGoFlags(opts GoOptions) error {
	if !opts.Remote() {
		// A lone directory is reported by the old-dir/new-dir flag group,
		// which cobra checks after PreRunE.
		if opts.OldDir == "" || opts.NewDir == "" {
			return nil
		}
		for _, dir := range []string{opts.OldDir, opts.NewDir} {
			if err := checkDir(dir); err != nil {
				return err
			}
		}
		return validateReportFlags(opts.ReportOptions)
	}

	if opts.Module == "" {
		return fmt.Errorf("--module is required (or use --old-dir and --new-dir)")
	}
	if opts.To == "" {
		return fmt.Errorf("--to is required")
	}
	if !strings.HasPrefix(opts.To, "v") {
		return fmt.Errorf("--to version must start with 'v' (e.g. v2.3.0)")
	}
	switch {
	case opts.From != "":
		if !strings.HasPrefix(opts.From, "v") {
			return fmt.Errorf("--from version must start with 'v' (e.g. v2.2.0)")
		}
	case opts.Repo != "":
		if err := checkDir(opts.Repo); err != nil {
			return err
		}
	default:
		return fmt.Errorf("one of --from or --repo is required")
	}
	return validateReportFlags(opts.ReportOptions)
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

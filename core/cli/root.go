package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrThresholdExceeded is returned by run funcs when a report is more severe
// than --fail-on allows or a declared version bump is too small. The wiring
// layer maps it to a distinct exit code.
var ErrThresholdExceeded = errors.New("release threshold exceeded")

// GlobalOptions holds the persistent flags shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	Verbosity  int
	Quiet      bool
}

// NewRootCmd creates the top-level semdiff command. Persistent flags are
// parsed into global.
func NewRootCmd(version string, global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semdiff",
		Short: "Structural API diff and semver classification",
		Long: "Semdiff compares two snapshots of a library's public API, classifies every\n" +
			"difference under a release policy and reports the semantic version bump it requires.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&global.ConfigFile, "config", "", "Config file (default .semdiff.yaml in the working directory)")
	cmd.PersistentFlags().CountVarP(&global.Verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	cmd.PersistentFlags().BoolVarP(&global.Quiet, "quiet", "q", false, "Suppress all log output")

	return cmd
}

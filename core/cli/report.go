package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// ReportOptions holds the flags shared by commands that produce a report.
// Empty values are filled from the config file by the wiring layer.
type ReportOptions struct {
	Policy         string
	PolicyFile     string
	Format         string
	Color          string
	FailOn         string
	CurrentVersion string
	ShowUnchanged  bool
}

func addReportFlags(cmd *cobra.Command, opts *ReportOptions) {
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "Built-in policy name: default, read-only or write-only")
	cmd.Flags().StringVar(&opts.PolicyFile, "policy-file", "", "Custom policy file (.yaml or .toml)")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Output format: text, markdown or json")
	cmd.Flags().StringVar(&opts.Color, "color", "", "Colorize text output: auto, always or never")
	cmd.Flags().StringVar(&opts.FailOn, "fail-on", "", "Exit with status 2 when the release type is at least major, minor or patch")
	cmd.Flags().StringVar(&opts.CurrentVersion, "current-version", "", "Current version, used to suggest the next one (e.g. v1.4.2)")
	cmd.Flags().BoolVar(&opts.ShowUnchanged, "show-unchanged", false, "Include patch-level and unchanged symbols in text output")

	cmd.MarkFlagsMutuallyExclusive("policy", "policy-file")
}

func validateReportFlags(opts ReportOptions) error {
	switch opts.Format {
	case "", "text", "markdown", "json":
	default:
		return fmt.Errorf("--format must be text, markdown or json, got %q", opts.Format)
	}
	switch opts.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("--color must be auto, always or never, got %q", opts.Color)
	}
	switch strings.ToLower(opts.FailOn) {
	case "", "major", "minor", "patch":
	default:
		return fmt.Errorf("--fail-on must be major, minor or patch, got %q", opts.FailOn)
	}
	if opts.CurrentVersion != "" && !semver.IsValid(opts.CurrentVersion) {
		return fmt.Errorf("--current-version must be a semantic version starting with 'v' (e.g. v1.4.2), got %q", opts.CurrentVersion)
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/cli"
	"github.com/emenda-labs/semdiff/core/compare"
	"github.com/emenda-labs/semdiff/core/driver"
	"github.com/emenda-labs/semdiff/core/policy"
	"github.com/emenda-labs/semdiff/core/report"
	"github.com/emenda-labs/semdiff/core/verdict"
	golangdriver "github.com/emenda-labs/semdiff/drivers/golang"
	"github.com/emenda-labs/semdiff/drivers/snapshot"
	"github.com/emenda-labs/semdiff/pkg/config"
	"github.com/emenda-labs/semdiff/pkg/gomod"
	"github.com/emenda-labs/semdiff/pkg/logutil"
	"github.com/emenda-labs/semdiff/pkg/policyfile"
	"github.com/emenda-labs/semdiff/pkg/semverutil"
)

// goDriver is the part of the Go language driver the go command uses.
type goDriver interface {
	driver.SourceFetcher
	ExtractPair(ctx context.Context, oldDir, newDir string) (*golangdriver.Pair, error)
}

// app wires the command line to the core packages.
type app struct {
	stdout, stderr io.Writer
	global         cli.GlobalOptions
	registry       *policy.Registry
	newGoDriver    func(logger *slog.Logger) goDriver
}

func newRootCmd(a *app) *cobra.Command {
	root := cli.NewRootCmd(version, &a.global)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.AddCommand(
		cli.NewCompareCmd(a.runCompare),
		cli.NewGoCmd(a.runGo),
		cli.NewPoliciesCmd(a.runPolicies),
	)
	return root
}

// run carries the resolved settings of one report-producing command.
type run struct {
	opts    cli.ReportOptions
	policy  *policy.Policy
	compare compare.Options
	logger  *slog.Logger
	// release is the verdict of the last rendered report.
	release changespec.ReleaseType
}

// setup loads the config file, fills unset report flags from it and resolves
// the release policy.
func (a *app) setup(opts cli.ReportOptions) (*run, error) {
	cfg, err := config.Load(a.global.ConfigFile)
	if err != nil {
		return nil, err
	}

	level := logutil.LevelFromString(cfg.LogLevel)
	if a.global.Quiet || a.global.Verbosity > 0 {
		level = logutil.LevelFromVerbosity(a.global.Verbosity, a.global.Quiet)
	}
	logger := logutil.NewLogger(a.stderr, level)

	if opts.Policy == "" && opts.PolicyFile == "" {
		opts.PolicyFile = cfg.PolicyFile
		if opts.PolicyFile == "" {
			opts.Policy = cfg.Policy
		}
	}
	if opts.Format == "" {
		opts.Format = cfg.Format
	}
	if opts.Color == "" {
		opts.Color = cfg.Color
	}
	if opts.FailOn == "" {
		opts.FailOn = cfg.FailOn
	}
	opts.ShowUnchanged = opts.ShowUnchanged || cfg.Verbose

	p, err := a.resolvePolicy(opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved policy", "policy", p.Name, "rules", len(p.Rules))

	return &run{
		opts:   opts,
		policy: p,
		compare: compare.Options{
			Workers:         cfg.Workers,
			MaxDepth:        cfg.MaxDepth,
			RenameThreshold: cfg.RenameThreshold,
			Logger:          logger,
		},
		logger: logger,
	}, nil
}

func (a *app) resolvePolicy(opts cli.ReportOptions) (*policy.Policy, error) {
	if opts.PolicyFile == "" {
		return a.registry.Lookup(opts.Policy)
	}
	p, err := policyfile.Load(opts.PolicyFile, a.registry)
	if err != nil {
		return nil, err
	}
	if err := a.registry.Register(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *app) runCompare(ctx context.Context, opts cli.CompareOptions) error {
	r, err := a.setup(opts.ReportOptions)
	if err != nil {
		return err
	}

	old, err := snapshot.Load(opts.Old)
	if err != nil {
		return err
	}
	new, err := snapshot.Load(opts.New)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rep, err := verdict.Compare(verdict.Input{Old: old, New: new, OldFile: opts.Old, NewFile: opts.New}, r.policy, r.compare)
	if err != nil {
		return err
	}
	if err := a.render(rep, r.opts); err != nil {
		return err
	}
	return gate(rep, r.opts.FailOn)
}

func (a *app) runGo(ctx context.Context, opts cli.GoOptions) error {
	r, err := a.setup(opts.ReportOptions)
	if err != nil {
		return err
	}
	d := a.newGoDriver(r.logger)

	if !opts.Remote() {
		pair, err := d.ExtractPair(ctx, opts.OldDir, opts.NewDir)
		if err != nil {
			return err
		}
		return a.report(pair, opts.OldDir, opts.NewDir, r)
	}

	from := opts.From
	if from == "" {
		req, err := gomod.FindRequirement(opts.Repo, opts.Module)
		if err != nil {
			return err
		}
		if req.Replaced {
			r.logger.Warn("module is replaced in go.mod; comparing proxy versions", "module", opts.Module, "version", req.Version)
		}
		from = req.Version
	}

	if from == opts.To {
		return fmt.Errorf("module %s is already at %s", opts.Module, opts.To)
	}
	if semver.IsValid(from) && semver.IsValid(opts.To) && semver.Compare(opts.To, from) < 0 {
		r.logger.Warn("target version is older than current version", "from", from, "to", opts.To)
	}

	r.logger.Info("downloading", "module", opts.Module, "version", from)
	oldPath, oldCleanup, err := d.FetchSource(ctx, opts.Module, from)
	if err != nil {
		return fmt.Errorf("fetching old version: %w", err)
	}
	defer oldCleanup()

	r.logger.Info("downloading", "module", opts.Module, "version", opts.To)
	newPath, newCleanup, err := d.FetchSource(ctx, opts.Module, opts.To)
	if err != nil {
		return fmt.Errorf("fetching new version: %w", err)
	}
	defer newCleanup()

	pair, err := d.ExtractPair(ctx, oldPath, newPath)
	if err != nil {
		return err
	}
	if r.opts.CurrentVersion == "" && semver.IsValid(from) {
		r.opts.CurrentVersion = from
	}

	err = a.report(pair, opts.Module+"@"+from, opts.Module+"@"+opts.To, r)
	if err != nil && !errors.Is(err, cli.ErrThresholdExceeded) {
		return err
	}
	return errors.Join(err, a.verifyBump(from, opts.To, r))
}

func (a *app) report(pair *golangdriver.Pair, oldName, newName string, r *run) error {
	rep, err := verdict.Compare(verdict.Input{Old: pair.Old, New: pair.New, OldFile: oldName, NewFile: newName}, r.policy, r.compare)
	if err != nil {
		return err
	}
	if err := a.render(rep, r.opts); err != nil {
		return err
	}
	r.release = rep.ReleaseType
	return gate(rep, r.opts.FailOn)
}

// verifyBump checks the declared version step against the verdict of the last
// report. Versions that are not semantic versions are skipped.
func (a *app) verifyBump(from, to string, r *run) error {
	err := semverutil.VerifyBump(from, to, r.release)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, semverutil.ErrInsufficientBump):
		return fmt.Errorf("%w: %w", cli.ErrThresholdExceeded, err)
	case errors.Is(err, semverutil.ErrInvalidVersion):
		r.logger.Warn("skipping version bump check", "err", err)
		return nil
	default:
		return err
	}
}

func (a *app) render(rep *changespec.Report, opts cli.ReportOptions) error {
	switch opts.Format {
	case config.FormatJSON:
		data, err := report.FormatJSON(rep)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	case config.FormatMarkdown:
		io.WriteString(a.stdout, report.FormatMarkdown(rep))
	default:
		io.WriteString(a.stdout, report.FormatText(rep, report.TextOptions{
			Color:   a.useColor(opts.Color),
			Verbose: opts.ShowUnchanged,
		}))
	}

	if opts.CurrentVersion == "" {
		return nil
	}
	next, err := semverutil.Next(opts.CurrentVersion, rep.ReleaseType)
	if err != nil {
		return err
	}
	if opts.Format == config.FormatMarkdown {
		_, err = fmt.Fprintf(a.stdout, "\n**Suggested version:** `%s` (from `%s`)\n", next, opts.CurrentVersion)
	} else {
		_, err = fmt.Fprintf(a.stdout, "\nSuggested version: %s (from %s)\n", next, opts.CurrentVersion)
	}
	return err
}

func (a *app) useColor(mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := a.stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// gate fails when the report is at least as severe as failOn.
func gate(rep *changespec.Report, failOn string) error {
	if failOn == "" {
		return nil
	}
	threshold, err := changespec.ParseReleaseType(failOn)
	if err != nil {
		return err
	}
	if rep.ReleaseType.Severity() >= threshold.Severity() {
		return fmt.Errorf("%w: %s release (--fail-on %s)", cli.ErrThresholdExceeded, rep.ReleaseType, threshold)
	}
	return nil
}

type policyList struct {
	Policies []*policy.Policy `json:"policies" yaml:"policies" toml:"policies"`
}

func (a *app) runPolicies(ctx context.Context, opts cli.PoliciesOptions) error {
	var out any
	var list []*policy.Policy
	if opts.Name != "" {
		p, err := a.registry.Lookup(opts.Name)
		if err != nil {
			return err
		}
		out, list = p, []*policy.Policy{p}
	} else {
		for _, name := range a.registry.Names() {
			p, err := a.registry.Lookup(name)
			if err != nil {
				return err
			}
			list = append(list, p)
		}
		out = policyList{Policies: list}
	}

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = a.stdout.Write(data)
		return err
	case "toml":
		return toml.NewEncoder(a.stdout).Encode(out)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	if opts.Name == "" {
		fmt.Fprintln(w, "NAME\tRULES\tDEFAULT\tDESCRIPTION")
		for _, p := range list {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", p.Name, len(p.Rules), p.Default, p.Description)
		}
		return w.Flush()
	}

	p := list[0]
	fmt.Fprintf(a.stdout, "Policy: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(a.stdout, "%s\n", p.Description)
	}
	fmt.Fprintln(a.stdout)
	fmt.Fprintln(w, "#\tRULE\tMATCHES\tSCOPE\tRELEASE")
	for i, rule := range p.Rules {
		scope := string(rule.Scope)
		if scope == "" {
			scope = "any"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, rule.Name, describeRule(rule), scope, rule.ReleaseType)
	}
	if p.Default != "" {
		fmt.Fprintf(w, "-\t%s\t%s\t%s\t%s\n", policy.DefaultRuleName, "anything else", "any", p.Default)
	}
	return w.Flush()
}

// describeRule lists a rule's filters as key=value terms.
func describeRule(r policy.Rule) string {
	var terms []string
	add := func(key string, values []string) {
		if len(values) > 0 {
			terms = append(terms, key+"="+strings.Join(values, "|"))
		}
	}
	add("target", stringsOf(r.Targets))
	add("action", stringsOf(r.Actions))
	add("aspect", stringsOf(r.Aspects))
	add("impact", stringsOf(r.Impacts))
	add("tags", stringsOf(r.Tags))
	if len(terms) == 0 {
		return "*"
	}
	return strings.Join(terms, " ")
}

func stringsOf[S ~[]E, E ~string](s S) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

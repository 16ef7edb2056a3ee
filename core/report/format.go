package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/emenda-labs/semdiff/core/changespec"
)

// Formatters render an existing report. They never reclassify.

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiGray  = "\x1b[90m"
)

// TextOptions controls plain-text rendering.
type TextOptions struct {
	// Color wraps severities in ANSI escapes.
	Color bool
	// Verbose includes the unchanged bucket.
	Verbose bool
}

// FormatText renders r as indented plain text.
func FormatText(r *changespec.Report, opts TextOptions) string {
	var b strings.Builder
	paint := func(code, s string) string {
		if !opts.Color {
			return s
		}
		return code + s + ansiReset
	}

	fmt.Fprintf(&b, "%s %s\n", paint(ansiBold, "Release type:"), paint(releaseColor(r.ReleaseType), string(r.ReleaseType)))
	if r.OldFile != "" || r.NewFile != "" {
		fmt.Fprintf(&b, "%s -> %s\n", r.OldFile, r.NewFile)
	}
	b.WriteString("\n")

	sections := []struct {
		title   string
		changes []changespec.ClassifiedChange
		show    bool
	}{
		{"Breaking changes", r.Changes.Breaking, true},
		{"Non-breaking changes", r.Changes.NonBreaking, true},
		{"Unchanged", r.Changes.Unchanged, opts.Verbose || len(r.Changes.Unchanged) > 0},
	}
	for _, s := range sections {
		if !s.show {
			continue
		}
		fmt.Fprintf(&b, "%s (%d)\n", paint(ansiBold, s.title), len(s.changes))
		for _, c := range s.changes {
			writeTextChange(&b, c, 1, opts.Verbose, paint)
		}
		b.WriteString("\n")
	}

	st := r.Stats
	fmt.Fprintf(&b, "Symbols: %s old, %s new; %d added, %d removed, %d modified, %s unchanged\n",
		humanize.Comma(int64(st.TotalSymbolsOld)), humanize.Comma(int64(st.TotalSymbolsNew)),
		st.Added, st.Removed, st.Modified, humanize.Comma(int64(st.Unchanged)))
	return b.String()
}

func writeTextChange(b *strings.Builder, c changespec.ClassifiedChange, depth int, verbose bool, paint func(string, string) string) {
	indent := strings.Repeat("  ", depth)
	label := fmt.Sprintf("[%s]", c.ReleaseType)
	fmt.Fprintf(b, "%s- %s %s: %s\n", indent, paint(releaseColor(c.ReleaseType), label), c.Symbol, c.Explanation)
	for _, n := range c.NestedChanges {
		if !verbose && n.ReleaseType == changespec.ReleaseNone {
			continue
		}
		writeTextChange(b, n, depth+1, verbose, paint)
	}
}

func releaseColor(rt changespec.ReleaseType) string {
	switch rt {
	case changespec.ReleaseMajor:
		return ansiRed
	case changespec.ReleaseMinor:
		return ansiGreen
	}
	return ansiGray
}

// FormatMarkdown renders r as a Markdown document suitable for pull request
// comments. Modified top-level symbols get a unified diff of their signature.
func FormatMarkdown(r *changespec.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## API changes: `%s`\n\n", r.ReleaseType)
	if r.OldFile != "" || r.NewFile != "" {
		fmt.Fprintf(&b, "Comparing `%s` to `%s`.\n\n", r.OldFile, r.NewFile)
	}

	st := r.Stats
	b.WriteString("| old | new | added | removed | modified | unchanged |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d |\n\n",
		st.TotalSymbolsOld, st.TotalSymbolsNew, st.Added, st.Removed, st.Modified, st.Unchanged)

	sections := []struct {
		title   string
		changes []changespec.ClassifiedChange
	}{
		{"Breaking changes", r.Changes.Breaking},
		{"Non-breaking changes", r.Changes.NonBreaking},
		{"Other changes", r.Changes.Unchanged},
	}
	for _, s := range sections {
		if len(s.changes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n", s.title)
		for _, c := range s.changes {
			writeMarkdownChange(&b, c, 0)
			if d := signatureDiff(c, r.OldFile, r.NewFile); d != "" {
				fmt.Fprintf(&b, "\n  ```diff\n%s  ```\n", indentLines(d, "  "))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeMarkdownChange(b *strings.Builder, c changespec.ClassifiedChange, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(b, "%s- **%s** `%s`: %s\n", indent, c.ReleaseType, c.Symbol, escapeMarkdown(c.Explanation))
	for _, n := range c.NestedChanges {
		if n.ReleaseType == changespec.ReleaseNone {
			continue
		}
		writeMarkdownChange(b, n, depth+1)
	}
}

// signatureDiff returns a unified diff of a modified change's old and new
// text, or "" when there is nothing to show.
func signatureDiff(c changespec.ClassifiedChange, oldFile, newFile string) string {
	if c.Action != changespec.ActionModified || c.Old == nil || c.New == nil || c.Old.Text == c.New.Text {
		return ""
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(splitMembers(c.Old.Text)),
		B:        difflib.SplitLines(splitMembers(c.New.Text)),
		FromFile: oldFile,
		ToFile:   newFile,
		Context:  1,
	})
	if err != nil {
		return ""
	}
	return out
}

// splitMembers puts each "; "-separated member on its own line so that
// diffs of object-like signatures are line oriented.
func splitMembers(s string) string {
	return strings.ReplaceAll(s, "; ", ";\n") + "\n"
}

func indentLines(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		b.WriteString(prefix + l)
	}
	return b.String()
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "<", "&lt;", ">", "&gt;").Replace(s)
}

// FormatJSON renders r using the stable report contract.
func FormatJSON(r *changespec.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return append(data, '\n'), nil
}

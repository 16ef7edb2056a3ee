// Package report aggregates classified changes into a comparison report and
// renders reports for humans and machines.
package report

import (
	"github.com/emenda-labs/semdiff/core/changespec"
)

type options struct {
	totalOld, totalNew int
}

// Option configures Create.
type Option func(*options)

// WithTotals records the number of exported symbols on each side. Without it
// the totals and the unchanged count are zero.
func WithTotals(old, new int) Option {
	return func(o *options) {
		o.totalOld, o.totalNew = old, new
	}
}

// Create buckets top-level changes by release type and computes the overall
// verdict and per-symbol statistics.
func Create(changes []changespec.ClassifiedChange, oldFile, newFile string, opts ...Option) *changespec.Report {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &changespec.Report{
		ReleaseType: changespec.ReleaseNone,
		Changes: changespec.ChangeBuckets{
			Breaking:    []changespec.ClassifiedChange{},
			NonBreaking: []changespec.ClassifiedChange{},
			Unchanged:   []changespec.ClassifiedChange{},
		},
		OldFile: oldFile,
		NewFile: newFile,
	}

	for _, c := range changes {
		r.ReleaseType = changespec.MaxRelease(r.ReleaseType, c.ReleaseType)
		switch c.ReleaseType {
		case changespec.ReleaseMajor:
			r.Changes.Breaking = append(r.Changes.Breaking, c)
		case changespec.ReleaseMinor:
			r.Changes.NonBreaking = append(r.Changes.NonBreaking, c)
		default:
			r.Changes.Unchanged = append(r.Changes.Unchanged, c)
		}
	}

	r.Stats = stats(changes, o)
	return r
}

type symbolStatus struct {
	added, removed, modified bool
}

// stats counts distinct symbols. A symbol both removed and added (a kind
// change) counts as modified, as does a rename.
func stats(changes []changespec.ClassifiedChange, o options) changespec.Stats {
	var order []string
	status := make(map[string]*symbolStatus)
	for _, c := range changes {
		s, ok := status[c.Symbol]
		if !ok {
			s = &symbolStatus{}
			status[c.Symbol] = s
			order = append(order, c.Symbol)
		}
		switch {
		case c.Target == changespec.TargetExport && c.Action == changespec.ActionAdded:
			s.added = true
		case c.Target == changespec.TargetExport && c.Action == changespec.ActionRemoved:
			s.removed = true
		default:
			s.modified = true
		}
	}

	st := changespec.Stats{TotalSymbolsOld: o.totalOld, TotalSymbolsNew: o.totalNew}
	for _, sym := range order {
		s := status[sym]
		switch {
		case s.modified || (s.added && s.removed):
			st.Modified++
		case s.added:
			st.Added++
		case s.removed:
			st.Removed++
		}
	}
	st.Unchanged = max(o.totalOld-st.Removed-st.Modified, 0)
	return st
}

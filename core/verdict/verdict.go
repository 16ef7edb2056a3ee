// Package verdict runs the full pipeline: structural diff, classification and
// report aggregation.
package verdict

import (
	"fmt"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/compare"
	"github.com/emenda-labs/semdiff/core/model"
	"github.com/emenda-labs/semdiff/core/policy"
	"github.com/emenda-labs/semdiff/core/report"
)

// Input names the two snapshots being compared.
type Input struct {
	Old, New         *model.Snapshot
	OldFile, NewFile string
}

// Compare diffs in.Old against in.New, classifies every change under p and
// returns the report. Snapshot extraction errors are logged, not fatal.
func Compare(in Input, p *policy.Policy, opts compare.Options) (*changespec.Report, error) {
	if p == nil {
		return nil, fmt.Errorf("compare: nil policy")
	}
	logger := opts.Logger
	for _, side := range []struct {
		name string
		snap *model.Snapshot
	}{{in.OldFile, in.Old}, {in.NewFile, in.New}} {
		if logger != nil && side.snap != nil && len(side.snap.Errors) > 0 {
			logger.Warn("snapshot has extraction errors", "file", side.name, "errors", len(side.snap.Errors))
		}
	}

	descs := compare.DiffModules(in.Old, in.New, opts)

	classified, err := policy.ClassifyChanges(descs, p)
	if err != nil {
		return nil, fmt.Errorf("classifying changes under %q: %w", p.Name, err)
	}

	r := report.Create(classified, in.OldFile, in.NewFile, report.WithTotals(in.Old.Len(), in.New.Len()))
	if logger != nil {
		logger.Info("comparison complete",
			"policy", p.Name,
			"release", string(r.ReleaseType),
			"breaking", len(r.Changes.Breaking),
			"nonBreaking", len(r.Changes.NonBreaking))
	}
	return r, nil
}

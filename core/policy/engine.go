package policy

import (
	"fmt"

	"github.com/emenda-labs/semdiff/core/changespec"
)

// DefaultRuleName is recorded on changes classified by the policy default.
const DefaultRuleName = "default"

// Classify assigns a release type to d and to every descriptor nested in it.
// A descriptor's release type is the most severe of its own verdict and its
// nested changes.
func Classify(d *changespec.ChangeDescriptor, p *Policy) (changespec.ClassifiedChange, error) {
	if p == nil {
		return changespec.ClassifiedChange{}, fmt.Errorf("classify %s: nil policy", d.Symbol)
	}

	own, rule, err := p.verdict(d)
	if err != nil {
		return changespec.ClassifiedChange{}, err
	}

	c := changespec.ClassifiedChange{
		Symbol:      d.Symbol,
		SymbolKind:  d.SymbolKind,
		Name:        d.Name,
		Target:      d.Target,
		Action:      d.Action,
		Aspect:      d.Aspect,
		Impact:      d.Impact,
		Tags:        d.Tags,
		ReleaseType: own,
		Rule:        rule,
		Explanation: Explain(d),
		Old:         d.Old,
		New:         d.New,
		Context:     d.Context,
		Descriptor:  d,
	}
	if len(d.Nested) > 0 {
		c.NestedChanges = make([]changespec.ClassifiedChange, 0, len(d.Nested))
		for _, n := range d.Nested {
			nc, err := Classify(n, p)
			if err != nil {
				return changespec.ClassifiedChange{}, err
			}
			c.NestedChanges = append(c.NestedChanges, nc)
			c.ReleaseType = changespec.MaxRelease(c.ReleaseType, nc.ReleaseType)
		}
	}
	return c, nil
}

// ClassifyChanges classifies every descriptor under p. It fails on the first
// descriptor that neither matches a rule nor falls back to a default.
func ClassifyChanges(descs []*changespec.ChangeDescriptor, p *Policy) ([]changespec.ClassifiedChange, error) {
	out := make([]changespec.ClassifiedChange, 0, len(descs))
	for _, d := range descs {
		c, err := Classify(d, p)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *Policy) verdict(d *changespec.ChangeDescriptor) (changespec.ReleaseType, string, error) {
	if r, ok := p.Match(d); ok {
		return r.ReleaseType, r.Name, nil
	}
	if p.Default == "" {
		return "", "", fmt.Errorf("policy %q: %w for %s %s %s on %s (tags %v)",
			p.Name, ErrNoMatchingRule, d.Target, d.Action, d.Aspect, d.Symbol, d.Tags)
	}
	return p.Default, DefaultRuleName, nil
}

package policy

import (
	"errors"
	"fmt"

	"github.com/emenda-labs/semdiff/core/changespec"
)

// Builder composes a Policy fluently:
//
//	p, err := policy.NewBuilder("lenient").
//		Extends(policy.DefaultPolicy()).
//		When("parameter added as required").Release(changespec.ReleaseMinor).
//		Rule("docs").ForAspects(changespec.AspectDeprecation).Release(changespec.ReleaseNone).
//		Build()
//
// Rules added through the builder take precedence over inherited ones.
// Errors are collected and reported by Build.
type Builder struct {
	policy Policy
	base   *Policy
	cur    *Rule
	errs   []error
}

// NewBuilder starts a policy with the given name and no default.
func NewBuilder(name string) *Builder {
	return &Builder{policy: Policy{Name: name}}
}

// Describe sets the policy description.
func (b *Builder) Describe(desc string) *Builder {
	b.policy.Description = desc
	return b
}

// Extends appends base's rules after the builder's own and inherits its
// default unless Default is called.
func (b *Builder) Extends(base *Policy) *Builder {
	if base == nil {
		b.errs = append(b.errs, errors.New("extends: nil base policy"))
		return b
	}
	b.base = base
	return b
}

// Rule starts a new rule. Filters apply to it until Release closes it.
func (b *Builder) Rule(name string) *Builder {
	b.flush()
	b.cur = &Rule{Name: name}
	return b
}

// When starts a new rule from a phrase such as "property made required".
func (b *Builder) When(p Pattern) *Builder {
	return b.Match(p)
}

// Match starts a new rule from any template.
func (b *Builder) Match(t Template) *Builder {
	b.flush()
	r, err := Resolve(t)
	if err != nil {
		b.errs = append(b.errs, err)
		r = Rule{Name: fmt.Sprint(t)}
	}
	b.cur = &r
	return b
}

// Describing sets the current rule's description.
func (b *Builder) Describing(desc string) *Builder {
	if r := b.rule("Describing"); r != nil {
		r.Description = desc
	}
	return b
}

func (b *Builder) ForTargets(targets ...changespec.Target) *Builder {
	if r := b.rule("ForTargets"); r != nil {
		r.Targets = append(r.Targets, targets...)
	}
	return b
}

func (b *Builder) ForActions(actions ...changespec.Action) *Builder {
	if r := b.rule("ForActions"); r != nil {
		r.Actions = append(r.Actions, actions...)
	}
	return b
}

func (b *Builder) ForAspects(aspects ...changespec.Aspect) *Builder {
	if r := b.rule("ForAspects"); r != nil {
		r.Aspects = append(r.Aspects, aspects...)
	}
	return b
}

func (b *Builder) ForImpacts(impacts ...changespec.Impact) *Builder {
	if r := b.rule("ForImpacts"); r != nil {
		r.Impacts = append(r.Impacts, impacts...)
	}
	return b
}

// WithTags requires all of tags on matching descriptors.
func (b *Builder) WithTags(tags ...changespec.Tag) *Builder {
	if r := b.rule("WithTags"); r != nil {
		r.Tags = append(r.Tags, tags...)
	}
	return b
}

// InScope restricts the current rule to top-level or nested descriptors.
func (b *Builder) InScope(s Scope) *Builder {
	if r := b.rule("InScope"); r != nil {
		r.Scope = s
	}
	return b
}

// Release sets the current rule's release type and closes it.
func (b *Builder) Release(rt changespec.ReleaseType) *Builder {
	if r := b.rule("Release"); r != nil {
		r.ReleaseType = rt
		b.flush()
	}
	return b
}

// Add appends fully formed rules.
func (b *Builder) Add(rules ...Rule) *Builder {
	b.flush()
	b.policy.Rules = append(b.policy.Rules, rules...)
	return b
}

// Default sets the release type for descriptors no rule matches.
func (b *Builder) Default(rt changespec.ReleaseType) *Builder {
	if !rt.Valid() {
		b.errs = append(b.errs, fmt.Errorf("default: invalid release type %q", rt))
		return b
	}
	b.policy.Default = rt
	return b
}

// Build validates and returns the policy.
func (b *Builder) Build() (*Policy, error) {
	b.flush()

	p := b.policy
	p.Rules = append([]Rule(nil), b.policy.Rules...)
	if b.base != nil {
		p.Rules = append(p.Rules, b.base.Rules...)
		if p.Default == "" {
			p.Default = b.base.Default
		}
	}

	errs := append([]error(nil), b.errs...)
	if p.Name == "" {
		errs = append(errs, errors.New("policy has no name"))
	}
	if err := p.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("build policy %q: %w", p.Name, err)
	}
	return &p, nil
}

func (b *Builder) rule(method string) *Rule {
	if b.cur == nil {
		b.errs = append(b.errs, fmt.Errorf("%s called before Rule or When", method))
	}
	return b.cur
}

func (b *Builder) flush() {
	if b.cur == nil {
		return
	}
	b.policy.Rules = append(b.policy.Rules, *b.cur)
	b.cur = nil
}

package policy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emenda-labs/semdiff/core/changespec"
)

var (
	// ErrNoMatchingRule is returned when no rule matches a descriptor and the
	// policy has no default.
	ErrNoMatchingRule = errors.New("no matching rule")

	// ErrUnknownPolicy is returned by Registry.Lookup for unregistered names.
	ErrUnknownPolicy = errors.New("unknown policy")

	// ErrInvalidRule is returned for rules that can never classify anything.
	ErrInvalidRule = errors.New("invalid rule")
)

// Scope restricts a rule to top-level or nested descriptors.
type Scope string

const (
	ScopeAny      Scope = ""
	ScopeTopLevel Scope = "top-level"
	ScopeNested   Scope = "nested"
)

// Rule maps matching descriptors to a release type. Empty filters match
// anything. Aspect and impact filters only match modifications. All listed
// tags must be present.
type Rule struct {
	Name        string                 `json:"name" yaml:"name" toml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Targets     []changespec.Target    `json:"targets,omitempty" yaml:"targets,omitempty" toml:"targets,omitempty"`
	Actions     []changespec.Action    `json:"actions,omitempty" yaml:"actions,omitempty" toml:"actions,omitempty"`
	Aspects     []changespec.Aspect    `json:"aspects,omitempty" yaml:"aspects,omitempty" toml:"aspects,omitempty"`
	Impacts     []changespec.Impact    `json:"impacts,omitempty" yaml:"impacts,omitempty" toml:"impacts,omitempty"`
	Tags        []changespec.Tag       `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	Scope       Scope                  `json:"scope,omitempty" yaml:"scope,omitempty" toml:"scope,omitempty"`
	ReleaseType changespec.ReleaseType `json:"releaseType" yaml:"release" toml:"release"`
}

// Matches reports whether every filter of r accepts d.
func (r *Rule) Matches(d *changespec.ChangeDescriptor) bool {
	if len(r.Targets) > 0 && !slices.Contains(r.Targets, d.Target) {
		return false
	}
	if len(r.Actions) > 0 && !slices.Contains(r.Actions, d.Action) {
		return false
	}
	if len(r.Aspects) > 0 && (d.Action != changespec.ActionModified || !slices.Contains(r.Aspects, d.Aspect)) {
		return false
	}
	if len(r.Impacts) > 0 && (d.Action != changespec.ActionModified || !slices.Contains(r.Impacts, d.Impact)) {
		return false
	}
	if !d.Tags.HasAll(r.Tags) {
		return false
	}
	switch r.Scope {
	case ScopeTopLevel:
		return !d.Context.IsNested
	case ScopeNested:
		return d.Context.IsNested
	}
	return true
}

// Validate checks that r names known values and a concrete release type.
func (r *Rule) Validate() error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, errors.New("rule has no name"))
	}
	if !r.ReleaseType.Valid() {
		errs = append(errs, fmt.Errorf("release type %q", r.ReleaseType))
	}
	for _, t := range r.Targets {
		if !slices.Contains(changespec.AllTargets, t) {
			errs = append(errs, fmt.Errorf("target %q", t))
		}
	}
	for _, a := range r.Actions {
		switch a {
		case changespec.ActionAdded, changespec.ActionRemoved, changespec.ActionModified:
		default:
			errs = append(errs, fmt.Errorf("action %q", a))
		}
	}
	switch r.Scope {
	case ScopeAny, ScopeTopLevel, ScopeNested:
	default:
		errs = append(errs, fmt.Errorf("scope %q", r.Scope))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w %q: %w", ErrInvalidRule, r.Name, errors.Join(errs...))
}

// Policy is an ordered, first-match-wins rule table.
type Policy struct {
	Name        string                 `json:"name" yaml:"name" toml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Rules       []Rule                 `json:"rules" yaml:"rules" toml:"rules"`
	Default     changespec.ReleaseType `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
}

// Match returns the first rule matching d.
func (p *Policy) Match(d *changespec.ChangeDescriptor) (*Rule, bool) {
	for i := range p.Rules {
		if p.Rules[i].Matches(d) {
			return &p.Rules[i], true
		}
	}
	return nil, false
}

// Validate checks every rule and the default.
func (p *Policy) Validate() error {
	var errs []error
	for i := range p.Rules {
		if err := p.Rules[i].Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.Default != "" && !p.Default.Valid() {
		errs = append(errs, fmt.Errorf("policy %q: invalid default %q", p.Name, p.Default))
	}
	return errors.Join(errs...)
}

package policy

import (
	"fmt"
	"maps"
	"slices"

	"github.com/emenda-labs/semdiff/core/changespec"
)

// Built-in policy names.
const (
	NameDefault   = "default"
	NameReadOnly  = "read-only"
	NameWriteOnly = "write-only"
)

var (
	memberTargets = []changespec.Target{changespec.TargetProperty, changespec.TargetMethod, changespec.TargetConstructor}
	modified      = []changespec.Action{changespec.ActionModified}
	added         = []changespec.Action{changespec.ActionAdded}
	removed       = []changespec.Action{changespec.ActionRemoved}
)

// defaultRules is the conservative rule table. Types may be both read and
// written by callers, so any change that is not a pure addition is major.
func defaultRules() []Rule {
	return []Rule{
		{Name: "renamed", Description: "rename of an export or member", Aspects: []changespec.Aspect{changespec.AspectName}, Tags: []changespec.Tag{changespec.TagFieldRenamed}, ReleaseType: changespec.ReleaseMajor},
		{Name: "export-removed", Targets: []changespec.Target{changespec.TargetExport}, Actions: removed, ReleaseType: changespec.ReleaseMajor},
		{Name: "export-added", Targets: []changespec.Target{changespec.TargetExport}, Actions: added, ReleaseType: changespec.ReleaseMinor},
		{Name: "deprecation", Description: "metadata only", Aspects: []changespec.Aspect{changespec.AspectDeprecation}, ReleaseType: changespec.ReleasePatch},
		{Name: "default-value", Description: "metadata only", Aspects: []changespec.Aspect{changespec.AspectDefaultValue}, ReleaseType: changespec.ReleasePatch},
		{Name: "export-form", Description: "default and named imports are not interchangeable", Aspects: []changespec.Aspect{changespec.AspectExportForm}, ReleaseType: changespec.ReleaseMajor},
		{Name: "overload-count", Description: "overloads are not paired when their number changes", Tags: []changespec.Tag{changespec.TagOverloadCountChanged}, ReleaseType: changespec.ReleaseMajor},
		{Name: "parameter-order", Tags: []changespec.Tag{changespec.TagParamOrderChanged}, ReleaseType: changespec.ReleaseMajor},
		{Name: "parameter-made-optional", Targets: []changespec.Target{changespec.TargetParameter}, Aspects: []changespec.Aspect{changespec.AspectOptionality}, Tags: []changespec.Tag{changespec.TagOptionalityLoosened}, ReleaseType: changespec.ReleaseMinor},
		{Name: "parameter-made-required", Targets: []changespec.Target{changespec.TargetParameter}, Aspects: []changespec.Aspect{changespec.AspectOptionality}, Tags: []changespec.Tag{changespec.TagOptionalityTightened}, ReleaseType: changespec.ReleaseMajor},
		{Name: "property-optionality", Description: "properties are read and written, so either direction breaks someone", Targets: []changespec.Target{changespec.TargetProperty}, Aspects: []changespec.Aspect{changespec.AspectOptionality}, ReleaseType: changespec.ReleaseMajor},
		{Name: "optional-member-added", Targets: memberTargets, Actions: added, Tags: []changespec.Tag{changespec.TagOptional}, ReleaseType: changespec.ReleaseMinor},
		{Name: "required-member-added", Targets: memberTargets, Actions: added, ReleaseType: changespec.ReleaseMajor},
		{Name: "member-removed", Targets: memberTargets, Actions: removed, ReleaseType: changespec.ReleaseMajor},
		{Name: "optional-parameter-added", Targets: []changespec.Target{changespec.TargetParameter}, Actions: added, Tags: []changespec.Tag{changespec.TagOptional}, ReleaseType: changespec.ReleaseMinor},
		{Name: "required-parameter-added", Targets: []changespec.Target{changespec.TargetParameter}, Actions: added, ReleaseType: changespec.ReleaseMajor},
		{Name: "parameter-removed", Targets: []changespec.Target{changespec.TargetParameter}, Actions: removed, ReleaseType: changespec.ReleaseMajor},
		{Name: "enum-member-added", Targets: []changespec.Target{changespec.TargetEnumMember}, Actions: added, ReleaseType: changespec.ReleaseMinor},
		{Name: "enum-member-removed", Targets: []changespec.Target{changespec.TargetEnumMember}, Actions: removed, ReleaseType: changespec.ReleaseMajor},
		{Name: "optional-type-parameter-added", Targets: []changespec.Target{changespec.TargetTypeParameter}, Actions: added, Tags: []changespec.Tag{changespec.TagOptional}, ReleaseType: changespec.ReleaseMinor},
		{Name: "union-membership", Description: "members matter to both producers and consumers", Targets: []changespec.Target{changespec.TargetUnionMember, changespec.TargetIntersectionMember}, ReleaseType: changespec.ReleaseMajor},
		{Name: "tuple-element", Targets: []changespec.Target{changespec.TargetTupleElement}, ReleaseType: changespec.ReleaseMajor},
		{Name: "index-signature", Description: "optional markers on index signatures are not refined", Targets: []changespec.Target{changespec.TargetIndexSignature}, ReleaseType: changespec.ReleaseMajor},
		{Name: "mapped-type", Description: "mapped modifiers are not refined", Targets: []changespec.Target{changespec.TargetMappedModifier, changespec.TargetMappedType}, ReleaseType: changespec.ReleaseMajor},
		{Name: "structure", Description: "containers take the release type of their nested changes", Aspects: []changespec.Aspect{changespec.AspectStructure}, ReleaseType: changespec.ReleaseNone},
		{Name: "modified", Description: "any other modification", Actions: modified, ReleaseType: changespec.ReleaseMajor},
	}
}

// DefaultPolicy returns the symmetric, conservative policy.
func DefaultPolicy() *Policy {
	return &Policy{
		Name:        NameDefault,
		Description: "Conservative: types are assumed to be both read and written by callers.",
		Rules:       defaultRules(),
		Default:     changespec.ReleaseMajor,
	}
}

// ReadOnlyPolicy treats types as consumed only: a type that accepts more
// values than before is a compatible extension.
func ReadOnlyPolicy() *Policy {
	rules := []Rule{
		{Name: "type-widened", Description: "consumers accept the wider type", Tags: []changespec.Tag{changespec.TagTypeWidened}, ReleaseType: changespec.ReleaseMinor},
		{Name: "optionality-loosened", Description: "consumers accept a missing value", Tags: []changespec.Tag{changespec.TagOptionalityLoosened}, ReleaseType: changespec.ReleaseMinor},
	}
	return &Policy{
		Name:        NameReadOnly,
		Description: "Consumer view: widening a type is safe.",
		Rules:       append(rules, defaultRules()...),
		Default:     changespec.ReleaseMajor,
	}
}

// WriteOnlyPolicy treats types as produced only: a type that admits fewer
// values than before is a compatible change.
func WriteOnlyPolicy() *Policy {
	rules := []Rule{
		{Name: "type-narrowed", Description: "producers never emit the removed values", Tags: []changespec.Tag{changespec.TagTypeNarrowed}, ReleaseType: changespec.ReleaseMinor},
		{Name: "optionality-tightened", Description: "producers always supply the value", Tags: []changespec.Tag{changespec.TagOptionalityTightened}, ReleaseType: changespec.ReleaseMinor},
	}
	return &Policy{
		Name:        NameWriteOnly,
		Description: "Producer view: narrowing a type is safe.",
		Rules:       append(rules, defaultRules()...),
		Default:     changespec.ReleaseMajor,
	}
}

// Registry resolves policies by name. Callers own their registry; nothing is
// registered globally.
type Registry struct {
	policies map[string]*Policy
}

// NewRegistry returns a registry holding ps.
func NewRegistry(ps ...*Policy) *Registry {
	r := &Registry{policies: make(map[string]*Policy, len(ps))}
	for _, p := range ps {
		r.policies[p.Name] = p
	}
	return r
}

// Builtins returns a registry of the built-in policies.
func Builtins() *Registry {
	return NewRegistry(DefaultPolicy(), ReadOnlyPolicy(), WriteOnlyPolicy())
}

// Register adds p, replacing any policy of the same name.
func (r *Registry) Register(p *Policy) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("register: policy has no name")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("register %q: %w", p.Name, err)
	}
	r.policies[p.Name] = p
	return nil
}

// Lookup returns the named policy.
func (r *Registry) Lookup(name string) (*Policy, error) {
	p, ok := r.policies[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownPolicy, name, r.Names())
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.policies))
}

package changespec

import (
	"github.com/emenda-labs/semdiff/core/model"
)

// Target names the part of the API a change applies to.
type Target string

const (
	TargetExport             Target = "export"
	TargetProperty           Target = "property"
	TargetMethod             Target = "method"
	TargetConstructor        Target = "constructor"
	TargetParameter          Target = "parameter"
	TargetReturnType         Target = "return-type"
	TargetOverload           Target = "overload"
	TargetCallSignature      Target = "call-signature"
	TargetIndexSignature     Target = "index-signature"
	TargetTypeParameter      Target = "type-parameter"
	TargetTypeDefinition     Target = "type-definition"
	TargetUnionMember        Target = "union-member"
	TargetIntersectionMember Target = "intersection-member"
	TargetTupleElement       Target = "tuple-element"
	TargetArrayElement       Target = "array-element"
	TargetMappedModifier     Target = "mapped-modifier"
	TargetMappedType         Target = "mapped-type"
	TargetConditionalBranch  Target = "conditional-branch"
	TargetEnumMember         Target = "enum-member"
)

// AllTargets lists every target in declaration order.
var AllTargets = []Target{
	TargetExport, TargetProperty, TargetMethod, TargetConstructor, TargetParameter,
	TargetReturnType, TargetOverload, TargetCallSignature, TargetIndexSignature,
	TargetTypeParameter, TargetTypeDefinition, TargetUnionMember, TargetIntersectionMember,
	TargetTupleElement, TargetArrayElement, TargetMappedModifier, TargetMappedType,
	TargetConditionalBranch, TargetEnumMember,
}

// Action is what happened to the target.
type Action string

const (
	ActionAdded    Action = "added"
	ActionRemoved  Action = "removed"
	ActionModified Action = "modified"
)

// Aspect is the dimension of a modification. Only meaningful for ActionModified.
type Aspect string

const (
	AspectStructure    Aspect = "structure"
	AspectType         Aspect = "type"
	AspectOptionality  Aspect = "optionality"
	AspectReadonly     Aspect = "readonly"
	AspectOrder        Aspect = "order"
	AspectName         Aspect = "name"
	AspectArity        Aspect = "arity"
	AspectDeprecation  Aspect = "deprecation"
	AspectDefaultValue Aspect = "default-value"
	AspectValue        Aspect = "value"
	AspectModifier     Aspect = "modifier"
	AspectExportForm   Aspect = "export-form"
)

// Impact is the direction of a modification. Only meaningful for ActionModified.
type Impact string

const (
	ImpactNone      Impact = ""
	ImpactWidening  Impact = "widening"
	ImpactNarrowing Impact = "narrowing"
	ImpactUnrelated Impact = "unrelated"
)

// Fragment references the old or new side of a change.
type Fragment struct {
	Name     string `json:"name,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Text     string `json:"text,omitempty"`
	Optional bool   `json:"optional,omitempty"`
	Readonly bool   `json:"readonly,omitempty"`

	Node  *model.Node  `json:"-"`
	Shape *model.Shape `json:"-"`
}

// Context locates a change within its symbol.
type Context struct {
	Depth     int      `json:"depth"`
	Ancestors []string `json:"ancestors,omitempty"`
	IsNested  bool     `json:"isNested"`
}

// Child returns the context one level below c, under the given ancestor name.
func (c Context) Child(name string) Context {
	ancestors := make([]string, len(c.Ancestors), len(c.Ancestors)+1)
	copy(ancestors, c.Ancestors)
	return Context{
		Depth:     c.Depth + 1,
		Ancestors: append(ancestors, name),
		IsNested:  true,
	}
}

// ChangeDescriptor is a raw, unclassified structural change. Descriptors are
// read-only once DiffModules returns.
type ChangeDescriptor struct {
	Symbol     string     `json:"symbol"`
	SymbolKind model.Kind `json:"symbolKind,omitempty"`
	Name       string     `json:"name,omitempty"`
	Target     Target     `json:"target"`
	Action     Action     `json:"action"`
	Aspect     Aspect     `json:"aspect,omitempty"`
	Impact     Impact     `json:"impact,omitempty"`
	Tags       Tags       `json:"tags,omitempty"`
	Old        *Fragment  `json:"old,omitempty"`
	New        *Fragment  `json:"new,omitempty"`
	Context    Context    `json:"context"`

	Nested []*ChangeDescriptor `json:"nested,omitempty"`
}

// Walk calls fn for d and every nested descriptor, parents first.
func (d *ChangeDescriptor) Walk(fn func(*ChangeDescriptor)) {
	stack := []*ChangeDescriptor{d}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur)
		for i := len(cur.Nested) - 1; i >= 0; i-- {
			stack = append(stack, cur.Nested[i])
		}
	}
}

// ClassifiedChange is a descriptor with its release-type verdict.
type ClassifiedChange struct {
	Symbol        string             `json:"symbol"`
	SymbolKind    model.Kind         `json:"symbolKind,omitempty"`
	Name          string             `json:"name,omitempty"`
	Target        Target             `json:"target"`
	Action        Action             `json:"action"`
	Aspect        Aspect             `json:"aspect,omitempty"`
	Impact        Impact             `json:"impact,omitempty"`
	Tags          Tags               `json:"tags,omitempty"`
	ReleaseType   ReleaseType        `json:"releaseType"`
	Rule          string             `json:"rule,omitempty"`
	Explanation   string             `json:"explanation"`
	Old           *Fragment          `json:"old,omitempty"`
	New           *Fragment          `json:"new,omitempty"`
	NestedChanges []ClassifiedChange `json:"nestedChanges,omitempty"`
	Context       Context            `json:"context"`

	Descriptor *ChangeDescriptor `json:"-"`
}

// ChangeBuckets groups classified changes by severity.
type ChangeBuckets struct {
	Breaking    []ClassifiedChange `json:"breaking"`
	NonBreaking []ClassifiedChange `json:"nonBreaking"`
	Unchanged   []ClassifiedChange `json:"unchanged"`
}

// Stats counts symbols, with renames counted once as modified.
type Stats struct {
	TotalSymbolsOld int `json:"totalSymbolsOld"`
	TotalSymbolsNew int `json:"totalSymbolsNew"`
	Added           int `json:"added"`
	Removed         int `json:"removed"`
	Modified        int `json:"modified"`
	Unchanged       int `json:"unchanged"`
}

// Report is the result of comparing two snapshots.
type Report struct {
	ReleaseType ReleaseType   `json:"releaseType"`
	Changes     ChangeBuckets `json:"changes"`
	Stats       Stats         `json:"stats"`
	OldFile     string        `json:"oldFile"`
	NewFile     string        `json:"newFile"`
}

// HasBreakingChanges reports whether any change was classified major.
func (r *Report) HasBreakingChanges() bool {
	return r != nil && len(r.Changes.Breaking) > 0
}

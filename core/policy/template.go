package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/emenda-labs/semdiff/core/changespec"
)

// Template describes a rule's filters in phrase form. The variants are
// Pattern, Intent and Conditional; Resolve turns any of them into a Rule.
type Template interface {
	isTemplate()
}

// Pattern is a rule phrase: "<target> <verb> [when <condition>]", for
// example "parameter made optional" or "any type widened when nested".
type Pattern string

// Verb is the change half of a phrase, such as "made optional".
type Verb string

// Intent is the parsed meaning of a phrase. An empty Target matches any target.
type Intent struct {
	Target changespec.Target
	Verb   Verb
}

// Condition narrows an intent by position or direction.
type Condition string

const (
	WhenNested    Condition = "nested"
	WhenTopLevel  Condition = "top-level"
	WhenWidening  Condition = "widening"
	WhenNarrowing Condition = "narrowing"
	WhenUnrelated Condition = "unrelated"
)

// Conditional is an intent that applies only under a condition.
type Conditional struct {
	Intent Intent
	When   Condition
}

func (Pattern) isTemplate()     {}
func (Intent) isTemplate()      {}
func (Conditional) isTemplate() {}

// anyTarget is the phrase word for an empty target filter.
const anyTarget = "any"

// verbEntry binds a verb phrase to descriptor filters. The table is read in
// both directions: phrases resolve to filters, descriptors render to phrases.
type verbEntry struct {
	verb   Verb
	action changespec.Action
	aspect changespec.Aspect
	tags   []changespec.Tag
}

var verbTable = []verbEntry{
	{verb: "added", action: changespec.ActionAdded},
	{verb: "added as optional", action: changespec.ActionAdded, tags: []changespec.Tag{changespec.TagOptional}},
	{verb: "added as required", action: changespec.ActionAdded, tags: []changespec.Tag{changespec.TagRequired}},
	{verb: "removed", action: changespec.ActionRemoved},
	{verb: "removed while optional", action: changespec.ActionRemoved, tags: []changespec.Tag{changespec.TagOptional}},
	{verb: "removed while required", action: changespec.ActionRemoved, tags: []changespec.Tag{changespec.TagRequired}},
	{verb: "modified", action: changespec.ActionModified},
	{verb: "renamed", action: changespec.ActionModified, aspect: changespec.AspectName, tags: []changespec.Tag{changespec.TagFieldRenamed}},
	{verb: "changed structure", action: changespec.ActionModified, aspect: changespec.AspectStructure},
	{verb: "type changed", action: changespec.ActionModified, aspect: changespec.AspectType},
	{verb: "type widened", action: changespec.ActionModified, aspect: changespec.AspectType, tags: []changespec.Tag{changespec.TagTypeWidened}},
	{verb: "type narrowed", action: changespec.ActionModified, aspect: changespec.AspectType, tags: []changespec.Tag{changespec.TagTypeNarrowed}},
	{verb: "changed optionality", action: changespec.ActionModified, aspect: changespec.AspectOptionality},
	{verb: "made optional", action: changespec.ActionModified, aspect: changespec.AspectOptionality, tags: []changespec.Tag{changespec.TagOptionalityLoosened}},
	{verb: "made required", action: changespec.ActionModified, aspect: changespec.AspectOptionality, tags: []changespec.Tag{changespec.TagOptionalityTightened}},
	{verb: "changed readonly", action: changespec.ActionModified, aspect: changespec.AspectReadonly},
	{verb: "made readonly", action: changespec.ActionModified, aspect: changespec.AspectReadonly, tags: []changespec.Tag{changespec.TagReadonlyAdded}},
	{verb: "made writable", action: changespec.ActionModified, aspect: changespec.AspectReadonly, tags: []changespec.Tag{changespec.TagReadonlyRemoved}},
	{verb: "reordered", action: changespec.ActionModified, aspect: changespec.AspectOrder, tags: []changespec.Tag{changespec.TagParamOrderChanged}},
	{verb: "changed arity", action: changespec.ActionModified, aspect: changespec.AspectArity},
	{verb: "changed overload count", action: changespec.ActionModified, aspect: changespec.AspectArity, tags: []changespec.Tag{changespec.TagOverloadCountChanged}},
	{verb: "changed deprecation", action: changespec.ActionModified, aspect: changespec.AspectDeprecation},
	{verb: "deprecated", action: changespec.ActionModified, aspect: changespec.AspectDeprecation, tags: []changespec.Tag{changespec.TagDeprecatedAdded}},
	{verb: "undeprecated", action: changespec.ActionModified, aspect: changespec.AspectDeprecation, tags: []changespec.Tag{changespec.TagDeprecatedRemoved}},
	{verb: "changed default", action: changespec.ActionModified, aspect: changespec.AspectDefaultValue},
	{verb: "default added", action: changespec.ActionModified, aspect: changespec.AspectDefaultValue, tags: []changespec.Tag{changespec.TagDefaultAdded}},
	{verb: "default removed", action: changespec.ActionModified, aspect: changespec.AspectDefaultValue, tags: []changespec.Tag{changespec.TagDefaultRemoved}},
	{verb: "default changed", action: changespec.ActionModified, aspect: changespec.AspectDefaultValue, tags: []changespec.Tag{changespec.TagDefaultChanged}},
	{verb: "value changed", action: changespec.ActionModified, aspect: changespec.AspectValue},
	{verb: "modifier changed", action: changespec.ActionModified, aspect: changespec.AspectModifier},
	{verb: "export form changed", action: changespec.ActionModified, aspect: changespec.AspectExportForm},
}

var conditions = []Condition{WhenNested, WhenTopLevel, WhenWidening, WhenNarrowing, WhenUnrelated}

func lookupVerb(v Verb) (verbEntry, bool) {
	for _, e := range verbTable {
		if e.verb == v {
			return e, true
		}
	}
	return verbEntry{}, false
}

// Verbs returns every known verb in table order.
func Verbs() []Verb {
	out := make([]Verb, len(verbTable))
	for i, e := range verbTable {
		out[i] = e.verb
	}
	return out
}

// ParsePattern parses a phrase into an Intent, or a Conditional when it has
// a "when" clause.
func ParsePattern(p Pattern) (Template, error) {
	words := strings.Fields(strings.ToLower(string(p)))
	if len(words) < 2 {
		return nil, fmt.Errorf("pattern %q: want \"<target> <verb>\"", p)
	}

	var when Condition
	if i := slices.Index(words, "when"); i >= 0 {
		if i != len(words)-2 {
			return nil, fmt.Errorf("pattern %q: \"when\" takes exactly one condition", p)
		}
		when = Condition(words[i+1])
		if !slices.Contains(conditions, when) {
			return nil, fmt.Errorf("pattern %q: unknown condition %q", p, when)
		}
		words = words[:i]
	}

	intent := Intent{}
	if words[0] != anyTarget {
		intent.Target = changespec.Target(words[0])
		if !slices.Contains(changespec.AllTargets, intent.Target) {
			return nil, fmt.Errorf("pattern %q: unknown target %q", p, words[0])
		}
	}
	intent.Verb = Verb(strings.Join(words[1:], " "))
	if _, ok := lookupVerb(intent.Verb); !ok {
		return nil, fmt.Errorf("pattern %q: unknown verb %q", p, intent.Verb)
	}

	if when != "" {
		return Conditional{Intent: intent, When: when}, nil
	}
	return intent, nil
}

// Pattern renders the intent back to its phrase.
func (i Intent) Pattern() Pattern {
	target := string(i.Target)
	if target == "" {
		target = anyTarget
	}
	return Pattern(target + " " + string(i.Verb))
}

// Pattern renders the conditional back to its phrase.
func (c Conditional) Pattern() Pattern {
	return c.Intent.Pattern() + Pattern(" when "+string(c.When))
}

// Resolve converts a template into rule filters. The rule is named after its
// phrase and carries no release type.
func Resolve(t Template) (Rule, error) {
	switch t := t.(type) {
	case Pattern:
		parsed, err := ParsePattern(t)
		if err != nil {
			return Rule{}, err
		}
		return Resolve(parsed)
	case Intent:
		e, ok := lookupVerb(t.Verb)
		if !ok {
			return Rule{}, fmt.Errorf("unknown verb %q", t.Verb)
		}
		r := Rule{Name: string(t.Pattern()), Actions: []changespec.Action{e.action}}
		if t.Target != "" {
			r.Targets = []changespec.Target{t.Target}
		}
		if e.aspect != "" {
			r.Aspects = []changespec.Aspect{e.aspect}
		}
		r.Tags = slices.Clone(e.tags)
		return r, nil
	case Conditional:
		r, err := Resolve(t.Intent)
		if err != nil {
			return Rule{}, err
		}
		r.Name = string(t.Pattern())
		switch t.When {
		case WhenNested:
			r.Scope = ScopeNested
		case WhenTopLevel:
			r.Scope = ScopeTopLevel
		case WhenWidening:
			r.Impacts = []changespec.Impact{changespec.ImpactWidening}
		case WhenNarrowing:
			r.Impacts = []changespec.Impact{changespec.ImpactNarrowing}
		case WhenUnrelated:
			r.Impacts = []changespec.Impact{changespec.ImpactUnrelated}
		default:
			return Rule{}, fmt.Errorf("unknown condition %q", t.When)
		}
		return r, nil
	case nil:
		return Rule{}, fmt.Errorf("nil template")
	}
	return Rule{}, fmt.Errorf("unsupported template %T", t)
}

// Describe returns the intent that best describes d: the matching verb with
// the most tags, preferring one that names an aspect.
func Describe(d *changespec.ChangeDescriptor) Intent {
	best, bestScore := Verb(""), -1
	for _, e := range verbTable {
		if e.action != d.Action {
			continue
		}
		if e.aspect != "" && e.aspect != d.Aspect {
			continue
		}
		if !d.Tags.HasAll(e.tags) {
			continue
		}
		score := 2 * len(e.tags)
		if e.aspect != "" {
			score++
		}
		if score > bestScore {
			best, bestScore = e.verb, score
		}
	}
	return Intent{Target: d.Target, Verb: best}
}

// Explain renders a one-line description of d.
func Explain(d *changespec.ChangeDescriptor) string {
	intent := Describe(d)
	subject := strings.ReplaceAll(string(d.Target), "-", " ")
	if d.Name != "" {
		subject += " " + d.Name
	}
	if d.Aspect == changespec.AspectName && d.Old != nil && d.New != nil && d.Old.Name != d.New.Name {
		return fmt.Sprintf("%s renamed to %s", subject, d.New.Name)
	}
	if d.Aspect == changespec.AspectType && d.Old != nil && d.New != nil && d.Old.Text != d.New.Text {
		return fmt.Sprintf("%s %s: %s -> %s", subject, intent.Verb, d.Old.Text, d.New.Text)
	}
	return subject + " " + string(intent.Verb)
}

package changespec

import (
	"slices"
)

// Tag qualifies a change descriptor.
type Tag string

const (
	TagTypeChanged          Tag = "type-changed"
	TagTypeNarrowed         Tag = "type-narrowed"
	TagTypeWidened          Tag = "type-widened"
	TagOptionalityLoosened  Tag = "optionality-loosened"
	TagOptionalityTightened Tag = "optionality-tightened"
	TagOptional             Tag = "optional"
	TagRequired             Tag = "required"
	TagReadonlyAdded        Tag = "readonly-added"
	TagReadonlyRemoved      Tag = "readonly-removed"
	TagParamOrderChanged    Tag = "param-order-changed"
	TagFieldRenamed         Tag = "field-renamed"
	TagSymbolAdded          Tag = "symbol-added"
	TagSymbolRemoved        Tag = "symbol-removed"
	TagKindChanged          Tag = "kind-changed"
	TagOverloadCountChanged Tag = "overload-count-changed"
	TagDeprecatedAdded      Tag = "deprecated-added"
	TagDeprecatedRemoved    Tag = "deprecated-removed"
	TagDefaultAdded         Tag = "default-added"
	TagDefaultRemoved       Tag = "default-removed"
	TagDefaultChanged       Tag = "default-changed"
	TagRestChanged          Tag = "rest-changed"
	TagStaticChanged        Tag = "static-changed"
	TagAbstractChanged      Tag = "abstract-changed"
	TagDefaultExportChanged Tag = "default-export-changed"
	TagDepthLimit           Tag = "depth-limit"
	TagCycle                Tag = "cycle"
)

// Tags is a sorted set of tags.
type Tags []Tag

// NewTags returns a sorted, de-duplicated tag set.
func NewTags(tags ...Tag) Tags {
	if len(tags) == 0 {
		return nil
	}
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// Has reports whether t contains tag.
func (t Tags) Has(tag Tag) bool {
	_, found := slices.BinarySearch(t, tag)
	return found
}

// HasAll reports whether t contains every tag in want.
func (t Tags) HasAll(want []Tag) bool {
	for _, tag := range want {
		if !t.Has(tag) {
			return false
		}
	}
	return true
}

// With returns a new set with the given tags added.
func (t Tags) With(tags ...Tag) Tags {
	return NewTags(append(slices.Clone(t), tags...)...)
}

// Without returns a new set with the given tags removed.
func (t Tags) Without(tags ...Tag) Tags {
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		if !slices.Contains(tags, tag) {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

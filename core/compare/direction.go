package compare

import (
	"strconv"
	"strings"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/model"
)

// direction estimates whether new accepts more values than old (widening),
// fewer (narrowing), or an unrelated set.
func (c *canonicalizer) direction(old, new *model.Shape) changespec.Impact {
	oldText, newText := c.text(old), c.text(new)
	if oldText == newText {
		return changespec.ImpactNone
	}

	switch {
	case isTopType(newText) || oldText == "never":
		return changespec.ImpactWidening
	case isTopType(oldText) || newText == "never":
		return changespec.ImpactNarrowing
	}

	oldSet := c.members(old)
	newSet := c.members(new)
	oldCovered := covers(newSet, oldSet)
	newCovered := covers(oldSet, newSet)

	switch {
	case oldCovered && !newCovered:
		return changespec.ImpactWidening
	case newCovered && !oldCovered:
		return changespec.ImpactNarrowing
	}
	return changespec.ImpactUnrelated
}

// members returns the canonical union members of s, or s itself.
func (c *canonicalizer) members(s *model.Shape) map[string]bool {
	out := make(map[string]bool)
	if s != nil && s.Kind == model.ShapeUnion {
		for _, e := range s.Elements {
			out[c.text(e)] = true
		}
		return out
	}
	out[c.text(s)] = true
	return out
}

// covers reports whether every member of sub is in super, either directly or
// through the primitive type of a literal.
func covers(super, sub map[string]bool) bool {
	for t := range sub {
		if super[t] {
			continue
		}
		if base := literalBase(t); base != "" && super[base] {
			continue
		}
		return false
	}
	return true
}

// literalBase returns the primitive type of a literal's text, or "".
func literalBase(text string) string {
	switch {
	case text == "":
		return ""
	case text == "true" || text == "false":
		return "boolean"
	case strings.HasPrefix(text, "\"") || strings.HasPrefix(text, "'") || strings.HasPrefix(text, "`"):
		return "string"
	case strings.HasSuffix(text, "n") && isNumeric(strings.TrimSuffix(text, "n")):
		return "bigint"
	case isNumeric(text):
		return "number"
	}
	return ""
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimPrefix(s, "-"), 64)
	return err == nil
}

func isTopType(text string) bool {
	return text == "any" || text == "unknown"
}

// impactTag maps a direction to its type tag.
func impactTag(impact changespec.Impact) changespec.Tag {
	switch impact {
	case changespec.ImpactWidening:
		return changespec.TagTypeWidened
	case changespec.ImpactNarrowing:
		return changespec.TagTypeNarrowed
	}
	return changespec.TagTypeChanged
}

package compare

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/emenda-labs/semdiff/core/model"
)

// canonicalizer renders shapes to order-independent text. Union and
// intersection members are sorted with a locale-aware, case-sensitive
// collation; parameter and tuple element names are dropped since callers only
// depend on position. Not safe for concurrent use.
type canonicalizer struct {
	coll     *collate.Collator
	memo     map[*model.Shape]string
	maxDepth int

	// paramNames keeps parameter names in the output. Such texts decide
	// whether two shapes need a walk at all; they never appear in reports.
	paramNames bool
}

func newCanonicalizer(maxDepth int) *canonicalizer {
	return &canonicalizer{
		coll:     collate.New(language.English),
		memo:     make(map[*model.Shape]string),
		maxDepth: maxDepth,
	}
}

// newKeyCanonicalizer returns a canonicalizer whose texts also differ when
// only parameter names or their order differ.
func newKeyCanonicalizer(maxDepth int) *canonicalizer {
	c := newCanonicalizer(maxDepth)
	c.paramNames = true
	return c
}

// sortTexts orders texts by collation, falling back to byte order so that
// collation-equal strings still sort deterministically.
func (c *canonicalizer) sortTexts(texts []string) {
	slices.SortFunc(texts, func(a, b string) int {
		if r := c.coll.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
}

// text returns the canonical text of s.
func (c *canonicalizer) text(s *model.Shape) string {
	return c.render(s, 0)
}

func (c *canonicalizer) render(s *model.Shape, depth int) string {
	if s == nil {
		return ""
	}
	if depth == 0 {
		if v, ok := c.memo[s]; ok {
			return v
		}
	}
	if depth > c.maxDepth {
		return normalizeText(s.Text)
	}

	var out string
	switch s.Kind {
	case model.ShapeUnion:
		out = c.renderSet(s.Elements, " | ", depth)
	case model.ShapeIntersection:
		out = c.renderSet(s.Elements, " & ", depth)
	case model.ShapeObject:
		out = c.renderObject(s, depth)
	case model.ShapeFunction:
		out = c.renderSignatures(s.Signatures, "; ", depth)
	case model.ShapeTuple:
		out = c.renderTuple(s, depth)
	case model.ShapeArray:
		elem := c.render(s.Element, depth+1)
		if s.Element != nil && (s.Element.Kind == model.ShapeUnion || s.Element.Kind == model.ShapeIntersection || s.Element.Kind == model.ShapeFunction) {
			elem = "(" + elem + ")"
		}
		out = elem + "[]"
	case model.ShapeMapped:
		out = c.renderMapped(s, depth)
	case model.ShapeConditional:
		out = c.renderConditional(s, depth)
	case model.ShapeTemplateLiteral:
		if len(s.Elements) == 0 {
			out = normalizeText(s.Text)
			break
		}
		var b strings.Builder
		b.WriteString("`")
		for _, e := range s.Elements {
			if e.Kind == model.ShapeLiteral {
				b.WriteString(strings.Trim(e.Text, "\"'`"))
				continue
			}
			b.WriteString("${" + c.render(e, depth+1) + "}")
		}
		b.WriteString("`")
		out = b.String()
	default:
		out = normalizeText(s.Text)
	}

	out = c.renderTypeParams(s.TypeParameters, depth) + out
	// Only whole-shape renders are cached; deeper renders may be truncated.
	if depth == 0 {
		c.memo[s] = out
	}
	return out
}

func (c *canonicalizer) renderSet(elems []*model.Shape, sep string, depth int) string {
	texts := c.elementSet(elems, depth)
	return strings.Join(texts, sep)
}

// elementSet returns the sorted, de-duplicated canonical texts of elems.
func (c *canonicalizer) elementSet(elems []*model.Shape, depth int) []string {
	texts := make([]string, 0, len(elems))
	for _, e := range elems {
		texts = append(texts, c.render(e, depth+1))
	}
	c.sortTexts(texts)
	return slices.Compact(texts)
}

func (c *canonicalizer) renderObject(s *model.Shape, depth int) string {
	var parts []string
	for _, m := range s.Members {
		parts = append(parts, c.renderMember(m.Name, m.Optional, m.Readonly, m.Type, depth))
	}
	for _, idx := range s.IndexSignatures {
		parts = append(parts, c.renderIndex(idx, depth))
	}
	for _, sig := range s.Signatures {
		parts = append(parts, c.renderSignature(sig, depth))
	}
	slices.Sort(parts)
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func (c *canonicalizer) renderMember(name string, optional, readonly bool, typ *model.Shape, depth int) string {
	var b strings.Builder
	if readonly {
		b.WriteString("readonly ")
	}
	b.WriteString(name)
	if optional {
		b.WriteString("?")
	}
	b.WriteString(": ")
	b.WriteString(c.render(typ, depth+1))
	return b.String()
}

func (c *canonicalizer) renderIndex(idx model.IndexSignature, depth int) string {
	var b strings.Builder
	if idx.Readonly {
		b.WriteString("readonly ")
	}
	b.WriteString("[" + normalizeText(idx.KeyType) + "]")
	if idx.Optional {
		b.WriteString("?")
	}
	b.WriteString(": " + c.render(idx.Value, depth+1))
	return b.String()
}

func (c *canonicalizer) renderSignatures(sigs []model.Signature, sep string, depth int) string {
	texts := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		texts = append(texts, c.renderSignature(sig, depth))
	}
	return strings.Join(texts, sep)
}

func (c *canonicalizer) renderSignature(sig model.Signature, depth int) string {
	return c.renderTypeParams(sig.TypeParameters, depth) + "(" + c.renderParams(sig.Parameters, depth) + ") => " + c.renderReturn(sig.Return, depth)
}

func (c *canonicalizer) renderParams(params []model.Parameter, depth int) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, c.renderParam(p, depth))
	}
	return strings.Join(parts, ", ")
}

func (c *canonicalizer) renderParam(p model.Parameter, depth int) string {
	var b strings.Builder
	if p.Rest {
		b.WriteString("...")
	}
	if c.paramNames && p.Name != "" {
		b.WriteString(p.Name + ": ")
	}
	b.WriteString(c.render(p.Type, depth+1))
	if p.Optional {
		b.WriteString("?")
	}
	return b.String()
}

func (c *canonicalizer) renderReturn(s *model.Shape, depth int) string {
	if s == nil {
		return "void"
	}
	return c.render(s, depth+1)
}

func (c *canonicalizer) renderTuple(s *model.Shape, depth int) string {
	parts := make([]string, 0, len(s.TupleElements))
	for _, e := range s.TupleElements {
		parts = append(parts, c.renderTupleElement(e, depth))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (c *canonicalizer) renderTupleElement(e model.TupleElement, depth int) string {
	var b strings.Builder
	if e.Rest {
		b.WriteString("...")
	}
	b.WriteString(c.render(e.Type, depth+1))
	if e.Optional {
		b.WriteString("?")
	}
	return b.String()
}

func (c *canonicalizer) renderMapped(s *model.Shape, depth int) string {
	m := s.Mapped
	if m == nil {
		return normalizeText(s.Text)
	}
	var b strings.Builder
	b.WriteString("{ ")
	if m.ReadonlyModifier != "" {
		b.WriteString(m.ReadonlyModifier + "readonly ")
	}
	b.WriteString("[" + m.TypeParameter + " in " + c.render(m.Constraint, depth+1))
	if m.NameType != nil {
		b.WriteString(" as " + c.render(m.NameType, depth+1))
	}
	b.WriteString("]")
	if m.OptionalModifier != "" {
		b.WriteString(m.OptionalModifier + "?")
	}
	b.WriteString(": " + c.render(m.Value, depth+1) + " }")
	return b.String()
}

func (c *canonicalizer) renderConditional(s *model.Shape, depth int) string {
	cond := s.Conditional
	if cond == nil {
		return normalizeText(s.Text)
	}
	return c.render(cond.Check, depth+1) + " extends " + c.render(cond.Extends, depth+1) +
		" ? " + c.render(cond.True, depth+1) + " : " + c.render(cond.False, depth+1)
}

func (c *canonicalizer) renderTypeParams(tps []model.TypeParameter, depth int) string {
	if len(tps) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tps))
	for _, tp := range tps {
		parts = append(parts, c.renderTypeParam(tp, depth))
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (c *canonicalizer) renderTypeParam(tp model.TypeParameter, depth int) string {
	s := tp.Name
	if tp.Constraint != nil {
		s += " extends " + c.render(tp.Constraint, depth+1)
	}
	if tp.Default != nil {
		s += " = " + c.render(tp.Default, depth+1)
	}
	return s
}

// nodeSignature renders the structural signature of a declaration. Two nodes
// of the same kind with equal signatures are structurally identical.
func (c *canonicalizer) nodeSignature(n *model.Node) string {
	return c.renderNode(n, 0)
}

func (c *canonicalizer) renderNode(n *model.Node, depth int) string {
	if n == nil {
		return ""
	}
	if depth > c.maxDepth {
		return normalizeText(n.TypeInfo.Text)
	}

	switch n.Kind {
	case model.KindClass, model.KindInterface, model.KindNamespace, model.KindEnum:
		var parts []string
		for _, name := range n.ChildNames() {
			child := n.Children[name]
			parts = append(parts, c.renderChild(child, depth))
		}
		if s := n.TypeInfo.Shape; s != nil && s.Kind == model.ShapeObject {
			for _, idx := range s.IndexSignatures {
				parts = append(parts, c.renderIndex(idx, depth))
			}
			for _, sig := range s.Signatures {
				parts = append(parts, c.renderSignature(sig, depth))
			}
		}
		prefix := ""
		if s := n.TypeInfo.Shape; s != nil {
			prefix = c.renderTypeParams(s.TypeParameters, depth)
		}
		return prefix + string(n.Kind) + " { " + strings.Join(parts, "; ") + " }"
	default:
		return c.render(shapeOf(n), depth)
	}
}

func (c *canonicalizer) renderChild(child *model.Node, depth int) string {
	var b strings.Builder
	if child.Is(model.ModStatic) {
		b.WriteString("static ")
	}
	if child.Is(model.ModAbstract) {
		b.WriteString("abstract ")
	}
	if child.Is(model.ModReadonly) {
		b.WriteString("readonly ")
	}
	b.WriteString(child.Name)
	if child.Is(model.ModOptional) {
		b.WriteString("?")
	}
	switch child.Kind {
	case model.KindEnumMember:
		if child.Default != nil {
			b.WriteString(" = " + normalizeText(*child.Default))
		}
	case model.KindProperty, model.KindMethod, model.KindConstructor:
		b.WriteString(": " + c.render(shapeOf(child), depth+1))
	default:
		b.WriteString(" " + string(child.Kind) + " " + c.renderNode(child, depth+1))
	}
	return b.String()
}

// shapeOf returns the node's shape, or a reference leaf built from its
// signature text when the extractor supplied none.
func shapeOf(n *model.Node) *model.Shape {
	if n == nil {
		return nil
	}
	if n.TypeInfo.Shape != nil {
		return n.TypeInfo.Shape
	}
	return &model.Shape{Kind: model.ShapeReference, Text: n.TypeInfo.Text}
}

// normalizeText collapses runs of whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package compare

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/model"
	"github.com/emenda-labs/semdiff/core/rename"
)

var voidShape = &model.Shape{Kind: model.ShapePrimitive, Text: "void"}

// shapePair identifies a pair of shapes on the ancestor chain.
type shapePair struct {
	old, new *model.Shape
}

// task is a pending comparison of two shapes of the same non-leaf kind.
// Findings are appended to parent.
type task struct {
	old, new  *model.Shape
	parent    *changespec.ChangeDescriptor
	ancestors []shapePair
}

// walker compares one export pair. Node-level comparison runs eagerly; shape
// descent is queued on an explicit stack and drained by run.
type walker struct {
	symbol     string
	symbolKind model.Kind
	canon      *canonicalizer
	keys       *canonicalizer
	detector   *rename.Detector
	maxDepth   int
	logger     *slog.Logger

	// sink collects top-level descriptors; its children carry the root context.
	sink  *changespec.ChangeDescriptor
	stack []task
	// anc is the ancestor chain of the task being processed.
	anc []shapePair
}

func newWalker(opts Options, symbol string, kind model.Kind) *walker {
	return &walker{
		symbol:     symbol,
		symbolKind: kind,
		canon:      newCanonicalizer(opts.MaxDepth),
		keys:       newKeyCanonicalizer(opts.MaxDepth),
		detector:   rename.NewDetector(opts.RenameThreshold),
		maxDepth:   opts.MaxDepth,
		logger:     opts.Logger,
		sink:       &changespec.ChangeDescriptor{},
	}
}

// under returns the context for a descriptor appended to parent.
func (w *walker) under(parent *changespec.ChangeDescriptor) changespec.Context {
	if parent == w.sink {
		return changespec.Context{}
	}
	label := parent.Name
	if label == "" {
		label = string(parent.Target)
	}
	return parent.Context.Child(label)
}

// emit creates a descriptor under parent and appends it.
func (w *walker) emit(parent *changespec.ChangeDescriptor, target changespec.Target, action changespec.Action, name string) *changespec.ChangeDescriptor {
	d := &changespec.ChangeDescriptor{
		Symbol:     w.symbol,
		SymbolKind: w.symbolKind,
		Name:       name,
		Target:     target,
		Action:     action,
		Context:    w.under(parent),
	}
	parent.Nested = append(parent.Nested, d)
	return d
}

func (w *walker) push(old, new *model.Shape, parent *changespec.ChangeDescriptor) {
	w.stack = append(w.stack, task{old: old, new: new, parent: parent, ancestors: w.anc})
}

// run drains the work stack.
func (w *walker) run() {
	for len(w.stack) > 0 {
		t := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		w.step(t)
	}
	w.anc = nil
}

func (w *walker) step(t task) {
	if w.under(t.parent).Depth > w.maxDepth {
		w.limit(t.parent, changespec.TagDepthLimit)
		return
	}
	for _, a := range t.ancestors {
		if a.old == t.old && a.new == t.new {
			w.limit(t.parent, changespec.TagCycle)
			return
		}
	}

	anc := make([]shapePair, len(t.ancestors), len(t.ancestors)+1)
	copy(anc, t.ancestors)
	w.anc = append(anc, shapePair{old: t.old, new: t.new})

	switch t.old.Kind {
	case model.ShapeUnion:
		w.setMembers(t, changespec.TargetUnionMember, changespec.TagTypeWidened, changespec.TagTypeNarrowed)
	case model.ShapeIntersection:
		w.setMembers(t, changespec.TargetIntersectionMember, changespec.TagTypeNarrowed, changespec.TagTypeWidened)
	case model.ShapeTuple:
		w.tuple(t)
	case model.ShapeArray:
		w.shapes(t.old.Element, t.new.Element, t.parent, changespec.TargetArrayElement, "[]")
	case model.ShapeObject:
		w.diffMembers(memberNodes(t.old), memberNodes(t.new), t.parent)
		w.objectExtras(t.old, t.new, t.parent)
	case model.ShapeFunction:
		w.signatures(t.old.Signatures, t.new.Signatures, t.parent, changespec.TargetOverload)
	case model.ShapeMapped:
		w.mapped(t)
	case model.ShapeConditional:
		w.conditional(t)
	case model.ShapeTemplateLiteral:
		if len(t.old.Elements) == len(t.new.Elements) {
			for i := range t.old.Elements {
				w.shapes(t.old.Elements[i], t.new.Elements[i], t.parent, changespec.TargetTypeDefinition, fmt.Sprintf("${%d}", i))
			}
		}
	}
	w.typeParams(t.old.TypeParameters, t.new.TypeParameters, t.parent)
}

// limit records a difference that was not descended into.
func (w *walker) limit(parent *changespec.ChangeDescriptor, tag changespec.Tag) {
	w.logger.Debug("structural walk cut short", "symbol", w.symbol, "reason", string(tag), "depth", w.under(parent).Depth)
	d := w.emit(parent, changespec.TargetTypeDefinition, changespec.ActionModified, "")
	d.Aspect = changespec.AspectType
	d.Impact = changespec.ImpactUnrelated
	d.Tags = changespec.NewTags(changespec.TagTypeChanged, tag)
}

// containerPair reports whether both shapes are objects or both callables.
// Such pairs report their changes through nested descriptors only.
func containerPair(old, new *model.Shape) bool {
	if old == nil || new == nil || old.Kind != new.Kind {
		return false
	}
	return old.Kind == model.ShapeObject || old.Kind == model.ShapeFunction
}

// descendable reports whether two shapes have a comparable substructure.
func descendable(old, new *model.Shape) bool {
	return old != nil && new != nil && old.Kind == new.Kind && !old.Kind.IsLeaf()
}

func (w *walker) shapeFragment(name string, s *model.Shape, optional bool) *changespec.Fragment {
	return &changespec.Fragment{Name: name, Text: w.canon.text(s), Optional: optional, Shape: s}
}

func (w *walker) nodeFragment(n *model.Node, text string) *changespec.Fragment {
	return &changespec.Fragment{
		Name:     n.Name,
		Kind:     string(n.Kind),
		Text:     text,
		Optional: n.Is(model.ModOptional),
		Readonly: n.Is(model.ModReadonly),
		Node:     n,
		Shape:    n.TypeInfo.Shape,
	}
}

// same reports whether two shapes need no walk: equal canonical text with
// parameters in the same order under the same names.
func (w *walker) same(old, new *model.Shape) bool {
	return w.keys.text(old) == w.keys.text(new)
}

// shapes compares two shapes at a named position. A difference produces one
// descriptor; comparable substructure is queued beneath it.
func (w *walker) shapes(old, new *model.Shape, parent *changespec.ChangeDescriptor, target changespec.Target, name string) {
	if w.same(old, new) {
		return
	}

	d := w.emit(parent, target, changespec.ActionModified, name)
	d.Old = w.shapeFragment(name, old, false)
	d.New = w.shapeFragment(name, new, false)
	if containerPair(old, new) || d.Old.Text == d.New.Text {
		d.Aspect = changespec.AspectStructure
	} else {
		d.Aspect = changespec.AspectType
		d.Impact = w.canon.direction(old, new)
		d.Tags = changespec.NewTags(impactTag(d.Impact))
	}

	if descendable(old, new) {
		w.push(old, new, d)
	}
}

// typed compares a named, possibly optional slot: a property or a parameter.
// An optional-marker-only difference is emitted as a plain type change and
// left for the optionality refiner.
func (w *walker) typed(name string, target changespec.Target, old, new *model.Shape, oldOpt, newOpt bool, parent *changespec.ChangeDescriptor, oldNode, newNode *model.Node) {
	oldText, newText := w.canon.text(old), w.canon.text(new)
	same := w.same(old, new)
	if same && oldOpt == newOpt {
		return
	}

	d := w.emit(parent, target, changespec.ActionModified, name)
	d.Old = &changespec.Fragment{Name: name, Text: oldText, Optional: oldOpt, Shape: old, Node: oldNode}
	d.New = &changespec.Fragment{Name: name, Text: newText, Optional: newOpt, Shape: new, Node: newNode}
	if oldNode != nil {
		d.Old.Kind, d.Old.Readonly = string(oldNode.Kind), oldNode.Is(model.ModReadonly)
	}
	if newNode != nil {
		d.New.Kind, d.New.Readonly = string(newNode.Kind), newNode.Is(model.ModReadonly)
	}

	switch {
	case oldText == newText && oldOpt != newOpt:
		d.Aspect = changespec.AspectType
		d.Impact = changespec.ImpactUnrelated
		d.Tags = changespec.NewTags(changespec.TagTypeChanged)
	case oldText == newText || containerPair(old, new):
		d.Aspect = changespec.AspectStructure
	default:
		d.Aspect = changespec.AspectType
		d.Impact = w.canon.direction(old, new)
		d.Tags = changespec.NewTags(impactTag(d.Impact))
	}

	if !same && descendable(old, new) {
		w.push(old, new, d)
	}
}

// setMembers compares union or intersection members as sets.
func (w *walker) setMembers(t task, target changespec.Target, addTag, removeTag changespec.Tag) {
	oldTexts, oldByText := w.elementTexts(t.old.Elements)
	newTexts, newByText := w.elementTexts(t.new.Elements)

	for _, text := range oldTexts {
		if _, ok := newByText[text]; ok {
			continue
		}
		d := w.emit(t.parent, target, changespec.ActionRemoved, text)
		d.Old = w.shapeFragment(text, oldByText[text], false)
		d.Tags = changespec.NewTags(removeTag)
	}
	for _, text := range newTexts {
		if _, ok := oldByText[text]; ok {
			continue
		}
		d := w.emit(t.parent, target, changespec.ActionAdded, text)
		d.New = w.shapeFragment(text, newByText[text], false)
		d.Tags = changespec.NewTags(addTag)
	}
}

// elementTexts returns the sorted unique canonical texts of elems and a
// text-to-shape index.
func (w *walker) elementTexts(elems []*model.Shape) ([]string, map[string]*model.Shape) {
	byText := make(map[string]*model.Shape, len(elems))
	texts := make([]string, 0, len(elems))
	for _, e := range elems {
		text := w.canon.text(e)
		if _, seen := byText[text]; seen {
			continue
		}
		byText[text] = e
		texts = append(texts, text)
	}
	w.canon.sortTexts(texts)
	return texts, byText
}

func (w *walker) tuple(t task) {
	olds, news := t.old.TupleElements, t.new.TupleElements
	n := min(len(olds), len(news))

	for i := 0; i < n; i++ {
		o, nw := olds[i], news[i]
		name := fmt.Sprintf("[%d]", i)

		if o.Rest != nw.Rest {
			d := w.emit(t.parent, changespec.TargetTupleElement, changespec.ActionModified, name)
			d.Aspect = changespec.AspectType
			d.Impact = changespec.ImpactUnrelated
			d.Tags = changespec.NewTags(changespec.TagRestChanged, changespec.TagTypeChanged)
			d.Old = w.shapeFragment(name, o.Type, o.Optional)
			d.New = w.shapeFragment(name, nw.Type, nw.Optional)
		}
		if o.Optional != nw.Optional {
			d := w.emit(t.parent, changespec.TargetTupleElement, changespec.ActionModified, name)
			d.Aspect = changespec.AspectOptionality
			d.Impact, d.Tags = optionalityChange(nw.Optional)
			d.Old = w.shapeFragment(name, o.Type, o.Optional)
			d.New = w.shapeFragment(name, nw.Type, nw.Optional)
		}
		w.shapes(o.Type, nw.Type, t.parent, changespec.TargetTupleElement, name)
	}

	for i := n; i < len(olds); i++ {
		name := fmt.Sprintf("[%d]", i)
		d := w.emit(t.parent, changespec.TargetTupleElement, changespec.ActionRemoved, name)
		d.Old = w.shapeFragment(name, olds[i].Type, olds[i].Optional)
		d.Tags = changespec.NewTags(requiredness(olds[i].Optional || olds[i].Rest))
	}
	for i := n; i < len(news); i++ {
		name := fmt.Sprintf("[%d]", i)
		d := w.emit(t.parent, changespec.TargetTupleElement, changespec.ActionAdded, name)
		d.New = w.shapeFragment(name, news[i].Type, news[i].Optional)
		d.Tags = changespec.NewTags(requiredness(news[i].Optional || news[i].Rest))
	}
}

func (w *walker) mapped(t task) {
	old, new := t.old.Mapped, t.new.Mapped
	if old == nil || new == nil {
		return
	}

	if old.ReadonlyModifier != new.ReadonlyModifier {
		d := w.emit(t.parent, changespec.TargetMappedModifier, changespec.ActionModified, "readonly")
		d.Aspect = changespec.AspectReadonly
		d.Impact = changespec.ImpactUnrelated
		d.Tags = changespec.NewTags(changespec.TagTypeChanged)
		d.Old = &changespec.Fragment{Name: "readonly", Text: old.ReadonlyModifier}
		d.New = &changespec.Fragment{Name: "readonly", Text: new.ReadonlyModifier}
	}
	if old.OptionalModifier != new.OptionalModifier {
		d := w.emit(t.parent, changespec.TargetMappedModifier, changespec.ActionModified, "optional")
		d.Aspect = changespec.AspectOptionality
		d.Impact = changespec.ImpactUnrelated
		d.Tags = changespec.NewTags(changespec.TagTypeChanged)
		d.Old = &changespec.Fragment{Name: "optional", Text: old.OptionalModifier}
		d.New = &changespec.Fragment{Name: "optional", Text: new.OptionalModifier}
	}

	w.shapes(old.Constraint, new.Constraint, t.parent, changespec.TargetMappedType, "constraint")
	w.shapes(old.NameType, new.NameType, t.parent, changespec.TargetMappedType, "as")
	w.shapes(old.Value, new.Value, t.parent, changespec.TargetMappedType, "value")
}

func (w *walker) conditional(t task) {
	old, new := t.old.Conditional, t.new.Conditional
	if old == nil || new == nil {
		return
	}
	w.shapes(old.Check, new.Check, t.parent, changespec.TargetConditionalBranch, "check")
	w.shapes(old.Extends, new.Extends, t.parent, changespec.TargetConditionalBranch, "extends")
	w.shapes(old.True, new.True, t.parent, changespec.TargetConditionalBranch, "true")
	w.shapes(old.False, new.False, t.parent, changespec.TargetConditionalBranch, "false")
}

// finalize drops structure containers that collected nothing. A container
// whose canonical texts still differ becomes a plain type change.
func (w *walker) finalize(list []*changespec.ChangeDescriptor) []*changespec.ChangeDescriptor {
	out := list[:0]
	for _, d := range list {
		d.Nested = w.finalize(d.Nested)
		if d.Aspect == changespec.AspectStructure && len(d.Nested) == 0 {
			if d.Old == nil || d.New == nil || d.Old.Text == d.New.Text {
				continue
			}
			d.Aspect = changespec.AspectType
			d.Impact = changespec.ImpactUnrelated
			d.Tags = changespec.NewTags(changespec.TagTypeChanged)
		}
		out = append(out, d)
	}
	if len(out) == 0 {
		return nil
	}
	return slices.Clip(out)
}

func optionalityChange(nowOptional bool) (changespec.Impact, changespec.Tags) {
	if nowOptional {
		return changespec.ImpactWidening, changespec.NewTags(changespec.TagOptionalityLoosened)
	}
	return changespec.ImpactNarrowing, changespec.NewTags(changespec.TagOptionalityTightened)
}

func requiredness(optional bool) changespec.Tag {
	if optional {
		return changespec.TagOptional
	}
	return changespec.TagRequired
}

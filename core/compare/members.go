package compare

import (
	"fmt"
	"slices"
	"strings"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/model"
	"github.com/emenda-labs/semdiff/core/rename"
)

// compareSymbol compares two declarations of the same kind. Metadata changes
// are appended to parent as siblings of a structure container that collects
// everything else.
func (w *walker) compareSymbol(old, new *model.Node, parent *changespec.ChangeDescriptor) {
	w.metadata(old, new, parent, changespec.TargetExport)

	root := w.emit(parent, changespec.TargetExport, changespec.ActionModified, old.Name)
	root.Aspect = changespec.AspectStructure
	root.Old = w.nodeFragment(old, w.canon.nodeSignature(old))
	root.New = w.nodeFragment(new, w.canon.nodeSignature(new))

	w.modifiers(old, new, root, changespec.TargetExport)

	switch old.Kind {
	case model.KindClass, model.KindInterface:
		w.diffMembers(old.Children, new.Children, root)
		w.objectExtras(old.TypeInfo.Shape, new.TypeInfo.Shape, root)
		w.typeParams(typeParamsOf(old.TypeInfo.Shape), typeParamsOf(new.TypeInfo.Shape), root)
	case model.KindEnum, model.KindNamespace:
		w.diffMembers(old.Children, new.Children, root)
	default:
		os, ns := shapeOf(old), shapeOf(new)
		if !containerPair(os, ns) {
			w.shapes(os, ns, root, changespec.TargetTypeDefinition, old.Name)
			return
		}
		if !w.same(os, ns) {
			w.push(os, ns, root)
		}
	}
}

// compareMember compares two children of the same name and kind.
func (w *walker) compareMember(old, new *model.Node, parent *changespec.ChangeDescriptor) {
	if w.under(parent).Depth > w.maxDepth {
		w.limit(parent, changespec.TagDepthLimit)
		return
	}

	switch {
	case !old.Kind.IsMember():
		w.compareSymbol(old, new, parent)
	case old.Kind == model.KindEnumMember:
		w.metadata(old, new, parent, changespec.TargetEnumMember)
		ov, nv := valueText(old.Default), valueText(new.Default)
		if ov != nv {
			d := w.emit(parent, changespec.TargetEnumMember, changespec.ActionModified, old.Name)
			d.Aspect = changespec.AspectValue
			d.Impact = changespec.ImpactUnrelated
			d.Old = w.nodeFragment(old, ov)
			d.New = w.nodeFragment(new, nv)
		}
	default:
		target := targetFor(old.Kind)
		w.metadata(old, new, parent, target)
		w.modifiers(old, new, parent, target)
		w.typed(old.Name, target, shapeOf(old), shapeOf(new), old.Is(model.ModOptional), new.Is(model.ModOptional), parent, old, new)
	}
}

// metadata reports deprecation, default value and export form changes.
func (w *walker) metadata(old, new *model.Node, parent *changespec.ChangeDescriptor, target changespec.Target) {
	if old.Is(model.ModDeprecated) != new.Is(model.ModDeprecated) {
		d := w.emit(parent, target, changespec.ActionModified, old.Name)
		d.Aspect = changespec.AspectDeprecation
		if new.Is(model.ModDeprecated) {
			d.Tags = changespec.NewTags(changespec.TagDeprecatedAdded)
		} else {
			d.Tags = changespec.NewTags(changespec.TagDeprecatedRemoved)
		}
		d.Old = w.nodeFragment(old, "")
		d.New = w.nodeFragment(new, "")
	}

	if target != changespec.TargetEnumMember {
		w.defaults(old.Name, target, old.Default, new.Default, parent)
	}

	if old.Is(model.ModDefaultExport) != new.Is(model.ModDefaultExport) {
		d := w.emit(parent, target, changespec.ActionModified, old.Name)
		d.Aspect = changespec.AspectExportForm
		d.Tags = changespec.NewTags(changespec.TagDefaultExportChanged)
		d.Old = w.nodeFragment(old, exportForm(old))
		d.New = w.nodeFragment(new, exportForm(new))
	}
}

func (w *walker) defaults(name string, target changespec.Target, old, new *string, parent *changespec.ChangeDescriptor) {
	var tag changespec.Tag
	switch {
	case old == nil && new == nil:
		return
	case old == nil:
		tag = changespec.TagDefaultAdded
	case new == nil:
		tag = changespec.TagDefaultRemoved
	case normalizeText(*old) != normalizeText(*new):
		tag = changespec.TagDefaultChanged
	default:
		return
	}

	d := w.emit(parent, target, changespec.ActionModified, name)
	d.Aspect = changespec.AspectDefaultValue
	d.Tags = changespec.NewTags(tag)
	d.Old = &changespec.Fragment{Name: name, Text: valueText(old)}
	d.New = &changespec.Fragment{Name: name, Text: valueText(new)}
}

// modifiers reports readonly, static and abstract toggles.
func (w *walker) modifiers(old, new *model.Node, parent *changespec.ChangeDescriptor, target changespec.Target) {
	if old.Is(model.ModReadonly) != new.Is(model.ModReadonly) {
		d := w.emit(parent, target, changespec.ActionModified, old.Name)
		d.Aspect = changespec.AspectReadonly
		if new.Is(model.ModReadonly) {
			d.Impact = changespec.ImpactNarrowing
			d.Tags = changespec.NewTags(changespec.TagReadonlyAdded)
		} else {
			d.Impact = changespec.ImpactWidening
			d.Tags = changespec.NewTags(changespec.TagReadonlyRemoved)
		}
		d.Old = w.nodeFragment(old, "")
		d.New = w.nodeFragment(new, "")
	}

	toggles := []struct {
		mod model.Modifier
		tag changespec.Tag
	}{
		{model.ModStatic, changespec.TagStaticChanged},
		{model.ModAbstract, changespec.TagAbstractChanged},
	}
	for _, tg := range toggles {
		if old.Is(tg.mod) == new.Is(tg.mod) {
			continue
		}
		d := w.emit(parent, target, changespec.ActionModified, old.Name)
		d.Aspect = changespec.AspectModifier
		d.Tags = changespec.NewTags(tg.tag)
		d.Old = w.nodeFragment(old, "")
		d.New = w.nodeFragment(new, "")
	}
}

// diffMembers compares two child maps. Unmatched children are offered to the
// rename detector before being reported as added or removed.
func (w *walker) diffMembers(olds, news map[string]*model.Node, parent *changespec.ChangeDescriptor) {
	keys := make([]string, 0, len(olds)+len(news))
	for k := range olds {
		keys = append(keys, k)
	}
	for k := range news {
		if _, ok := olds[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var removed, added []rename.Candidate
	for _, k := range keys {
		o, n := olds[k], news[k]
		if o != nil && n != nil && o.Kind == n.Kind {
			w.compareMember(o, n, parent)
			continue
		}
		if o != nil {
			removed = append(removed, w.candidate(k, o))
		}
		if n != nil {
			added = append(added, w.candidate(k, n))
		}
	}

	res := w.detector.Match(removed, added)
	for _, p := range res.Pairs {
		o, n := p.Removed.Node, p.Added.Node
		w.logger.Debug("member renamed", "symbol", w.symbol, "from", o.Name, "to", n.Name, "score", p.Score)

		d := w.emit(parent, targetFor(o.Kind), changespec.ActionModified, o.Name)
		d.Aspect = changespec.AspectName
		d.Tags = changespec.NewTags(changespec.TagFieldRenamed)
		d.Old = w.nodeFragment(o, p.Removed.Signature)
		d.New = w.nodeFragment(n, p.Added.Signature)
		w.compareMember(o, n, d)
	}
	for _, c := range res.Removed {
		_, kindChanged := news[c.ID]
		d := w.emit(parent, targetFor(c.Kind), changespec.ActionRemoved, c.Name)
		d.Old = w.nodeFragment(c.Node, c.Signature)
		d.Tags = presenceTags(c.Node, changespec.TagSymbolRemoved, kindChanged)
	}
	for _, c := range res.Added {
		_, kindChanged := olds[c.ID]
		d := w.emit(parent, targetFor(c.Kind), changespec.ActionAdded, c.Name)
		d.New = w.nodeFragment(c.Node, c.Signature)
		d.Tags = presenceTags(c.Node, changespec.TagSymbolAdded, kindChanged)
	}
}

func (w *walker) candidate(id string, n *model.Node) rename.Candidate {
	return rename.Candidate{ID: id, Name: n.Name, Kind: n.Kind, Signature: w.memberSignature(n), Node: n}
}

// memberSignature renders a child without its name, for rename scoring.
func (w *walker) memberSignature(n *model.Node) string {
	switch n.Kind {
	case model.KindEnumMember:
		return "= " + valueText(n.Default)
	case model.KindProperty, model.KindMethod, model.KindConstructor:
		s := w.canon.text(shapeOf(n))
		if n.Is(model.ModOptional) {
			return "?: " + s
		}
		return ": " + s
	}
	return w.canon.nodeSignature(n)
}

func presenceTags(n *model.Node, symbolTag changespec.Tag, kindChanged bool) changespec.Tags {
	var tags []changespec.Tag
	switch {
	case !n.Kind.IsMember():
		tags = append(tags, symbolTag)
	case n.Kind == model.KindEnumMember:
	case n.Is(model.ModOptional):
		tags = append(tags, changespec.TagOptional)
		if symbolTag == changespec.TagSymbolAdded {
			tags = append(tags, changespec.TagTypeWidened)
		}
	default:
		tags = append(tags, changespec.TagRequired)
	}
	if kindChanged {
		tags = append(tags, changespec.TagKindChanged)
	}
	return changespec.NewTags(tags...)
}

// memberNodes converts object shape members to child nodes so that object
// literals and declarations share one comparison path.
func memberNodes(s *model.Shape) map[string]*model.Node {
	if s == nil || len(s.Members) == 0 {
		return nil
	}
	out := make(map[string]*model.Node, len(s.Members))
	for _, m := range s.Members {
		n := &model.Node{
			Name:     m.Name,
			Kind:     model.KindProperty,
			TypeInfo: model.TypeInfo{Shape: m.Type},
		}
		if m.Method {
			n.Kind = model.KindMethod
		}
		if m.Type != nil {
			n.TypeInfo.Text = m.Type.Text
		}
		if m.Optional {
			n.Modifiers = append(n.Modifiers, model.ModOptional)
		}
		if m.Readonly {
			n.Modifiers = append(n.Modifiers, model.ModReadonly)
		}
		if m.Deprecated {
			n.Modifiers = append(n.Modifiers, model.ModDeprecated)
		}
		out[m.Name] = n
	}
	return out
}

// objectExtras compares the index and call signatures of two object shapes.
func (w *walker) objectExtras(old, new *model.Shape, parent *changespec.ChangeDescriptor) {
	var oldIdx, newIdx []model.IndexSignature
	var oldSigs, newSigs []model.Signature
	if old != nil && old.Kind == model.ShapeObject {
		oldIdx, oldSigs = old.IndexSignatures, old.Signatures
	}
	if new != nil && new.Kind == model.ShapeObject {
		newIdx, newSigs = new.IndexSignatures, new.Signatures
	}

	w.indexSignatures(oldIdx, newIdx, parent)
	if len(oldSigs) > 0 || len(newSigs) > 0 {
		w.signatures(oldSigs, newSigs, parent, changespec.TargetCallSignature)
	}
}

func (w *walker) indexSignatures(olds, news []model.IndexSignature, parent *changespec.ChangeDescriptor) {
	if len(olds) == 0 && len(news) == 0 {
		return
	}
	oldByKey := make(map[string]model.IndexSignature, len(olds))
	newByKey := make(map[string]model.IndexSignature, len(news))
	var keys []string
	for _, idx := range olds {
		k := normalizeText(idx.KeyType)
		oldByKey[k] = idx
		keys = append(keys, k)
	}
	for _, idx := range news {
		k := normalizeText(idx.KeyType)
		newByKey[k] = idx
		if _, ok := oldByKey[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	for _, k := range keys {
		o, hasOld := oldByKey[k]
		n, hasNew := newByKey[k]
		name := "[" + k + "]"

		switch {
		case !hasNew:
			d := w.emit(parent, changespec.TargetIndexSignature, changespec.ActionRemoved, name)
			d.Old = w.shapeFragment(name, o.Value, o.Optional)
			d.Old.Readonly = o.Readonly
		case !hasOld:
			d := w.emit(parent, changespec.TargetIndexSignature, changespec.ActionAdded, name)
			d.New = w.shapeFragment(name, n.Value, n.Optional)
			d.New.Readonly = n.Readonly
		default:
			if o.Readonly != n.Readonly {
				d := w.emit(parent, changespec.TargetIndexSignature, changespec.ActionModified, name)
				d.Aspect = changespec.AspectReadonly
				if n.Readonly {
					d.Impact = changespec.ImpactNarrowing
					d.Tags = changespec.NewTags(changespec.TagReadonlyAdded)
				} else {
					d.Impact = changespec.ImpactWidening
					d.Tags = changespec.NewTags(changespec.TagReadonlyRemoved)
				}
				d.Old = w.shapeFragment(name, o.Value, o.Optional)
				d.New = w.shapeFragment(name, n.Value, n.Optional)
			}
			w.typed(name, changespec.TargetIndexSignature, o.Value, n.Value, o.Optional, n.Optional, parent, nil, nil)
		}
	}
}

// signatures compares overload lists positionally. A change in the number of
// overloads is reported once, without pairing individual overloads.
func (w *walker) signatures(olds, news []model.Signature, parent *changespec.ChangeDescriptor, target changespec.Target) {
	if len(olds) != len(news) {
		d := w.emit(parent, target, changespec.ActionModified, "overloads")
		d.Aspect = changespec.AspectArity
		d.Tags = changespec.NewTags(changespec.TagOverloadCountChanged)
		d.Old = &changespec.Fragment{Name: "overloads", Text: w.canon.renderSignatures(olds, "; ", 0)}
		d.New = &changespec.Fragment{Name: "overloads", Text: w.canon.renderSignatures(news, "; ", 0)}
		return
	}

	if len(olds) == 1 && target == changespec.TargetOverload {
		w.signature(olds[0], news[0], parent)
		return
	}

	for i := range olds {
		if w.keys.renderSignature(olds[i], 0) == w.keys.renderSignature(news[i], 0) {
			continue
		}
		oldText := w.canon.renderSignature(olds[i], 0)
		newText := w.canon.renderSignature(news[i], 0)
		name := fmt.Sprintf("#%d", i+1)
		d := w.emit(parent, target, changespec.ActionModified, name)
		d.Aspect = changespec.AspectStructure
		d.Old = &changespec.Fragment{Name: name, Text: oldText}
		d.New = &changespec.Fragment{Name: name, Text: newText}
		w.signature(olds[i], news[i], d)
	}
}

func (w *walker) signature(old, new model.Signature, parent *changespec.ChangeDescriptor) {
	w.typeParams(old.TypeParameters, new.TypeParameters, parent)
	w.params(old.Parameters, new.Parameters, parent)
	w.shapes(returnShape(old.Return), returnShape(new.Return), parent, changespec.TargetReturnType, "return")
}

func (w *walker) params(olds, news []model.Parameter, parent *changespec.ChangeDescriptor) {
	if reordered(olds, news) {
		d := w.emit(parent, changespec.TargetParameter, changespec.ActionModified, "parameters")
		d.Aspect = changespec.AspectOrder
		d.Tags = changespec.NewTags(changespec.TagParamOrderChanged)
		d.Old = &changespec.Fragment{Name: "parameters", Text: paramNames(olds)}
		d.New = &changespec.Fragment{Name: "parameters", Text: paramNames(news)}

		byName := make(map[string]model.Parameter, len(news))
		for _, p := range news {
			byName[p.Name] = p
		}
		for _, p := range olds {
			w.param(p, byName[p.Name], parent)
		}
		return
	}

	n := min(len(olds), len(news))
	for i := 0; i < n; i++ {
		w.param(olds[i], news[i], parent)
	}
	for _, p := range olds[n:] {
		d := w.emit(parent, changespec.TargetParameter, changespec.ActionRemoved, p.Name)
		d.Old = w.shapeFragment(p.Name, p.Type, isOptionalParam(p))
		d.Tags = changespec.NewTags(requiredness(isOptionalParam(p)))
	}
	for _, p := range news[n:] {
		d := w.emit(parent, changespec.TargetParameter, changespec.ActionAdded, p.Name)
		d.New = w.shapeFragment(p.Name, p.Type, isOptionalParam(p))
		d.Tags = changespec.NewTags(requiredness(isOptionalParam(p)))
	}
}

func (w *walker) param(old, new model.Parameter, parent *changespec.ChangeDescriptor) {
	name := old.Name
	if name == "" {
		name = new.Name
	}

	if old.Rest != new.Rest {
		d := w.emit(parent, changespec.TargetParameter, changespec.ActionModified, name)
		d.Aspect = changespec.AspectType
		d.Impact = changespec.ImpactUnrelated
		d.Tags = changespec.NewTags(changespec.TagRestChanged, changespec.TagTypeChanged)
		d.Old = w.shapeFragment(name, old.Type, isOptionalParam(old))
		d.New = w.shapeFragment(name, new.Type, isOptionalParam(new))
	} else {
		w.typed(name, changespec.TargetParameter, old.Type, new.Type, isOptionalParam(old), isOptionalParam(new), parent, nil, nil)
	}
	w.defaults(name, changespec.TargetParameter, old.Default, new.Default, parent)
}

func (w *walker) typeParams(olds, news []model.TypeParameter, parent *changespec.ChangeDescriptor) {
	n := min(len(olds), len(news))
	for i := 0; i < n; i++ {
		o, nw := olds[i], news[i]
		name := nw.Name
		if name == "" {
			name = fmt.Sprintf("T%d", i)
		}
		w.shapes(o.Constraint, nw.Constraint, parent, changespec.TargetTypeParameter, name)
		w.defaults(name, changespec.TargetTypeParameter, w.textOf(o.Default), w.textOf(nw.Default), parent)
	}
	for _, tp := range olds[n:] {
		d := w.emit(parent, changespec.TargetTypeParameter, changespec.ActionRemoved, tp.Name)
		d.Old = &changespec.Fragment{Name: tp.Name, Text: w.canon.renderTypeParam(tp, 0)}
		d.Tags = changespec.NewTags(requiredness(tp.Default != nil))
	}
	for _, tp := range news[n:] {
		d := w.emit(parent, changespec.TargetTypeParameter, changespec.ActionAdded, tp.Name)
		d.New = &changespec.Fragment{Name: tp.Name, Text: w.canon.renderTypeParam(tp, 0)}
		d.Tags = changespec.NewTags(requiredness(tp.Default != nil))
	}
}

func (w *walker) textOf(s *model.Shape) *string {
	if s == nil {
		return nil
	}
	t := w.canon.text(s)
	return &t
}

// reordered reports whether both lists hold the same named parameters in a
// different order.
func reordered(olds, news []model.Parameter) bool {
	if len(olds) != len(news) || len(olds) < 2 {
		return false
	}
	oldNames := make([]string, len(olds))
	newNames := make([]string, len(news))
	for i := range olds {
		if olds[i].Name == "" || news[i].Name == "" {
			return false
		}
		oldNames[i], newNames[i] = olds[i].Name, news[i].Name
	}
	if slices.Equal(oldNames, newNames) {
		return false
	}
	slices.Sort(oldNames)
	slices.Sort(newNames)
	return slices.Equal(oldNames, newNames) && len(slices.Compact(oldNames)) == len(olds)
}

func paramNames(params []model.Parameter) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return "(" + strings.Join(names, ", ") + ")"
}

func isOptionalParam(p model.Parameter) bool {
	return p.Optional || p.Rest || p.Default != nil
}

func returnShape(s *model.Shape) *model.Shape {
	if s == nil {
		return voidShape
	}
	return s
}

func typeParamsOf(s *model.Shape) []model.TypeParameter {
	if s == nil {
		return nil
	}
	return s.TypeParameters
}

func valueText(v *string) string {
	if v == nil {
		return ""
	}
	return normalizeText(*v)
}

func exportForm(n *model.Node) string {
	if n.Is(model.ModDefaultExport) {
		return "default"
	}
	return "named"
}

func targetFor(k model.Kind) changespec.Target {
	switch k {
	case model.KindProperty:
		return changespec.TargetProperty
	case model.KindMethod:
		return changespec.TargetMethod
	case model.KindConstructor:
		return changespec.TargetConstructor
	case model.KindEnumMember:
		return changespec.TargetEnumMember
	}
	return changespec.TargetExport
}

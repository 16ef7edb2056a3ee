package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/model"
)

func snapshot(nodes ...*model.Node) *model.Snapshot {
	s := model.NewSnapshot()
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

func function(name string, shape *model.Shape, mods ...model.Modifier) *model.Node {
	return &model.Node{Path: name, Name: name, Kind: model.KindFunction, Modifiers: mods, TypeInfo: model.TypeInfo{Text: shape.Text, Shape: shape}}
}

func alias(name string, shape *model.Shape) *model.Node {
	return &model.Node{Path: name, Name: name, Kind: model.KindType, TypeInfo: model.TypeInfo{Text: shape.Text, Shape: shape}}
}

func iface(name string, children ...*model.Node) *model.Node {
	n := &model.Node{Path: name, Name: name, Kind: model.KindInterface, Children: map[string]*model.Node{}}
	for _, c := range children {
		c.Path = name + "." + c.Name
		n.Children[c.Name] = c
	}
	return n
}

func prop(name string, typ *model.Shape, mods ...model.Modifier) *model.Node {
	return &model.Node{Name: name, Kind: model.KindProperty, Modifiers: mods, TypeInfo: model.TypeInfo{Text: typ.Text, Shape: typ}}
}

func diff(old, new *model.Snapshot) []*changespec.ChangeDescriptor {
	return DiffModules(old, new, Options{Workers: 2})
}

// flatten returns every descriptor in preorder.
func flatten(list []*changespec.ChangeDescriptor) []*changespec.ChangeDescriptor {
	var out []*changespec.ChangeDescriptor
	for _, d := range list {
		d.Walk(func(c *changespec.ChangeDescriptor) { out = append(out, c) })
	}
	return out
}

func findTarget(list []*changespec.ChangeDescriptor, target changespec.Target, action changespec.Action) *changespec.ChangeDescriptor {
	for _, d := range flatten(list) {
		if d.Target == target && d.Action == action {
			return d
		}
	}
	return nil
}

func TestDiffModules_IdenticalSnapshots(t *testing.T) {
	build := func() *model.Snapshot {
		return snapshot(
			iface("Config", prop("name", model.Primitive("string")), prop("port", model.Primitive("number"), model.ModOptional)),
			function("load", model.Func(model.Reference("Config"), model.Param("path", model.Primitive("string")))),
			alias("Status", model.Union(model.Literal(`"active"`), model.Literal(`"inactive"`))),
		)
	}
	assert.Empty(t, diff(build(), build()))
}

func TestDiffModules_AddedRequiredProperty(t *testing.T) {
	old := snapshot(iface("Config", prop("name", model.Primitive("string"))))
	new := snapshot(iface("Config", prop("name", model.Primitive("string")), prop("version", model.Primitive("number"))))

	changes := diff(old, new)
	require.Len(t, changes, 1)
	root := changes[0]
	assert.Equal(t, "Config", root.Symbol)
	assert.Equal(t, changespec.AspectStructure, root.Aspect)

	require.Len(t, root.Nested, 1)
	added := root.Nested[0]
	assert.Equal(t, changespec.TargetProperty, added.Target)
	assert.Equal(t, changespec.ActionAdded, added.Action)
	assert.Equal(t, "version", added.Name)
	assert.True(t, added.Tags.Has(changespec.TagRequired))
	assert.Equal(t, 1, added.Context.Depth)
	assert.Equal(t, []string{"Config"}, added.Context.Ancestors)
}

func TestDiffModules_ParameterOptionality(t *testing.T) {
	required := snapshot(function("foo", model.Func(nil, model.Param("x", model.Primitive("string")))))
	optional := snapshot(function("foo", model.Func(nil, model.OptionalParam("x", model.Primitive("string")))))

	loosened := findTarget(diff(required, optional), changespec.TargetParameter, changespec.ActionModified)
	require.NotNil(t, loosened)
	assert.Equal(t, changespec.AspectOptionality, loosened.Aspect)
	assert.Equal(t, changespec.ImpactWidening, loosened.Impact)
	assert.True(t, loosened.Tags.Has(changespec.TagOptionalityLoosened))

	tightened := findTarget(diff(optional, required), changespec.TargetParameter, changespec.ActionModified)
	require.NotNil(t, tightened)
	assert.Equal(t, changespec.AspectOptionality, tightened.Aspect)
	assert.Equal(t, changespec.ImpactNarrowing, tightened.Impact)
	assert.True(t, tightened.Tags.Has(changespec.TagOptionalityTightened))
}

func TestDiffModules_UnionOrderIndependent(t *testing.T) {
	old := snapshot(alias("Status", model.Union(model.Literal(`"active"`), model.Literal(`"inactive"`))))
	new := snapshot(alias("Status", model.Union(model.Literal(`"inactive"`), model.Literal(`"active"`))))
	assert.Empty(t, diff(old, new))

	old = snapshot(alias("Both", model.Intersection(model.Reference("A"), model.Reference("B"))))
	new = snapshot(alias("Both", model.Intersection(model.Reference("B"), model.Reference("A"))))
	assert.Empty(t, diff(old, new))
}

func TestDiffModules_UnionMemberChanges(t *testing.T) {
	old := snapshot(alias("Status", model.Union(model.Literal(`"active"`), model.Literal(`"inactive"`))))
	new := snapshot(alias("Status", model.Union(model.Literal(`"active"`), model.Literal(`"inactive"`), model.Literal(`"pending"`))))

	changes := diff(old, new)
	def := findTarget(changes, changespec.TargetTypeDefinition, changespec.ActionModified)
	require.NotNil(t, def)
	assert.Equal(t, changespec.ImpactWidening, def.Impact)

	member := findTarget(changes, changespec.TargetUnionMember, changespec.ActionAdded)
	require.NotNil(t, member)
	assert.Equal(t, `"pending"`, member.Name)
	assert.True(t, member.Tags.Has(changespec.TagTypeWidened))
}

func TestDiffModules_RenameExclusivity(t *testing.T) {
	sig := func() *model.Shape {
		return model.Func(model.Primitive("object"), model.Param("id", model.Primitive("string")))
	}
	old := snapshot(function("getUserData", sig()))
	new := snapshot(function("getUserInfo", sig()))

	changes := diff(old, new)
	require.Len(t, changes, 1)
	d := changes[0]
	assert.Equal(t, changespec.TargetExport, d.Target)
	assert.Equal(t, changespec.ActionModified, d.Action)
	assert.Equal(t, changespec.AspectName, d.Aspect)
	assert.True(t, d.Tags.Has(changespec.TagFieldRenamed))
	assert.Equal(t, "getUserData", d.Old.Name)
	assert.Equal(t, "getUserInfo", d.New.Name)
	assert.Empty(t, d.Nested)

	for _, c := range flatten(changes) {
		assert.NotEqual(t, changespec.ActionAdded, c.Action)
		assert.NotEqual(t, changespec.ActionRemoved, c.Action)
	}
}

func TestDiffModules_DeprecationOnly(t *testing.T) {
	shape := model.Func(nil)
	old := snapshot(function("legacy", shape))
	new := snapshot(function("legacy", shape, model.ModDeprecated))

	changes := diff(old, new)
	require.Len(t, changes, 1)
	assert.Equal(t, changespec.AspectDeprecation, changes[0].Aspect)
	assert.True(t, changes[0].Tags.Has(changespec.TagDeprecatedAdded))
}

func TestDiffModules_NilSnapshots(t *testing.T) {
	s := snapshot(function("a", model.Func(nil)), alias("B", model.Primitive("string")))

	added := diff(nil, s)
	require.Len(t, added, 2)
	for _, d := range added {
		assert.Equal(t, changespec.ActionAdded, d.Action)
		assert.True(t, d.Tags.Has(changespec.TagSymbolAdded))
	}

	removed := diff(s, nil)
	require.Len(t, removed, 2)
	for _, d := range removed {
		assert.Equal(t, changespec.ActionRemoved, d.Action)
		assert.True(t, d.Tags.Has(changespec.TagSymbolRemoved))
	}

	assert.Empty(t, diff(nil, nil))
}

func TestDiffModules_KindChange(t *testing.T) {
	old := snapshot(function("Thing", model.Func(nil)))
	new := snapshot(iface("Thing", prop("id", model.Primitive("string"))))

	changes := diff(old, new)
	require.Len(t, changes, 2)
	assert.Equal(t, changespec.ActionRemoved, changes[0].Action)
	assert.Equal(t, changespec.ActionAdded, changes[1].Action)
	for _, d := range changes {
		assert.True(t, d.Tags.Has(changespec.TagKindChanged))
	}
}

func TestDiffModules_PropertyTypeNarrowed(t *testing.T) {
	old := snapshot(iface("Opts", prop("mode", model.Union(model.Literal(`"a"`), model.Literal(`"b"`)))))
	new := snapshot(iface("Opts", prop("mode", model.Literal(`"a"`))))

	d := findTarget(diff(old, new), changespec.TargetProperty, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectType, d.Aspect)
	assert.Equal(t, changespec.ImpactNarrowing, d.Impact)
	assert.True(t, d.Tags.Has(changespec.TagTypeNarrowed))
}

func TestDiffModules_PropertyOptionalityRefined(t *testing.T) {
	old := snapshot(iface("Opts", prop("port", model.Primitive("number"))))
	new := snapshot(iface("Opts", prop("port", model.Primitive("number"), model.ModOptional)))

	d := findTarget(diff(old, new), changespec.TargetProperty, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectOptionality, d.Aspect)
	assert.True(t, d.Tags.Has(changespec.TagOptionalityLoosened))
}

func TestDiffModules_IndexSignatureOptionalNotRefined(t *testing.T) {
	obj := func(optional bool) *model.Shape {
		return &model.Shape{Kind: model.ShapeObject, IndexSignatures: []model.IndexSignature{
			{KeyName: "k", KeyType: "string", Value: model.Primitive("number"), Optional: optional},
		}}
	}
	old := snapshot(alias("Dict", obj(false)))
	new := snapshot(alias("Dict", obj(true)))

	d := findTarget(diff(old, new), changespec.TargetIndexSignature, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectType, d.Aspect)
	assert.False(t, d.Tags.Has(changespec.TagOptionalityLoosened))
}

func TestDiffModules_MappedModifierNotRefined(t *testing.T) {
	mapped := func(mod string) *model.Shape {
		return &model.Shape{Kind: model.ShapeMapped, Mapped: &model.MappedShape{
			TypeParameter:    "K",
			Constraint:       model.Reference("keyof T"),
			Value:            model.Reference("T[K]"),
			OptionalModifier: mod,
		}}
	}
	changes := diff(snapshot(alias("Partial", mapped(""))), snapshot(alias("Partial", mapped("+"))))

	d := findTarget(changes, changespec.TargetMappedModifier, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectOptionality, d.Aspect)
	assert.Equal(t, changespec.ImpactUnrelated, d.Impact)
	assert.False(t, d.Tags.Has(changespec.TagOptionalityLoosened))
}

func TestDiffModules_ParameterAddedAndReordered(t *testing.T) {
	old := snapshot(function("send", model.Func(nil, model.Param("to", model.Primitive("string")), model.Param("body", model.Primitive("string")))))
	added := snapshot(function("send", model.Func(nil,
		model.Param("to", model.Primitive("string")),
		model.Param("body", model.Primitive("string")),
		model.OptionalParam("cc", model.Primitive("string")),
	)))
	reordered := snapshot(function("send", model.Func(nil, model.Param("body", model.Primitive("string")), model.Param("to", model.Primitive("string")))))

	d := findTarget(diff(old, added), changespec.TargetParameter, changespec.ActionAdded)
	require.NotNil(t, d)
	assert.Equal(t, "cc", d.Name)
	assert.True(t, d.Tags.Has(changespec.TagOptional))

	d = findTarget(diff(old, reordered), changespec.TargetParameter, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectOrder, d.Aspect)
	assert.True(t, d.Tags.Has(changespec.TagParamOrderChanged))
	assert.Equal(t, "(to, body)", d.Old.Text)
	assert.Equal(t, "(body, to)", d.New.Text)
}

func TestDiffModules_SameTypedParametersSwapped(t *testing.T) {
	sendParams := func(names ...string) *model.Shape {
		params := make([]model.Parameter, 0, len(names))
		for _, n := range names {
			params = append(params, model.Param(n, model.Primitive("string")))
		}
		return model.Func(model.Primitive("void"), params...)
	}
	method := func(shape *model.Shape) *model.Node {
		return &model.Node{Name: "send", Kind: model.KindMethod, TypeInfo: model.TypeInfo{Text: shape.Text, Shape: shape}}
	}

	tests := []struct {
		name     string
		old, new *model.Snapshot
	}{
		{"function", snapshot(function("send", sendParams("to", "body"))), snapshot(function("send", sendParams("body", "to")))},
		{"method", snapshot(iface("Mailer", method(sendParams("to", "body")))), snapshot(iface("Mailer", method(sendParams("body", "to"))))},
		{"overload", snapshot(function("send", model.Overloads(
			model.Signature{Parameters: []model.Parameter{model.Param("to", model.Primitive("string")), model.Param("body", model.Primitive("string"))}},
			model.Signature{Parameters: []model.Parameter{model.Param("to", model.Primitive("number"))}},
		))), snapshot(function("send", model.Overloads(
			model.Signature{Parameters: []model.Parameter{model.Param("body", model.Primitive("string")), model.Param("to", model.Primitive("string"))}},
			model.Signature{Parameters: []model.Parameter{model.Param("to", model.Primitive("number"))}},
		)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := diff(tt.old, tt.new)
			require.NotEmpty(t, changes)

			d := findTarget(changes, changespec.TargetParameter, changespec.ActionModified)
			require.NotNil(t, d)
			assert.Equal(t, changespec.AspectOrder, d.Aspect)
			assert.True(t, d.Tags.Has(changespec.TagParamOrderChanged))
			for _, c := range flatten(changes) {
				if c.Aspect == changespec.AspectStructure {
					assert.NotEmpty(t, c.Nested, "empty container %s survived", c.Name)
				}
			}
		})
	}
}

func TestDiffModules_ParameterRenameOnly(t *testing.T) {
	old := snapshot(function("send", model.Func(nil, model.Param("to", model.Primitive("string")), model.Param("body", model.Primitive("string")))))
	new := snapshot(function("send", model.Func(nil, model.Param("recipient", model.Primitive("string")), model.Param("body", model.Primitive("string")))))

	assert.Empty(t, diff(old, new), "callers pass parameters by position")
}

func TestDiffModules_EqualSignaturesUnrelatedNames(t *testing.T) {
	sig := func() *model.Shape {
		return model.Func(model.Primitive("number"), model.Param("s", model.Primitive("string")))
	}

	changes := diff(snapshot(function("parse", sig())), snapshot(function("count", sig())))
	require.Len(t, changes, 2)

	removed := findTarget(changes, changespec.TargetExport, changespec.ActionRemoved)
	require.NotNil(t, removed)
	assert.Equal(t, "parse", removed.Name)
	added := findTarget(changes, changespec.TargetExport, changespec.ActionAdded)
	require.NotNil(t, added)
	assert.Equal(t, "count", added.Name)
	for _, c := range flatten(changes) {
		assert.False(t, c.Tags.Has(changespec.TagFieldRenamed))
	}
}

func TestDiffModules_OverloadCount(t *testing.T) {
	one := model.Signature{Parameters: []model.Parameter{model.Param("x", model.Primitive("string"))}}
	two := model.Signature{Parameters: []model.Parameter{model.Param("x", model.Primitive("number"))}}

	changes := diff(snapshot(function("f", model.Overloads(one))), snapshot(function("f", model.Overloads(one, two))))
	d := findTarget(changes, changespec.TargetOverload, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectArity, d.Aspect)
	assert.True(t, d.Tags.Has(changespec.TagOverloadCountChanged))
}

func TestDiffModules_MemberRename(t *testing.T) {
	old := snapshot(iface("User", prop("id", model.Primitive("string")), prop("fullName", model.Primitive("string"))))
	new := snapshot(iface("User", prop("id", model.Primitive("string")), prop("displayName", model.Primitive("string"))))

	changes := diff(old, new)
	d := findTarget(changes, changespec.TargetProperty, changespec.ActionModified)
	require.NotNil(t, d)
	assert.Equal(t, changespec.AspectName, d.Aspect)
	assert.True(t, d.Tags.Has(changespec.TagFieldRenamed))
	assert.Nil(t, findTarget(changes, changespec.TargetProperty, changespec.ActionAdded))
	assert.Nil(t, findTarget(changes, changespec.TargetProperty, changespec.ActionRemoved))
}

func TestDiffModules_NestedObjectProperty(t *testing.T) {
	inner := func(extra bool) *model.Shape {
		members := []model.Member{{Name: "host", Type: model.Primitive("string")}}
		if extra {
			members = append(members, model.Member{Name: "tls", Type: model.Primitive("boolean"), Optional: true})
		}
		return model.Object(members...)
	}
	old := snapshot(iface("Config", prop("server", inner(false))))
	new := snapshot(iface("Config", prop("server", inner(true))))

	changes := diff(old, new)
	d := findTarget(changes, changespec.TargetProperty, changespec.ActionAdded)
	require.NotNil(t, d)
	assert.Equal(t, "tls", d.Name)
	assert.True(t, d.Tags.Has(changespec.TagOptional))
	assert.Equal(t, []string{"Config", "server"}, d.Context.Ancestors)
	assert.True(t, d.Context.IsNested)
}

func TestDiffModules_DepthLimit(t *testing.T) {
	// Builds { a: { a: { ... { a: T } } } } with the leaf type differing.
	nest := func(leaf string, depth int) *model.Shape {
		s := model.Primitive(leaf)
		for i := 0; i < depth; i++ {
			s = model.Object(model.Member{Name: "a", Type: s})
		}
		return s
	}
	old := snapshot(alias("Deep", nest("string", 10)))
	new := snapshot(alias("Deep", nest("number", 10)))

	changes := DiffModules(old, new, Options{MaxDepth: 3})
	var limited bool
	for _, d := range flatten(changes) {
		if d.Tags.Has(changespec.TagDepthLimit) {
			limited = true
			assert.LessOrEqual(t, d.Context.Depth, 5)
		}
	}
	assert.True(t, limited)
}

func TestDiffModules_SelfReferentialShape(t *testing.T) {
	cyclic := func(leaf string) *model.Shape {
		node := &model.Shape{Kind: model.ShapeObject}
		node.Members = []model.Member{
			{Name: "value", Type: model.Primitive(leaf)},
			{Name: "next", Type: node, Optional: true},
		}
		return node
	}
	old := snapshot(alias("List", cyclic("string")))
	new := snapshot(alias("List", cyclic("number")))

	changes := DiffModules(old, new, Options{MaxDepth: 8})
	require.NotEmpty(t, changes)

	var cut bool
	for _, d := range flatten(changes) {
		if d.Tags.Has(changespec.TagCycle) || d.Tags.Has(changespec.TagDepthLimit) {
			cut = true
		}
	}
	assert.True(t, cut)
}

func TestDiffModules_ParallelDeterminism(t *testing.T) {
	var oldNodes, newNodes []*model.Node
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		oldNodes = append(oldNodes, iface(name, prop("x", model.Primitive("string"))))
		newNodes = append(newNodes, iface(name, prop("x", model.Primitive("number")), prop("y", model.Primitive("string"), model.ModOptional)))
	}
	old, new := snapshot(oldNodes...), snapshot(newNodes...)

	serial := DiffModules(old, new, Options{Workers: 1})
	parallel := DiffModules(old, new, Options{Workers: 8})
	require.Len(t, parallel, len(serial))
	for i := range serial {
		assert.Equal(t, serial[i].Symbol, parallel[i].Symbol)
		assert.Equal(t, len(flatten(serial[i:i+1])), len(flatten(parallel[i:i+1])))
	}
}

func TestDiffModules_ExportsListFiltersNodes(t *testing.T) {
	hidden := function("internal", model.Func(nil))
	old := snapshot(function("api", model.Func(nil)))
	old.Nodes[hidden.Path] = hidden

	assert.Empty(t, diff(old, snapshot(function("api", model.Func(nil)))))
}

func tuple(elems ...model.TupleElement) *model.Shape {
	return &model.Shape{Kind: model.ShapeTuple, TupleElements: elems}
}

func elem(typ string) model.TupleElement {
	return model.TupleElement{Type: model.Primitive(typ)}
}

func TestDiffModules_ShapeKinds(t *testing.T) {
	optional := elem("number")
	optional.Optional = true
	rest := elem("number")
	rest.Rest = true
	conditional := func(yes string) *model.Shape {
		return &model.Shape{Kind: model.ShapeConditional, Conditional: &model.ConditionalShape{
			Check: model.Reference("T"), Extends: model.Primitive("string"), True: model.Literal(yes), False: model.Primitive("never"),
		}}
	}
	template := func(span string) *model.Shape {
		return &model.Shape{Kind: model.ShapeTemplateLiteral, Elements: []*model.Shape{model.Literal(`"id-"`), model.Primitive(span)}}
	}
	retries := func(v string) *model.Node {
		n := prop("retries", model.Primitive("number"), model.ModOptional)
		n.Default = &v
		return n
	}

	tests := []struct {
		name     string
		old, new *model.Node
		target   changespec.Target
		action   changespec.Action
		aspect   changespec.Aspect
		tag      changespec.Tag
		named    string
	}{
		{
			name: "tuple element made optional",
			old:  alias("Pair", tuple(elem("string"), elem("number"))), new: alias("Pair", tuple(elem("string"), optional)),
			target: changespec.TargetTupleElement, action: changespec.ActionModified, aspect: changespec.AspectOptionality, tag: changespec.TagOptionalityLoosened,
		},
		{
			name: "tuple element added",
			old:  alias("Pair", tuple(elem("string"))), new: alias("Pair", tuple(elem("string"), elem("number"))),
			target: changespec.TargetTupleElement, action: changespec.ActionAdded, tag: changespec.TagRequired,
		},
		{
			name: "tuple element made rest",
			old:  alias("Pair", tuple(elem("string"), elem("number"))), new: alias("Pair", tuple(elem("string"), rest)),
			target: changespec.TargetTupleElement, action: changespec.ActionModified, aspect: changespec.AspectType, tag: changespec.TagRestChanged,
		},
		{
			name: "tuple elements swapped",
			old:  alias("Pair", tuple(elem("string"), elem("number"))), new: alias("Pair", tuple(elem("number"), elem("string"))),
			target: changespec.TargetTupleElement, action: changespec.ActionModified, aspect: changespec.AspectType, tag: changespec.TagTypeChanged,
		},
		{
			name: "conditional branch",
			old:  alias("Pick", conditional(`"yes"`)), new: alias("Pick", conditional(`"ok"`)),
			target: changespec.TargetConditionalBranch, action: changespec.ActionModified, aspect: changespec.AspectType, tag: changespec.TagTypeChanged,
		},
		{
			name: "template literal span",
			old:  alias("Key", template("string")), new: alias("Key", template("number")),
			target: changespec.TargetTypeDefinition, action: changespec.ActionModified, aspect: changespec.AspectType, named: "${1}",
		},
		{
			name: "array element",
			old:  alias("List", model.ArrayOf(model.Primitive("string"))), new: alias("List", model.ArrayOf(model.Primitive("number"))),
			target: changespec.TargetArrayElement, action: changespec.ActionModified, aspect: changespec.AspectType, tag: changespec.TagTypeChanged,
		},
		{
			name: "intersection member",
			old:  alias("Both", model.Intersection(model.Reference("A"), model.Reference("B"))), new: alias("Both", model.Intersection(model.Reference("A"), model.Reference("C"))),
			target: changespec.TargetIntersectionMember, action: changespec.ActionAdded,
		},
		{
			name: "readonly added",
			old:  iface("Config", prop("name", model.Primitive("string"))), new: iface("Config", prop("name", model.Primitive("string"), model.ModReadonly)),
			target: changespec.TargetProperty, action: changespec.ActionModified, aspect: changespec.AspectReadonly, tag: changespec.TagReadonlyAdded,
		},
		{
			name: "default value",
			old:  iface("Options", retries("3")), new: iface("Options", retries("5")),
			target: changespec.TargetProperty, action: changespec.ActionModified, aspect: changespec.AspectDefaultValue, tag: changespec.TagDefaultChanged,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := diff(snapshot(tt.old), snapshot(tt.new))

			var found *changespec.ChangeDescriptor
			for _, c := range flatten(changes) {
				if c.Target == tt.target && c.Action == tt.action && (tt.aspect == "" || c.Aspect == tt.aspect) && (tt.named == "" || c.Name == tt.named) {
					found = c
					break
				}
			}
			require.NotNil(t, found, "no %s %s descriptor", tt.action, tt.target)
			if tt.tag != "" {
				assert.True(t, found.Tags.Has(tt.tag), "tags %v", found.Tags)
			}
		})
	}
}

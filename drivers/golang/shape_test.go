package golang

import (
	"go/ast"
	"go/parser"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emenda-labs/semdiff/core/model"
)

func parseShape(t *testing.T, src string) *model.Shape {
	t.Helper()
	expr, err := parser.ParseExpr(src)
	require.NoError(t, err, src)
	return typeShape(expr)
}

func TestTypeShape_Leaves(t *testing.T) {
	tests := []struct {
		src  string
		kind model.ShapeKind
		text string
	}{
		{"string", model.ShapePrimitive, "string"},
		{"error", model.ShapePrimitive, "error"},
		{"Config", model.ShapeReference, "Config"},
		{"*Config", model.ShapeReference, "*Config"},
		{"context.Context", model.ShapeReference, "context.Context"},
		{"chan<- int", model.ShapeReference, "chan<- int"},
		{"[4]byte", model.ShapeReference, "[4]byte"},
		{"List[int]", model.ShapeReference, "List[int]"},
		{"(int)", model.ShapePrimitive, "int"},
		{"interface{}", model.ShapePrimitive, "any"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s := parseShape(t, tt.src)
			assert.Equal(t, tt.kind, s.Kind)
			assert.Equal(t, tt.text, s.Text)
		})
	}
}

func TestTypeShape_Composites(t *testing.T) {
	slice := parseShape(t, "[]string")
	require.Equal(t, model.ShapeArray, slice.Kind)
	assert.Equal(t, "[]string", slice.Text)
	assert.Equal(t, "string", slice.Element.Text)

	m := parseShape(t, "map[string][]int")
	require.Equal(t, model.ShapeObject, m.Kind)
	require.Len(t, m.IndexSignatures, 1)
	assert.Equal(t, "string", m.IndexSignatures[0].KeyType)
	assert.Equal(t, model.ShapeArray, m.IndexSignatures[0].Value.Kind)

	u := parseShape(t, "int | string | float64")
	require.Equal(t, model.ShapeUnion, u.Kind)
	assert.Len(t, u.Elements, 3)

	iface := parseShape(t, "interface{ Close() error; io.Reader; hidden() }")
	require.Equal(t, model.ShapeObject, iface.Kind)
	require.Len(t, iface.Members, 2)
	assert.Equal(t, "Close", iface.Members[0].Name)
	assert.True(t, iface.Members[0].Method)
	assert.Equal(t, "io.Reader", iface.Members[1].Name)

	st := parseShape(t, "struct{ Name string; age int; io.Writer }")
	require.Equal(t, model.ShapeObject, st.Kind)
	require.Len(t, st.Members, 2)
	assert.Equal(t, "Name", st.Members[0].Name)
	assert.True(t, st.Members[0].Optional)
	assert.Equal(t, "Writer", st.Members[1].Name)
}

func TestFuncShape(t *testing.T) {
	s := parseShape(t, "func(a, b int, rest ...string) (n int, err error)")
	require.Equal(t, model.ShapeFunction, s.Kind)
	require.Len(t, s.Signatures, 1)

	params := s.Signatures[0].Parameters
	require.Len(t, params, 3)
	assert.Equal(t, []string{"a", "b", "rest"}, []string{params[0].Name, params[1].Name, params[2].Name})
	assert.True(t, params[2].Rest)
	assert.Equal(t, "[]string", params[2].Type.Text)

	unnamed := parseShape(t, "func(int, string)").Signatures[0].Parameters
	require.Len(t, unnamed, 2)
	assert.Equal(t, "arg0", unnamed[0].Name)
	assert.Equal(t, "arg1", unnamed[1].Name)

	ret := s.Signatures[0].Return
	require.Equal(t, model.ShapeTuple, ret.Kind)
	assert.Equal(t, "(int, error)", ret.Text)
	assert.Equal(t, "err", ret.TupleElements[1].Name)

	single := parseShape(t, "func() error")
	assert.Equal(t, "error", single.Signatures[0].Return.Text)
}

func TestDeprecated(t *testing.T) {
	doc := func(lines ...string) *ast.CommentGroup {
		cg := &ast.CommentGroup{}
		for _, l := range lines {
			cg.List = append(cg.List, &ast.Comment{Text: l})
		}
		return cg
	}

	assert.True(t, deprecated(doc("// Foo does x.", "//", "// Deprecated: use Bar.")))
	assert.True(t, deprecated(nil, doc("// Deprecated: gone.")))
	assert.False(t, deprecated(doc("// Deprecated without a colon.")))
	assert.False(t, deprecated(doc("// Foo is not Deprecated: really.")))
	assert.False(t, deprecated(nil))
}

func TestBaseTypeName(t *testing.T) {
	for src, want := range map[string]string{
		"*Client":        "Client",
		"Foo[T]":         "Foo",
		"*pkg.Bar[T, U]": "Bar",
		"[]int":          "",
	} {
		expr, err := parser.ParseExpr(src)
		require.NoError(t, err)
		assert.Equal(t, want, baseTypeName(expr), src)
	}
}

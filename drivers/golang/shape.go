package golang

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/emenda-labs/semdiff/core/model"
)

// predeclared lists the predeclared type names that map to primitive shapes.
var predeclared = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true, "error": true, "rune": true, "string": true, "uintptr": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// typeShape converts a type expression to its structural shape. Named types
// stay references; only anonymous composite types are expanded.
func typeShape(expr ast.Expr) *model.Shape {
	if expr == nil {
		return nil
	}

	switch e := expr.(type) {
	case *ast.Ident:
		if predeclared[e.Name] {
			return model.Primitive(e.Name)
		}
		return model.Reference(e.Name)

	case *ast.ParenExpr:
		return typeShape(e.X)

	case *ast.ArrayType:
		if e.Len != nil {
			return model.Reference(types.ExprString(e))
		}
		return sliceOf(typeShape(e.Elt))

	case *ast.Ellipsis:
		return sliceOf(typeShape(e.Elt))

	case *ast.MapType:
		return &model.Shape{
			Kind: model.ShapeObject,
			Text: types.ExprString(e),
			IndexSignatures: []model.IndexSignature{{
				KeyType: types.ExprString(e.Key),
				Value:   typeShape(e.Value),
			}},
		}

	case *ast.FuncType:
		return funcShape(e)

	case *ast.InterfaceType:
		return interfaceShape(e)

	case *ast.StructType:
		return structShape(e)

	case *ast.BinaryExpr:
		if e.Op == token.OR {
			return model.Union(unionTerms(e)...)
		}
	}

	// Pointers, channels, selectors, instantiations and ~T terms compare by text.
	return model.Reference(types.ExprString(expr))
}

func sliceOf(elem *model.Shape) *model.Shape {
	if elem == nil {
		elem = model.Reference("unknown")
	}
	return &model.Shape{Kind: model.ShapeArray, Text: "[]" + elem.Text, Element: elem}
}

// unionTerms flattens a type-set union such as ~int | ~string | float64.
func unionTerms(e *ast.BinaryExpr) []*model.Shape {
	var out []*model.Shape
	for _, side := range []ast.Expr{e.X, e.Y} {
		if b, ok := side.(*ast.BinaryExpr); ok && b.Op == token.OR {
			out = append(out, unionTerms(b)...)
			continue
		}
		out = append(out, typeShape(side))
	}
	return out
}

// funcShape builds a single-signature function shape. Unnamed parameters are
// named by position; a variadic parameter becomes an optional rest parameter.
func funcShape(ft *ast.FuncType) *model.Shape {
	sig := model.Signature{
		TypeParameters: typeParams(ft.TypeParams),
		Return:         results(ft.Results),
	}

	if ft.Params != nil {
		for _, field := range ft.Params.List {
			names := fieldNames(field)
			if len(names) == 0 {
				names = []string{fmt.Sprintf("arg%d", len(sig.Parameters))}
			}
			for _, name := range names {
				p := model.Parameter{Name: name, Type: typeShape(field.Type)}
				if _, ok := field.Type.(*ast.Ellipsis); ok {
					p.Rest, p.Optional = true, true
				}
				sig.Parameters = append(sig.Parameters, p)
			}
		}
	}

	return &model.Shape{
		Kind:       model.ShapeFunction,
		Text:       types.ExprString(ft),
		Signatures: []model.Signature{sig},
	}
}

// results maps a result list to a return shape: nil for none, the type itself
// for one, and a tuple otherwise.
func results(fl *ast.FieldList) *model.Shape {
	if fl == nil || len(fl.List) == 0 {
		return nil
	}

	var elems []model.TupleElement
	var texts []string
	for _, field := range fl.List {
		n := max(len(field.Names), 1)
		for i := 0; i < n; i++ {
			s := typeShape(field.Type)
			el := model.TupleElement{Type: s}
			if i < len(field.Names) {
				el.Name = field.Names[i].Name
			}
			elems = append(elems, el)
			texts = append(texts, s.Text)
		}
	}

	if len(elems) == 1 {
		return elems[0].Type
	}
	return &model.Shape{
		Kind:          model.ShapeTuple,
		Text:          "(" + strings.Join(texts, ", ") + ")",
		TupleElements: elems,
	}
}

func typeParams(fl *ast.FieldList) []model.TypeParameter {
	if fl == nil {
		return nil
	}
	var out []model.TypeParameter
	for _, field := range fl.List {
		for _, name := range field.Names {
			out = append(out, model.TypeParameter{Name: name.Name, Constraint: typeShape(field.Type)})
		}
	}
	return out
}

// interfaceShape expands an anonymous interface. The empty interface is any.
func interfaceShape(it *ast.InterfaceType) *model.Shape {
	if it.Methods == nil || len(it.Methods.List) == 0 {
		return model.Primitive("any")
	}

	s := &model.Shape{Kind: model.ShapeObject, Text: types.ExprString(it)}
	for _, field := range it.Methods.List {
		if len(field.Names) == 0 {
			s.Members = append(s.Members, model.Member{Name: types.ExprString(field.Type), Type: typeShape(field.Type)})
			continue
		}
		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			continue
		}
		for _, name := range field.Names {
			if !name.IsExported() {
				continue
			}
			s.Members = append(s.Members, model.Member{Name: name.Name, Type: funcShape(ft), Method: true})
		}
	}
	return s
}

// structShape expands an anonymous struct to its exported fields.
func structShape(st *ast.StructType) *model.Shape {
	s := &model.Shape{Kind: model.ShapeObject, Text: types.ExprString(st)}
	if st.Fields == nil {
		return s
	}
	for _, field := range st.Fields.List {
		for _, name := range exportedFieldNames(field) {
			s.Members = append(s.Members, model.Member{
				Name:       name,
				Type:       typeShape(field.Type),
				Optional:   true,
				Deprecated: deprecated(field.Doc),
			})
		}
	}
	return s
}

func fieldNames(field *ast.Field) []string {
	names := make([]string, 0, len(field.Names))
	for _, n := range field.Names {
		names = append(names, n.Name)
	}
	return names
}

// exportedFieldNames returns the exported names a struct field declares. An
// embedded field is named after its base type.
func exportedFieldNames(field *ast.Field) []string {
	if len(field.Names) == 0 {
		if name := baseTypeName(field.Type); name != "" && ast.IsExported(name) {
			return []string{name}
		}
		return nil
	}
	var out []string
	for _, n := range field.Names {
		if n.IsExported() {
			out = append(out, n.Name)
		}
	}
	return out
}

// baseTypeName strips pointers, type arguments and package selectors.
// Examples: *Client -> "Client", Foo[T] -> "Foo", *pkg.Bar[T, U] -> "Bar"
func baseTypeName(expr ast.Expr) string {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.IndexExpr:
		expr = e.X
	case *ast.IndexListExpr:
		expr = e.X
	}

	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}

func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	return baseTypeName(recv.List[0].Type)
}

// deprecated reports whether any of the doc comments has a paragraph starting
// with "Deprecated: ".
func deprecated(docs ...*ast.CommentGroup) bool {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, para := range strings.Split(doc.Text(), "\n\n") {
			if strings.HasPrefix(strings.TrimSpace(para), "Deprecated: ") {
				return true
			}
		}
	}
	return false
}

// constType returns the declared type of a constant, or the untyped kind of
// its literal value.
func constType(typ, value ast.Expr) *model.Shape {
	if typ != nil {
		return typeShape(typ)
	}
	if lit, ok := value.(*ast.BasicLit); ok {
		return model.Primitive("untyped " + literalKind(lit.Kind, true))
	}
	return model.Primitive("untyped")
}

// varType returns the declared type of a variable or infers it from common
// initializer forms. Unknown initializers yield nil.
func varType(typ, value ast.Expr) *model.Shape {
	if typ != nil {
		return typeShape(typ)
	}
	switch v := value.(type) {
	case *ast.BasicLit:
		return model.Primitive(literalKind(v.Kind, false))
	case *ast.CompositeLit:
		return typeShape(v.Type)
	case *ast.UnaryExpr:
		if lit, ok := v.X.(*ast.CompositeLit); ok && v.Op == token.AND {
			return model.Reference("*" + types.ExprString(lit.Type))
		}
	case *ast.CallExpr:
		switch types.ExprString(v.Fun) {
		case "errors.New", "fmt.Errorf":
			return model.Primitive("error")
		}
	}
	return nil
}

func literalKind(tok token.Token, untyped bool) string {
	switch tok {
	case token.INT:
		return "int"
	case token.FLOAT:
		if untyped {
			return "float"
		}
		return "float64"
	case token.IMAG:
		if untyped {
			return "complex"
		}
		return "complex128"
	case token.CHAR:
		return "rune"
	}
	return "string"
}

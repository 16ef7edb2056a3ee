package model

import "strings"

// Shape constructors. Text is filled with a plain rendering so that snapshots
// built in code look like extractor output.

func Primitive(name string) *Shape {
	return &Shape{Kind: ShapePrimitive, Text: name}
}

func Literal(text string) *Shape {
	return &Shape{Kind: ShapeLiteral, Text: text}
}

func Reference(name string) *Shape {
	return &Shape{Kind: ShapeReference, Text: name}
}

func Union(elems ...*Shape) *Shape {
	return &Shape{Kind: ShapeUnion, Text: joinText(elems, " | "), Elements: elems}
}

func Intersection(elems ...*Shape) *Shape {
	return &Shape{Kind: ShapeIntersection, Text: joinText(elems, " & "), Elements: elems}
}

func ArrayOf(elem *Shape) *Shape {
	return &Shape{Kind: ShapeArray, Text: elem.Text + "[]", Element: elem}
}

func Object(members ...Member) *Shape {
	parts := make([]string, 0, len(members))
	for _, m := range members {
		opt := ""
		if m.Optional {
			opt = "?"
		}
		parts = append(parts, m.Name+opt+": "+m.Type.Text)
	}
	return &Shape{Kind: ShapeObject, Text: "{ " + strings.Join(parts, "; ") + " }", Members: members}
}

// Func builds a single-signature function shape.
func Func(ret *Shape, params ...Parameter) *Shape {
	return Overloads(Signature{Parameters: params, Return: ret})
}

// Overloads builds a function shape with one signature per overload.
func Overloads(sigs ...Signature) *Shape {
	texts := make([]string, 0, len(sigs))
	for _, sig := range sigs {
		texts = append(texts, sig.String())
	}
	return &Shape{Kind: ShapeFunction, Text: strings.Join(texts, "; "), Signatures: sigs}
}

// Param builds a required parameter.
func Param(name string, typ *Shape) Parameter {
	return Parameter{Name: name, Type: typ}
}

// OptionalParam builds an optional parameter.
func OptionalParam(name string, typ *Shape) Parameter {
	return Parameter{Name: name, Type: typ, Optional: true}
}

// String renders the signature as "(a: T, b?: U) => R".
func (s Signature) String() string {
	parts := make([]string, 0, len(s.Parameters))
	for _, p := range s.Parameters {
		var b strings.Builder
		if p.Rest {
			b.WriteString("...")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		if p.Type != nil {
			b.WriteString(p.Type.Text)
		}
		parts = append(parts, b.String())
	}
	ret := "void"
	if s.Return != nil {
		ret = s.Return.Text
	}
	return "(" + strings.Join(parts, ", ") + ") => " + ret
}

func joinText(elems []*Shape, sep string) string {
	texts := make([]string, 0, len(elems))
	for _, e := range elems {
		texts = append(texts, e.Text)
	}
	return strings.Join(texts, sep)
}

package model

import (
	"slices"
)

// Kind identifies what kind of exported symbol or member a node describes.
type Kind string

const (
	KindFunction  Kind = "function"
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindType      Kind = "type"
	KindEnum      Kind = "enum"
	KindVariable  Kind = "variable"
	KindNamespace Kind = "namespace"

	// Member kinds, used for children of classes, interfaces and enums.
	KindProperty    Kind = "property"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindEnumMember  Kind = "enum-member"
)

// IsMember reports whether k is a member kind rather than a declaration kind.
func (k Kind) IsMember() bool {
	switch k {
	case KindProperty, KindMethod, KindConstructor, KindEnumMember:
		return true
	}
	return false
}

// Modifier is a declaration qualifier.
type Modifier string

const (
	ModExported      Modifier = "exported"
	ModDefaultExport Modifier = "default-export"
	ModDeprecated    Modifier = "deprecated"
	ModReadonly      Modifier = "readonly"
	ModOptional      Modifier = "optional"
	ModStatic        Modifier = "static"
	ModAbstract      Modifier = "abstract"
)

// Modifiers is a set of modifiers. Order carries no meaning.
type Modifiers []Modifier

// Has reports whether m contains mod.
func (m Modifiers) Has(mod Modifier) bool {
	return slices.Contains(m, mod)
}

// Node is a single exported symbol or a member of one.
type Node struct {
	// Path is the qualified name, unique within a snapshot (e.g. "pkg.Config.name").
	Path      string           `json:"path"`
	Name      string           `json:"name"`
	Kind      Kind             `json:"kind"`
	Modifiers Modifiers        `json:"modifiers,omitempty"`
	TypeInfo  TypeInfo         `json:"typeInfo"`
	Children  map[string]*Node `json:"children,omitempty"`

	// Default holds the default value text. For enum members it holds the member value.
	Default *string `json:"default,omitempty"`
}

// Is reports whether the node carries the given modifier.
func (n *Node) Is(mod Modifier) bool {
	return n != nil && n.Modifiers.Has(mod)
}

// ChildNames returns the child names sorted lexically.
func (n *Node) ChildNames() []string {
	if n == nil || len(n.Children) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// TypeInfo pairs a signature string with its resolved structural shape.
type TypeInfo struct {
	Text  string `json:"text"`
	Shape *Shape `json:"shape,omitempty"`
}

// ShapeKind tags the variant held by a Shape.
type ShapeKind string

const (
	ShapePrimitive       ShapeKind = "primitive"
	ShapeLiteral         ShapeKind = "literal"
	ShapeReference       ShapeKind = "reference"
	ShapeObject          ShapeKind = "object"
	ShapeFunction        ShapeKind = "function"
	ShapeUnion           ShapeKind = "union"
	ShapeIntersection    ShapeKind = "intersection"
	ShapeTuple           ShapeKind = "tuple"
	ShapeArray           ShapeKind = "array"
	ShapeMapped          ShapeKind = "mapped"
	ShapeConditional     ShapeKind = "conditional"
	ShapeTemplateLiteral ShapeKind = "template-literal"
)

// IsLeaf reports whether shapes of this kind compare by text alone.
func (k ShapeKind) IsLeaf() bool {
	switch k {
	case ShapePrimitive, ShapeLiteral, ShapeReference, "":
		return true
	}
	return false
}

// Shape is a resolved structural type description. Only the fields relevant to
// Kind are populated.
type Shape struct {
	Kind ShapeKind `json:"kind"`
	Text string    `json:"text,omitempty"`

	// object
	Members         []Member         `json:"members,omitempty"`
	IndexSignatures []IndexSignature `json:"indexSignatures,omitempty"`

	// function; call signatures for objects
	Signatures []Signature `json:"signatures,omitempty"`

	// union, intersection, template-literal spans
	Elements []*Shape `json:"elements,omitempty"`

	// tuple
	TupleElements []TupleElement `json:"tupleElements,omitempty"`

	// array
	Element *Shape `json:"element,omitempty"`

	Mapped      *MappedShape      `json:"mapped,omitempty"`
	Conditional *ConditionalShape `json:"conditional,omitempty"`

	// Generic declarations (type aliases, interfaces, classes).
	TypeParameters []TypeParameter `json:"typeParameters,omitempty"`
}

// Member is a property or method of an anonymous object shape.
type Member struct {
	Name       string `json:"name"`
	Type       *Shape `json:"type"`
	Optional   bool   `json:"optional,omitempty"`
	Readonly   bool   `json:"readonly,omitempty"`
	Method     bool   `json:"method,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// IndexSignature is an index signature such as "[key: string]: T".
type IndexSignature struct {
	KeyName  string `json:"keyName,omitempty"`
	KeyType  string `json:"keyType"`
	Value    *Shape `json:"value"`
	Readonly bool   `json:"readonly,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Signature is one overload of a callable.
type Signature struct {
	TypeParameters []TypeParameter `json:"typeParameters,omitempty"`
	Parameters     []Parameter     `json:"parameters,omitempty"`
	Return         *Shape          `json:"return,omitempty"`
}

// Parameter is a positional callable parameter.
type Parameter struct {
	Name     string  `json:"name"`
	Type     *Shape  `json:"type"`
	Optional bool    `json:"optional,omitempty"`
	Rest     bool    `json:"rest,omitempty"`
	Default  *string `json:"default,omitempty"`
}

// TypeParameter is a generic parameter with optional constraint and default.
type TypeParameter struct {
	Name       string `json:"name"`
	Constraint *Shape `json:"constraint,omitempty"`
	Default    *Shape `json:"default,omitempty"`
}

// TupleElement is one position of a tuple.
type TupleElement struct {
	Name     string `json:"name,omitempty"`
	Type     *Shape `json:"type"`
	Optional bool   `json:"optional,omitempty"`
	Rest     bool   `json:"rest,omitempty"`
}

// MappedShape describes "{ [K in C as N]: V }" with its +/- modifiers.
type MappedShape struct {
	TypeParameter string `json:"typeParameter"`
	Constraint    *Shape `json:"constraint"`
	NameType      *Shape `json:"nameType,omitempty"`
	Value         *Shape `json:"value"`
	// ReadonlyModifier and OptionalModifier are "", "+" or "-".
	ReadonlyModifier string `json:"readonlyModifier,omitempty"`
	OptionalModifier string `json:"optionalModifier,omitempty"`
}

// ConditionalShape describes "C extends E ? T : F".
type ConditionalShape struct {
	Check   *Shape `json:"check"`
	Extends *Shape `json:"extends"`
	True    *Shape `json:"true"`
	False   *Shape `json:"false"`
}

package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/emenda-labs/semdiff/core/driver"
	"github.com/emenda-labs/semdiff/core/model"
	"github.com/emenda-labs/semdiff/pkg/gomod"
)

var _ driver.Extractor = (*Extractor)(nil)

// underlyingMember names the child that carries the underlying type of a
// named non-struct type with methods. It cannot clash with an exported name.
const underlyingMember = "underlying"

// Extractor builds a model.Snapshot of the exported API of a Go module.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor. A nil logger discards output.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{logger: logger}
}

// Extract locates the module root under dir, reads its module path from
// go.mod and extracts the exported API.
func (e *Extractor) Extract(ctx context.Context, dir string) (*model.Snapshot, error) {
	root, err := FindSourceRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("finding source root in %s: %w", dir, err)
	}
	module, err := gomod.FindModulePath(root)
	if err != nil {
		return nil, fmt.Errorf("reading module path: %w", err)
	}
	return e.ExtractModule(ctx, root, module)
}

// ExtractModule walks the module source at root and collects every exported
// symbol of every non-main package. Symbols are keyed "importpath.Name";
// methods and fields are children of their type. Files that fail to parse are
// recorded in Snapshot.Errors and skipped.
func (e *Extractor) ExtractModule(ctx context.Context, root, module string) (*model.Snapshot, error) {
	c := &collector{
		fset:   token.NewFileSet(),
		snap:   model.NewSnapshot(),
		logger: e.logger,
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Skip symlinks to prevent symlink-based path escapes.
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			base := d.Name()
			if path != root && (base == "internal" || base == "testdata" || base == "vendor" ||
				strings.HasPrefix(base, "_") || strings.HasPrefix(base, ".")) {
				return fs.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		file, parseErr := parser.ParseFile(c.fset, path, nil, parser.ParseComments|parser.SkipObjectResolution)
		if parseErr != nil {
			rel, _ := filepath.Rel(root, path)
			c.snap.Errors = append(c.snap.Errors, fmt.Sprintf("%s: %v", filepath.ToSlash(rel), parseErr))
			e.logger.Warn("skipping unparsable file", "file", path, "error", parseErr)
			return nil
		}
		if file.Name.Name == "main" {
			return nil
		}

		c.file(file, computePackagePath(root, path, module))
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking source at %s: %w", root, walkErr)
	}

	c.attachMethods()
	e.logger.Debug("extracted module", "module", module, "exports", c.snap.Len(), "errors", len(c.snap.Errors))
	return c.snap, nil
}

type pendingMethod struct {
	owner string
	node  *model.Node
}

type collector struct {
	fset    *token.FileSet
	snap    *model.Snapshot
	logger  *slog.Logger
	methods []pendingMethod
}

func (c *collector) file(f *ast.File, pkgPath string) {
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			c.funcDecl(d, pkgPath)
		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				c.typeDecl(d, pkgPath)
			case token.CONST, token.VAR:
				c.valueDecl(d, pkgPath)
			}
		}
	}
}

// add records n unless another build variant already declared the same path.
func (c *collector) add(n *model.Node) {
	if _, dup := c.snap.Nodes[n.Path]; dup {
		c.logger.Debug("duplicate declaration ignored", "path", n.Path)
		return
	}
	c.snap.Add(n)
}

func (c *collector) funcDecl(fd *ast.FuncDecl, pkgPath string) {
	if fd.Name == nil || !fd.Name.IsExported() {
		return
	}

	shape := funcShape(fd.Type)
	n := &model.Node{
		Name:     fd.Name.Name,
		Kind:     model.KindFunction,
		TypeInfo: model.TypeInfo{Text: shape.Text, Shape: shape},
	}
	if deprecated(fd.Doc) {
		n.Modifiers = append(n.Modifiers, model.ModDeprecated)
	}

	if fd.Recv == nil {
		n.Path = pkgPath + "." + n.Name
		c.add(n)
		return
	}

	recv := receiverTypeName(fd.Recv)
	if recv == "" || !ast.IsExported(recv) {
		return
	}
	// Methods a concrete type gains do not break its users.
	n.Kind = model.KindMethod
	n.Modifiers = append(n.Modifiers, model.ModOptional)
	c.methods = append(c.methods, pendingMethod{owner: pkgPath + "." + recv, node: n})
}

func (c *collector) typeDecl(gd *ast.GenDecl, pkgPath string) {
	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || ts.Name == nil || !ts.Name.IsExported() {
			continue
		}

		path := pkgPath + "." + ts.Name.Name
		n := &model.Node{Path: path, Name: ts.Name.Name}
		if deprecated(ts.Doc, docFor(gd)) {
			n.Modifiers = append(n.Modifiers, model.ModDeprecated)
		}
		tps := typeParams(ts.TypeParams)

		switch t := ts.Type.(type) {
		case *ast.StructType:
			if ts.Assign.IsValid() {
				c.named(n, ts, tps)
				break
			}
			n.Kind = model.KindClass
			n.TypeInfo = model.TypeInfo{Text: "struct", Shape: &model.Shape{Kind: model.ShapeObject, Text: "struct", TypeParameters: tps}}
			n.Children = structChildren(t, path)
		case *ast.InterfaceType:
			if ts.Assign.IsValid() {
				c.named(n, ts, tps)
				break
			}
			n.Kind = model.KindInterface
			n.TypeInfo = model.TypeInfo{Text: "interface", Shape: &model.Shape{Kind: model.ShapeObject, Text: "interface", TypeParameters: tps}}
			n.Children = interfaceChildren(t, path)
		default:
			c.named(n, ts, tps)
		}
		c.add(n)
	}
}

// named fills n as a type definition or alias over an arbitrary type.
func (c *collector) named(n *model.Node, ts *ast.TypeSpec, tps []model.TypeParameter) {
	shape := typeShape(ts.Type)
	if len(tps) > 0 {
		cp := *shape
		cp.TypeParameters = tps
		shape = &cp
	}
	text := types.ExprString(ts.Type)
	if ts.Assign.IsValid() {
		text = "= " + text
	}
	n.Kind = model.KindType
	n.TypeInfo = model.TypeInfo{Text: text, Shape: shape}
}

func structChildren(st *ast.StructType, owner string) map[string]*model.Node {
	children := make(map[string]*model.Node)
	if st.Fields == nil {
		return children
	}
	for _, field := range st.Fields.List {
		shape := typeShape(field.Type)
		for _, name := range exportedFieldNames(field) {
			// A zero value is always valid for a field, so fields are optional.
			mods := model.Modifiers{model.ModOptional}
			if deprecated(field.Doc) {
				mods = append(mods, model.ModDeprecated)
			}
			children[name] = &model.Node{
				Path:      owner + "." + name,
				Name:      name,
				Kind:      model.KindProperty,
				Modifiers: mods,
				TypeInfo:  model.TypeInfo{Text: shape.Text, Shape: shape},
			}
		}
	}
	return children
}

func interfaceChildren(it *ast.InterfaceType, owner string) map[string]*model.Node {
	children := make(map[string]*model.Node)
	if it.Methods == nil {
		return children
	}
	for _, field := range it.Methods.List {
		if len(field.Names) == 0 {
			// Embedded interfaces and type-set terms.
			name := baseTypeName(field.Type)
			if name == "" {
				name = types.ExprString(field.Type)
			}
			shape := typeShape(field.Type)
			children[name] = &model.Node{
				Path:     owner + "." + name,
				Name:     name,
				Kind:     model.KindProperty,
				TypeInfo: model.TypeInfo{Text: shape.Text, Shape: shape},
			}
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
			shape := funcShape(ft)
			n := &model.Node{
				Path:     owner + "." + name.Name,
				Name:     name.Name,
				Kind:     model.KindMethod,
				TypeInfo: model.TypeInfo{Text: shape.Text, Shape: shape},
			}
			if deprecated(field.Doc) {
				n.Modifiers = append(n.Modifiers, model.ModDeprecated)
			}
			children[name.Name] = n
		}
	}
	return children
}

// valueDecl collects exported constants and variables. Constants are
// readonly and record their value text as the default. Within a const group an
// omitted type and value repeat the previous spec's.
func (c *collector) valueDecl(gd *ast.GenDecl, pkgPath string) {
	isConst := gd.Tok == token.CONST
	var prevType ast.Expr
	var prevValues []ast.Expr

	for _, spec := range gd.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		typ, values := vs.Type, vs.Values
		if isConst && typ == nil && len(values) == 0 {
			typ, values = prevType, prevValues
		}
		prevType, prevValues = typ, values

		for i, name := range vs.Names {
			if !name.IsExported() {
				continue
			}
			var value ast.Expr
			if i < len(values) {
				value = values[i]
			}

			n := &model.Node{
				Path: pkgPath + "." + name.Name,
				Name: name.Name,
				Kind: model.KindVariable,
			}
			var shape *model.Shape
			if isConst {
				shape = constType(typ, value)
				n.Modifiers = append(n.Modifiers, model.ModReadonly)
				if value != nil {
					v := types.ExprString(value)
					n.Default = &v
				}
			} else {
				shape = varType(typ, value)
			}
			if shape != nil {
				n.TypeInfo = model.TypeInfo{Text: shape.Text, Shape: shape}
			}
			if deprecated(vs.Doc, docFor(gd)) {
				n.Modifiers = append(n.Modifiers, model.ModDeprecated)
			}
			c.add(n)
		}
	}
}

// docFor returns the group doc comment of an unparenthesized declaration,
// where it documents the single spec.
func docFor(gd *ast.GenDecl) *ast.CommentGroup {
	if gd.Lparen.IsValid() {
		return nil
	}
	return gd.Doc
}

// attachMethods moves collected methods under their receiver types. A named
// non-struct type with methods becomes a class whose underlying type is kept
// as a child.
func (c *collector) attachMethods() {
	for _, m := range c.methods {
		owner, ok := c.snap.Nodes[m.owner]
		if !ok {
			continue
		}
		if owner.Kind == model.KindType {
			underlying := &model.Node{
				Path:     owner.Path + "." + underlyingMember,
				Name:     underlyingMember,
				Kind:     model.KindProperty,
				TypeInfo: owner.TypeInfo,
			}
			owner.Kind = model.KindClass
			owner.Children = map[string]*model.Node{underlyingMember: underlying}
			owner.TypeInfo = model.TypeInfo{Text: owner.TypeInfo.Text, Shape: &model.Shape{
				Kind:           model.ShapeObject,
				Text:           owner.TypeInfo.Text,
				TypeParameters: typeParamsOf(underlying.TypeInfo.Shape),
			}}
		}
		if owner.Kind != model.KindClass {
			continue
		}
		if owner.Children == nil {
			owner.Children = make(map[string]*model.Node)
		}
		if _, dup := owner.Children[m.node.Name]; dup {
			continue
		}
		m.node.Path = owner.Path + "." + m.node.Name
		owner.Children[m.node.Name] = m.node
	}
}

func typeParamsOf(s *model.Shape) []model.TypeParameter {
	if s == nil {
		return nil
	}
	return s.TypeParameters
}

// computePackagePath derives the import path of the package containing the
// file at filePath, relative to the module root.
func computePackagePath(root, filePath, module string) string {
	relDir, err := filepath.Rel(root, filepath.Dir(filePath))
	if err != nil || relDir == "." || relDir == "" {
		return module
	}
	return module + "/" + filepath.ToSlash(relDir)
}

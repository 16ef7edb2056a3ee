// Package snapshot reads model snapshots serialized as JSON by an external
// extractor.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/emenda-labs/semdiff/core/model"
)

// ErrInvalidSnapshot is returned when the input is not a snapshot document.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

var shapeKinds = []model.ShapeKind{
	model.ShapePrimitive, model.ShapeLiteral, model.ShapeReference, model.ShapeObject,
	model.ShapeFunction, model.ShapeUnion, model.ShapeIntersection, model.ShapeTuple,
	model.ShapeArray, model.ShapeMapped, model.ShapeConditional, model.ShapeTemplateLiteral,
}

// Load reads the snapshot file at path. A path of "-" reads standard input.
func Load(path string) (*model.Snapshot, error) {
	if path == "-" {
		return Decode(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses one snapshot document and validates it. Structural problems
// that still leave a usable model are appended to Snapshot.Errors.
func Decode(r io.Reader) (*model.Snapshot, error) {
	var raw struct {
		Nodes   map[string]*model.Node `json:"nodes"`
		Exports []string               `json:"exports"`
		Errors  []string               `json:"errors"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if raw.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes", ErrInvalidSnapshot)
	}

	s := &model.Snapshot{Nodes: raw.Nodes, Exports: raw.Exports, Errors: raw.Errors}
	s.Errors = append(s.Errors, Validate(s)...)
	return s, nil
}

// Validate reports dangling export paths, nodes stored under a key that
// differs from their path, children stored under a key that differs from
// their name, missing kinds and unknown shape kinds. Nil nodes are dropped.
func Validate(s *model.Snapshot) []string {
	var issues []string
	for _, key := range slices.Sorted(maps.Keys(s.Nodes)) {
		n := s.Nodes[key]
		if n == nil {
			delete(s.Nodes, key)
			issues = append(issues, fmt.Sprintf("node %q is null", key))
			continue
		}
		if n.Path != key {
			issues = append(issues, fmt.Sprintf("node %q has path %q", key, n.Path))
		}
		issues = append(issues, validateNode(key, n)...)
	}
	for _, p := range s.Exports {
		if _, ok := s.Nodes[p]; !ok {
			issues = append(issues, fmt.Sprintf("export %q has no node", p))
		}
	}
	return issues
}

func validateNode(where string, n *model.Node) []string {
	var issues []string
	if n.Kind == "" {
		issues = append(issues, fmt.Sprintf("%s: missing kind", where))
	}
	if n.TypeInfo.Shape != nil {
		issues = append(issues, validateShape(where, n.TypeInfo.Shape, 0)...)
	}
	for _, name := range n.ChildNames() {
		child := n.Children[name]
		at := where + "." + name
		if child == nil {
			delete(n.Children, name)
			issues = append(issues, fmt.Sprintf("%s: null child", at))
			continue
		}
		if child.Name != name {
			issues = append(issues, fmt.Sprintf("%s: child named %q", at, child.Name))
		}
		issues = append(issues, validateNode(at, child)...)
	}
	return issues
}

// maxShapeDepth stops validation of pathological nesting; the comparator
// applies its own depth cap.
const maxShapeDepth = 64

func validateShape(where string, s *model.Shape, depth int) []string {
	if s == nil || depth > maxShapeDepth {
		return nil
	}
	var issues []string
	if s.Kind != "" && !slices.Contains(shapeKinds, s.Kind) {
		issues = append(issues, fmt.Sprintf("%s: unknown shape kind %q", where, s.Kind))
	}
	for _, m := range s.Members {
		issues = append(issues, validateShape(where, m.Type, depth+1)...)
	}
	for _, e := range s.Elements {
		issues = append(issues, validateShape(where, e, depth+1)...)
	}
	for _, sig := range s.Signatures {
		for _, p := range sig.Parameters {
			issues = append(issues, validateShape(where, p.Type, depth+1)...)
		}
		issues = append(issues, validateShape(where, sig.Return, depth+1)...)
	}
	issues = append(issues, validateShape(where, s.Element, depth+1)...)
	return issues
}

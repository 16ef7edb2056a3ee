package model

import (
	"slices"
)

// Snapshot is the structural model of one version of a library's public surface.
type Snapshot struct {
	// Nodes maps each path to its node.
	Nodes map[string]*Node `json:"nodes"`
	// Exports lists the paths reachable from the public surface. A nil list
	// means every node in Nodes is exported.
	Exports []string `json:"exports,omitempty"`
	// Errors holds extraction failures reported by the extractor.
	Errors []string `json:"errors,omitempty"`
}

// ExportedNodes returns the exported nodes sorted by path. Export paths with no
// backing node are skipped. A nil snapshot has no exports.
func (s *Snapshot) ExportedNodes() []*Node {
	if s == nil {
		return nil
	}

	var out []*Node
	if s.Exports == nil {
		out = make([]*Node, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			if n != nil {
				out = append(out, n)
			}
		}
	} else {
		seen := make(map[string]bool, len(s.Exports))
		for _, p := range s.Exports {
			n, ok := s.Nodes[p]
			if !ok || n == nil || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, n)
		}
	}

	slices.SortFunc(out, func(a, b *Node) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of exported nodes.
func (s *Snapshot) Len() int {
	return len(s.ExportedNodes())
}

// Add inserts n under its path and marks it exported.
func (s *Snapshot) Add(n *Node) {
	if s.Nodes == nil {
		s.Nodes = make(map[string]*Node)
	}
	if _, exists := s.Nodes[n.Path]; !exists && s.Exports != nil {
		s.Exports = append(s.Exports, n.Path)
	}
	s.Nodes[n.Path] = n
}

// NewSnapshot returns an empty snapshot with an explicit export list.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Nodes:   make(map[string]*Node),
		Exports: []string{},
	}
}

package compare

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/emenda-labs/semdiff/core/changespec"
	"github.com/emenda-labs/semdiff/core/model"
	"github.com/emenda-labs/semdiff/core/rename"
)

// diffState holds the working state across the diff passes.
type diffState struct {
	opts Options

	pairs   [][2]*model.Node
	removed []*model.Node
	added   []*model.Node
	// kindChanged holds paths present on both sides under different kinds.
	kindChanged map[string]bool

	changes []*changespec.ChangeDescriptor
}

func newDiffState(old, new *model.Snapshot, opts Options) *diffState {
	s := &diffState{opts: opts, kindChanged: make(map[string]bool)}

	oldNodes, newNodes := old.ExportedNodes(), new.ExportedNodes()
	oldByPath := make(map[string]*model.Node, len(oldNodes))
	newByPath := make(map[string]*model.Node, len(newNodes))
	for _, n := range oldNodes {
		oldByPath[n.Path] = n
	}
	for _, n := range newNodes {
		newByPath[n.Path] = n
	}

	for _, o := range oldNodes {
		n, ok := newByPath[o.Path]
		switch {
		case !ok:
			s.removed = append(s.removed, o)
		case o.Kind != n.Kind:
			s.removed = append(s.removed, o)
			s.kindChanged[o.Path] = true
		default:
			s.pairs = append(s.pairs, [2]*model.Node{o, n})
		}
	}
	for _, n := range newNodes {
		if o, ok := oldByPath[n.Path]; !ok || o.Kind != n.Kind {
			s.added = append(s.added, n)
		}
	}
	return s
}

// DiffModules compares the exports of two snapshots and returns one tree of
// change descriptors per difference, ordered by symbol. A nil snapshot has no
// exports. The result does not depend on opts.Workers.
func DiffModules(old, new *model.Snapshot, opts Options) []*changespec.ChangeDescriptor {
	opts = opts.normalized()
	s := newDiffState(old, new, opts)
	opts.Logger.Debug("diffing modules",
		"old", old.Len(), "new", new.Len(),
		"paired", len(s.pairs), "removed", len(s.removed), "added", len(s.added))

	s.compared()
	s.renamed()

	slices.SortStableFunc(s.changes, func(a, b *changespec.ChangeDescriptor) int {
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return s.changes
}

// compared diffs every export present on both sides, in parallel.
func (s *diffState) compared() {
	results := make([][]*changespec.ChangeDescriptor, len(s.pairs))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, p := range s.pairs {
		g.Go(func() error {
			results[i] = s.compareExport(p[0], p[1])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		s.changes = append(s.changes, r...)
	}
}

func (s *diffState) compareExport(old, new *model.Node) []*changespec.ChangeDescriptor {
	w := newWalker(s.opts, old.Path, old.Kind)
	w.compareSymbol(old, new, w.sink)
	w.run()
	list := w.finalize(w.sink.Nested)
	refineOptionality(list)
	return list
}

// renamed resolves the removed and added pools once all pairs are compared.
// Leftovers are reported as plain removals and additions.
func (s *diffState) renamed() {
	canon := newCanonicalizer(s.opts.MaxDepth)
	toCandidates := func(nodes []*model.Node) []rename.Candidate {
		out := make([]rename.Candidate, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, rename.Candidate{
				ID:        n.Path,
				Name:      n.Name,
				Kind:      n.Kind,
				Signature: canon.nodeSignature(n),
				Node:      n,
			})
		}
		return out
	}

	res := rename.NewDetector(s.opts.RenameThreshold).Match(toCandidates(s.removed), toCandidates(s.added))

	for _, p := range res.Pairs {
		s.opts.Logger.Debug("export renamed", "from", p.Removed.ID, "to", p.Added.ID, "score", p.Score)
		s.changes = append(s.changes, s.renameDescriptor(p))
	}
	for _, c := range res.Removed {
		s.changes = append(s.changes, s.presence(c, changespec.ActionRemoved))
	}
	for _, c := range res.Added {
		s.changes = append(s.changes, s.presence(c, changespec.ActionAdded))
	}
}

func (s *diffState) renameDescriptor(p rename.Pair) *changespec.ChangeDescriptor {
	old, new := p.Removed.Node, p.Added.Node
	w := newWalker(s.opts, old.Path, old.Kind)

	d := w.emit(w.sink, changespec.TargetExport, changespec.ActionModified, old.Name)
	d.Aspect = changespec.AspectName
	d.Tags = changespec.NewTags(changespec.TagFieldRenamed)
	d.Old = w.nodeFragment(old, p.Removed.Signature)
	d.New = w.nodeFragment(new, p.Added.Signature)

	w.compareSymbol(old, new, d)
	w.run()
	d.Nested = w.finalize(d.Nested)
	refineOptionality(d.Nested)
	return d
}

func (s *diffState) presence(c rename.Candidate, action changespec.Action) *changespec.ChangeDescriptor {
	d := &changespec.ChangeDescriptor{
		Symbol:     c.ID,
		SymbolKind: c.Kind,
		Name:       c.Name,
		Target:     changespec.TargetExport,
		Action:     action,
	}
	frag := &changespec.Fragment{Name: c.Name, Kind: string(c.Kind), Text: c.Signature, Node: c.Node, Shape: c.Node.TypeInfo.Shape}

	tags := []changespec.Tag{changespec.TagSymbolAdded}
	if action == changespec.ActionRemoved {
		tags[0] = changespec.TagSymbolRemoved
		d.Old = frag
	} else {
		d.New = frag
	}
	if s.kindChanged[c.ID] {
		tags = append(tags, changespec.TagKindChanged)
	}
	d.Tags = changespec.NewTags(tags...)
	return d
}

package layout

import "github.com/hylla/gantt/internal/domain"

// ExpandSet records which node ids are expanded. Methods return new sets.
type ExpandSet map[string]struct{}

// ExpandSetFromTree seeds the set from each node's Expanded flag.
func ExpandSetFromTree(tree domain.Tree) ExpandSet {
	out := ExpandSet{}
	tree.Walk(func(n domain.Node, _ int) bool {
		if n.Expanded {
			out[n.ID] = struct{}{}
		}
		return true
	})
	return out
}

// ExpandAll returns a set with every node of the tree expanded.
func ExpandAll(tree domain.Tree) ExpandSet {
	out := ExpandSet{}
	tree.Walk(func(n domain.Node, _ int) bool {
		out[n.ID] = struct{}{}
		return true
	})
	return out
}

func (s ExpandSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Toggle flips one id.
func (s ExpandSet) Toggle(id string) ExpandSet {
	out := make(ExpandSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	if _, ok := out[id]; ok {
		delete(out, id)
	} else {
		out[id] = struct{}{}
	}
	return out
}

// With returns a copy that also contains id.
func (s ExpandSet) With(id string) ExpandSet {
	if s.Has(id) {
		return s
	}
	return s.Toggle(id)
}

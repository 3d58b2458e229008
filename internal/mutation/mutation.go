// Package mutation implements every tree edit as a pure copy-on-write rewrite.
// Apply never modifies its input; slices along the edited path are copied and all
// other subtrees are shared with the previous snapshot.
package mutation

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hylla/gantt/internal/domain"
)

// ErrNilMutation is returned when Apply receives no mutation.
var ErrNilMutation = errors.New("nil mutation")

// Mutation is one tree edit. Implementations live in this package.
type Mutation interface {
	// Name is a short label used in logs.
	Name() string
	applyTo(tree domain.Tree) (domain.Tree, error)
}

// Apply runs m against tree. On error the original tree is returned unchanged.
func Apply(tree domain.Tree, m Mutation) (domain.Tree, error) {
	if m == nil {
		return tree, ErrNilMutation
	}
	out, err := m.applyTo(tree)
	if err != nil {
		return tree, fmt.Errorf("%s: %w", m.Name(), err)
	}
	return out, nil
}

// Batch applies mutations in order and fails as a unit.
type Batch []Mutation

func (b Batch) Name() string { return "batch" }

func (b Batch) applyTo(tree domain.Tree) (domain.Tree, error) {
	out := tree
	for _, m := range b {
		if m == nil {
			return tree, ErrNilMutation
		}
		next, err := m.applyTo(out)
		if err != nil {
			return tree, fmt.Errorf("%s: %w", m.Name(), err)
		}
		out = next
	}
	return out, nil
}

// updateNode rewrites the node with id through fn, copying only the slices on the path to it.
func updateNode(nodes []domain.Node, id string, fn func(domain.Node) (domain.Node, error)) ([]domain.Node, bool, error) {
	for i, n := range nodes {
		if n.ID == id {
			updated, err := fn(n)
			if err != nil {
				return nodes, true, err
			}
			out := slices.Clone(nodes)
			out[i] = updated
			return out, true, nil
		}
		children, found, err := updateNode(n.Children, id, fn)
		if err != nil {
			return nodes, true, err
		}
		if found {
			n.Children = children
			out := slices.Clone(nodes)
			out[i] = n
			return out, true, nil
		}
	}
	return nodes, false, nil
}

// mapNodes rewrites every node bottom-up through fn.
func mapNodes(nodes []domain.Node, fn func(domain.Node) domain.Node) []domain.Node {
	if nodes == nil {
		return nil
	}
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		n.Children = mapNodes(n.Children, fn)
		out[i] = fn(n)
	}
	return out
}

// removeNode excises the node with id and returns it with its subtree intact.
func removeNode(nodes []domain.Node, id string) ([]domain.Node, domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == id {
			out := make([]domain.Node, 0, len(nodes)-1)
			out = append(out, nodes[:i]...)
			out = append(out, nodes[i+1:]...)
			return out, n, true
		}
		children, removed, ok := removeNode(n.Children, id)
		if ok {
			n.Children = children
			out := slices.Clone(nodes)
			out[i] = n
			return out, removed, true
		}
	}
	return nodes, domain.Node{}, false
}

// insertSibling places node before or after targetID inside whichever sibling list holds it.
func insertSibling(nodes []domain.Node, targetID string, pos domain.Position, node domain.Node) ([]domain.Node, bool) {
	for i, n := range nodes {
		if n.ID == targetID {
			idx := i
			if pos == domain.PositionAfter {
				idx = i + 1
			}
			placed := node.Relevel(n.ParentID, n.Level)
			return slices.Insert(slices.Clone(nodes), idx, placed), true
		}
		children, ok := insertSibling(n.Children, targetID, pos, node)
		if ok {
			n.Children = children
			out := slices.Clone(nodes)
			out[i] = n
			return out, true
		}
	}
	return nodes, false
}

// insertNode places node relative to targetID. An empty target appends a new root.
func insertNode(tree domain.Tree, targetID string, pos domain.Position, node domain.Node) (domain.Tree, error) {
	if targetID == "" {
		return append(slices.Clone(tree), node.Relevel("", 0)), nil
	}
	switch pos {
	case domain.PositionBefore, domain.PositionAfter:
		out, ok := insertSibling(tree, targetID, pos, node)
		if !ok {
			return tree, fmt.Errorf("target %q: %w", targetID, domain.ErrNodeNotFound)
		}
		return out, nil
	case domain.PositionInside:
		out, found, err := updateNode(tree, targetID, func(target domain.Node) (domain.Node, error) {
			if target.IsLeaf {
				return target, domain.ErrLeafTarget
			}
			target.Children = append(slices.Clone(target.Children), node.Relevel(target.ID, target.Level+1))
			return target, nil
		})
		if err != nil {
			return tree, err
		}
		if !found {
			return tree, fmt.Errorf("target %q: %w", targetID, domain.ErrNodeNotFound)
		}
		return out, nil
	default:
		return tree, fmt.Errorf("%q: %w", pos, domain.ErrInvalidPosition)
	}
}

// updateTaskOwner rewrites the leaf that owns taskID.
func updateTaskOwner(tree domain.Tree, taskID string, fn func(domain.Node, int) (domain.Node, error)) (domain.Tree, error) {
	_, nodeID, ok := tree.FindTask(taskID)
	if !ok {
		return tree, fmt.Errorf("task %q: %w", taskID, domain.ErrTaskNotFound)
	}
	out, _, err := updateNode(tree, nodeID, func(n domain.Node) (domain.Node, error) {
		idx := slices.IndexFunc(n.Tasks, func(t domain.Task) bool { return t.ID == taskID })
		return fn(n, idx)
	})
	if err != nil {
		return tree, err
	}
	return out, nil
}

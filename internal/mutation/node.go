package mutation

import (
	"fmt"
	"strings"

	"github.com/hylla/gantt/internal/domain"
)

// AddNode inserts a detached node before, after or inside TargetID. An empty
// TargetID appends the node as a new root.
type AddNode struct {
	TargetID string
	Position domain.Position
	Node     domain.Node
}

func (m AddNode) Name() string { return "add node" }

func (m AddNode) applyTo(tree domain.Tree) (domain.Tree, error) {
	if strings.TrimSpace(m.Node.ID) == "" {
		return tree, domain.ErrInvalidID
	}
	if _, exists := tree.Find(m.Node.ID); exists {
		return tree, fmt.Errorf("node %q exists: %w", m.Node.ID, domain.ErrInvalidID)
	}
	if m.TargetID != "" && !domain.IsValidPosition(m.Position) {
		return tree, domain.ErrInvalidPosition
	}
	return insertNode(tree, m.TargetID, m.Position, m.Node)
}

// DeleteNode removes a node with its whole subtree, tasks and links.
type DeleteNode struct {
	NodeID string
}

func (m DeleteNode) Name() string { return "delete node" }

func (m DeleteNode) applyTo(tree domain.Tree) (domain.Tree, error) {
	out, _, ok := removeNode(tree, m.NodeID)
	if !ok {
		return tree, fmt.Errorf("node %q: %w", m.NodeID, domain.ErrNodeNotFound)
	}
	return out, nil
}

// MoveNode re-parents a node and its subtree relative to TargetID. Tasks and links
// travel with the moved leaf.
type MoveNode struct {
	NodeID   string
	TargetID string
	Position domain.Position
}

func (m MoveNode) Name() string { return "move node" }

func (m MoveNode) applyTo(tree domain.Tree) (domain.Tree, error) {
	if !domain.IsValidPosition(m.Position) {
		return tree, domain.ErrInvalidPosition
	}
	if m.NodeID == m.TargetID || tree.IsDescendant(m.NodeID, m.TargetID) {
		return tree, domain.ErrCyclicMove
	}
	if _, ok := tree.Find(m.TargetID); !ok {
		return tree, fmt.Errorf("target %q: %w", m.TargetID, domain.ErrNodeNotFound)
	}
	without, moved, ok := removeNode(tree, m.NodeID)
	if !ok {
		return tree, fmt.Errorf("node %q: %w", m.NodeID, domain.ErrNodeNotFound)
	}
	return insertNode(without, m.TargetID, m.Position, moved)
}

// RenameNode replaces a node's label with trimmed content.
type RenameNode struct {
	NodeID  string
	Content string
}

func (m RenameNode) Name() string { return "rename node" }

func (m RenameNode) applyTo(tree domain.Tree) (domain.Tree, error) {
	content := strings.TrimSpace(m.Content)
	if content == "" {
		return tree, domain.ErrInvalidContent
	}
	out, found, err := updateNode(tree, m.NodeID, func(n domain.Node) (domain.Node, error) {
		n.Content = content
		return n, nil
	})
	if err != nil {
		return tree, err
	}
	if !found {
		return tree, fmt.Errorf("node %q: %w", m.NodeID, domain.ErrNodeNotFound)
	}
	return out, nil
}

// UpdateImage sets or clears a node's thumbnail URL.
type UpdateImage struct {
	NodeID string
	URL    string
}

func (m UpdateImage) Name() string { return "update image" }

func (m UpdateImage) applyTo(tree domain.Tree) (domain.Tree, error) {
	out, found, err := updateNode(tree, m.NodeID, func(n domain.Node) (domain.Node, error) {
		n.ImageURL = strings.TrimSpace(m.URL)
		return n, nil
	})
	if err != nil {
		return tree, err
	}
	if !found {
		return tree, fmt.Errorf("node %q: %w", m.NodeID, domain.ErrNodeNotFound)
	}
	return out, nil
}

// ShiftNode returns the move that swaps a node with its previous (delta < 0) or
// next (delta > 0) sibling. It reports false at either end of the sibling list.
func ShiftNode(tree domain.Tree, nodeID string, delta int) (Mutation, bool) {
	siblings, idx, ok := tree.Siblings(nodeID)
	if !ok || delta == 0 {
		return nil, false
	}
	switch {
	case delta < 0 && idx > 0:
		return MoveNode{NodeID: nodeID, TargetID: siblings[idx-1].ID, Position: domain.PositionBefore}, true
	case delta > 0 && idx < len(siblings)-1:
		return MoveNode{NodeID: nodeID, TargetID: siblings[idx+1].ID, Position: domain.PositionAfter}, true
	default:
		return nil, false
	}
}

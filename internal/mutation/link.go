package mutation

import (
	"fmt"
	"slices"

	"github.com/hylla/gantt/internal/domain"
)

// AddLink attaches a link to the leaf that owns both endpoints.
type AddLink struct {
	Link domain.TaskLink
}

func (m AddLink) Name() string { return "add link" }

func (m AddLink) applyTo(tree domain.Tree) (domain.Tree, error) {
	link, err := domain.NewTaskLink(domain.TaskLinkInput(m.Link))
	if err != nil {
		return tree, err
	}
	_, srcNode, ok := tree.FindTask(link.SourceTaskID)
	if !ok {
		return tree, fmt.Errorf("source %q: %w", link.SourceTaskID, domain.ErrTaskNotFound)
	}
	_, dstNode, ok := tree.FindTask(link.TargetTaskID)
	if !ok {
		return tree, fmt.Errorf("target %q: %w", link.TargetTaskID, domain.ErrTaskNotFound)
	}
	if srcNode != dstNode {
		return tree, domain.ErrCrossNodeLink
	}
	out, _, err := updateNode(tree, srcNode, func(n domain.Node) (domain.Node, error) {
		for _, existing := range n.Links {
			if existing.ID == link.ID || existing.SameEndpoints(link) {
				return n, domain.ErrDuplicateLink
			}
		}
		n.Links = append(slices.Clone(n.Links), link)
		return n, nil
	})
	if err != nil {
		return tree, err
	}
	return out, nil
}

// DeleteLink removes a link by id.
type DeleteLink struct {
	LinkID string
}

func (m DeleteLink) Name() string { return "delete link" }

func (m DeleteLink) applyTo(tree domain.Tree) (domain.Tree, error) {
	owner := ""
	tree.Walk(func(n domain.Node, _ int) bool {
		if owner != "" {
			return false
		}
		if slices.ContainsFunc(n.Links, func(l domain.TaskLink) bool { return l.ID == m.LinkID }) {
			owner = n.ID
			return false
		}
		return true
	})
	if owner == "" {
		return tree, fmt.Errorf("link %q: %w", m.LinkID, domain.ErrLinkNotFound)
	}
	out, _, err := updateNode(tree, owner, func(n domain.Node) (domain.Node, error) {
		n.Links = slices.DeleteFunc(slices.Clone(n.Links), func(l domain.TaskLink) bool { return l.ID == m.LinkID })
		return n, nil
	})
	if err != nil {
		return tree, err
	}
	return out, nil
}

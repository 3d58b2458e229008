package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Tree is an ordered forest of root nodes. Values are treated as immutable snapshots.
type Tree []Node

// Walk visits nodes in pre-order. Returning false from fn skips the node's subtree.
func (t Tree) Walk(fn func(n Node, depth int) bool) {
	var walk func(nodes []Node, depth int)
	walk = func(nodes []Node, depth int) {
		for _, n := range nodes {
			if fn(n, depth) {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(t, 0)
}

// Find returns the node with the given id.
func (t Tree) Find(id string) (Node, bool) {
	var (
		out   Node
		found bool
	)
	t.Walk(func(n Node, _ int) bool {
		if found {
			return false
		}
		if n.ID == id {
			out, found = n, true
			return false
		}
		return true
	})
	return out, found
}

// FindTask returns the task with the given id and the id of the node that owns it.
func (t Tree) FindTask(taskID string) (Task, string, bool) {
	var (
		out    Task
		nodeID string
		found  bool
	)
	t.Walk(func(n Node, _ int) bool {
		if found {
			return false
		}
		if task, ok := n.TaskByID(taskID); ok {
			out, nodeID, found = task, n.ID, true
			return false
		}
		return true
	})
	return out, nodeID, found
}

// IsDescendant reports whether id lives anywhere below ancestorID.
func (t Tree) IsDescendant(ancestorID, id string) bool {
	ancestor, ok := t.Find(ancestorID)
	if !ok {
		return false
	}
	_, found := Tree(ancestor.Children).Find(id)
	return found
}

// Siblings returns the sibling list containing id and the index of id inside it.
func (t Tree) Siblings(id string) ([]Node, int, bool) {
	for i, n := range t {
		if n.ID == id {
			return t, i, true
		}
	}
	for _, n := range t {
		if sibs, idx, ok := Tree(n.Children).Siblings(id); ok {
			return sibs, idx, true
		}
	}
	return nil, -1, false
}

// Clone deep-copies the forest.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = n.Clone()
	}
	return out
}

// Normalize recomputes parent and level for every node from its position.
func (t Tree) Normalize() Tree {
	out := make(Tree, len(t))
	for i, n := range t {
		out[i] = n.Relevel("", 0)
	}
	return out
}

// CountNodes returns the number of nodes in the forest.
func (t Tree) CountNodes() int {
	count := 0
	t.Walk(func(Node, int) bool {
		count++
		return true
	})
	return count
}

// Filter keeps nodes whose content matches query, every ancestor of a match, and
// leaves whose tasks match (only the matching tasks and the links between them survive).
func (t Tree) Filter(query string) Tree {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return t
	}
	var filter func(nodes []Node) []Node
	filter = func(nodes []Node) []Node {
		var out []Node
		for _, n := range nodes {
			if strings.Contains(strings.ToLower(n.Content), query) {
				out = append(out, n)
				continue
			}
			children := filter(n.Children)
			tasks := matchingTasks(n.Tasks, query)
			if len(children) == 0 && len(tasks) == 0 {
				continue
			}
			n.Children = children
			n.Tasks = tasks
			n.Links = linksWithin(n.Links, tasks)
			out = append(out, n)
		}
		return out
	}
	return Tree(filter(t))
}

func matchingTasks(tasks []Task, query string) []Task {
	var out []Task
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Content), query) ||
			strings.Contains(strings.ToLower(task.Author), query) {
			out = append(out, task)
		}
	}
	return out
}

func linksWithin(links []TaskLink, tasks []Task) []TaskLink {
	ids := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		ids[task.ID] = struct{}{}
	}
	var out []TaskLink
	for _, l := range links {
		_, okSrc := ids[l.SourceTaskID]
		_, okDst := ids[l.TargetTaskID]
		if okSrc && okDst {
			out = append(out, l)
		}
	}
	return out
}

// ValidLinks returns only the links of n whose endpoints resolve inside n.
func (n Node) ValidLinks() []TaskLink {
	var out []TaskLink
	for _, l := range linksWithin(n.Links, n.Tasks) {
		if l.SourceTaskID != l.TargetTaskID {
			out = append(out, l)
		}
	}
	return out
}

// Validate checks every structural invariant and reports all violations at once.
func (t Tree) Validate() error {
	var errs []error
	seen := map[string]struct{}{}
	var check func(nodes []Node, parentID string, level int)
	check = func(nodes []Node, parentID string, level int) {
		for _, n := range nodes {
			if _, dup := seen[n.ID]; dup {
				errs = append(errs, fmt.Errorf("node %q: duplicate id: %w", n.ID, ErrInvalidID))
			}
			seen[n.ID] = struct{}{}
			if n.ParentID != parentID {
				errs = append(errs, fmt.Errorf("node %q: parent %q, want %q: %w", n.ID, n.ParentID, parentID, ErrInvalidPosition))
			}
			if n.Level != level {
				errs = append(errs, fmt.Errorf("node %q: level %d, want %d: %w", n.ID, n.Level, level, ErrInvalidPosition))
			}
			if !n.IsLeaf && len(n.Tasks) > 0 {
				errs = append(errs, fmt.Errorf("node %q: %w", n.ID, ErrNotLeaf))
			}
			for _, task := range n.Tasks {
				if task.StartDay < 0 || task.Duration < 0 || task.Row < 0 {
					errs = append(errs, fmt.Errorf("task %q: negative placement: %w", task.ID, ErrInvalidStartDay))
				}
			}
			for _, l := range n.Links {
				if l.SourceTaskID == l.TargetTaskID {
					errs = append(errs, fmt.Errorf("link %q: %w", l.ID, ErrSelfLink))
					continue
				}
				_, okSrc := n.TaskByID(l.SourceTaskID)
				_, okDst := n.TaskByID(l.TargetTaskID)
				if !okSrc || !okDst {
					errs = append(errs, fmt.Errorf("link %q: %w", l.ID, ErrCrossNodeLink))
				}
			}
			check(n.Children, n.ID, level+1)
		}
	}
	check(t, "", 0)
	return errors.Join(errs...)
}

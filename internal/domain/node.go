package domain

import (
	"slices"
	"strings"
)

// NodeType identifies one outline level kind.
type NodeType string

// NodeType values. A task-group node is the leaf that owns schedulable tasks.
const (
	NodeTypeProject   NodeType = "project"
	NodeTypeSection   NodeType = "section"
	NodeTypeTaskGroup NodeType = "task"
)

var validNodeTypes = []NodeType{NodeTypeProject, NodeTypeSection, NodeTypeTaskGroup}

// Node is one entry of the project outline.
type Node struct {
	ID       string
	Type     NodeType
	Content  string
	Level    int
	Children []Node
	Tasks    []Task
	Links    []TaskLink
	ParentID string
	Color    string
	IsLeaf   bool
	Expanded bool
	ImageURL string
}

type NodeInput struct {
	ID       string
	Type     NodeType
	Content  string
	Color    string
	IsLeaf   bool
	Expanded bool
	ImageURL string
}

// NewNode builds a detached node; Level and ParentID are assigned on insertion.
func NewNode(in NodeInput) (Node, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Content = strings.TrimSpace(in.Content)
	in.Type = NodeType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if in.ID == "" {
		return Node{}, ErrInvalidID
	}
	if in.Content == "" {
		return Node{}, ErrInvalidContent
	}
	if in.Type == "" {
		in.Type = NodeTypeSection
		if in.IsLeaf {
			in.Type = NodeTypeTaskGroup
		}
	}
	if !slices.Contains(validNodeTypes, in.Type) {
		return Node{}, ErrInvalidNodeType
	}
	if in.Type == NodeTypeTaskGroup {
		in.IsLeaf = true
	}
	return Node{
		ID:       in.ID,
		Type:     in.Type,
		Content:  in.Content,
		Color:    strings.TrimSpace(in.Color),
		IsLeaf:   in.IsLeaf,
		Expanded: in.Expanded,
		ImageURL: strings.TrimSpace(in.ImageURL),
	}, nil
}

// HasChildren reports whether the node has nested outline entries.
func (n Node) HasChildren() bool {
	return len(n.Children) > 0
}

// MaxRow returns the highest row index used by the node's tasks, or -1.
func (n Node) MaxRow() int {
	maxRow := -1
	for _, t := range n.Tasks {
		if t.Row > maxRow {
			maxRow = t.Row
		}
	}
	return maxRow
}

// RowCount is the number of rows the node occupies on the canvas.
func (n Node) RowCount() int {
	if !n.IsLeaf {
		return 1
	}
	return max(n.MaxRow()+1, 1)
}

// TaskByID finds one task owned by the node.
func (n Node) TaskByID(id string) (Task, bool) {
	for _, t := range n.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// TaskStats counts completed and total tasks of a leaf.
func (n Node) TaskStats() (done, total int) {
	for _, t := range n.Tasks {
		total++
		if t.Progress >= 100 {
			done++
		}
	}
	return done, total
}

// Clone deep-copies the node and its subtree.
func (n Node) Clone() Node {
	out := n
	out.Tasks = slices.Clone(n.Tasks)
	out.Links = slices.Clone(n.Links)
	if n.Children != nil {
		out.Children = make([]Node, len(n.Children))
		for i, child := range n.Children {
			out.Children[i] = child.Clone()
		}
	}
	return out
}

// Relevel assigns parent and level to the node and cascades consistent levels downward.
func (n Node) Relevel(parentID string, level int) Node {
	n.ParentID = parentID
	n.Level = level
	if len(n.Children) == 0 {
		return n
	}
	children := make([]Node, len(n.Children))
	for i, child := range n.Children {
		children[i] = child.Relevel(n.ID, level+1)
	}
	n.Children = children
	return n
}

// Package layout flattens the outline tree into Y-ordered rows positioned for
// the current viewport.
package layout

import (
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/viewport"
)

// FlatNode is one outline entry annotated with its on-screen placement.
type FlatNode struct {
	Node     domain.Node
	Y        float64
	Height   float64
	Level    int
	Expanded bool
}

// Bottom is the screen Y just below the node.
func (f FlatNode) Bottom() float64 {
	return f.Y + f.Height
}

// RowY returns the screen Y of the top of a task row inside the node.
func (f FlatNode) RowY(row float64, vp viewport.Viewport) float64 {
	return f.Y + row*vp.ScaledRowHeight()
}

// Flatten lays the tree out in pre-order. A node's subtree follows it only when
// the node is expanded. The input tree is never modified.
func Flatten(tree domain.Tree, expanded ExpandSet, vp viewport.Viewport) []FlatNode {
	rowHeight := vp.ScaledRowHeight()
	y := vp.Dims.HeaderHeight + vp.OffsetY
	out := make([]FlatNode, 0, tree.CountNodes())

	var walk func(nodes []domain.Node, level int)
	walk = func(nodes []domain.Node, level int) {
		for _, n := range nodes {
			open := expanded.Has(n.ID)
			height := float64(n.RowCount()) * rowHeight
			out = append(out, FlatNode{
				Node:     n,
				Y:        y,
				Height:   height,
				Level:    level,
				Expanded: open,
			})
			y += height
			if open && n.HasChildren() {
				walk(n.Children, level+1)
			}
		}
	}
	walk(tree, 0)
	return out
}

// ContentHeight returns the combined height of all flattened rows.
func ContentHeight(flat []FlatNode) float64 {
	total := 0.0
	for _, f := range flat {
		total += f.Height
	}
	return total
}

// At returns the flattened node covering screen Y.
func At(flat []FlatNode, y float64) (FlatNode, int, bool) {
	for i, f := range flat {
		if y >= f.Y && y < f.Bottom() {
			return f, i, true
		}
	}
	return FlatNode{}, -1, false
}

// Find returns the flattened entry for a node id.
func Find(flat []FlatNode, id string) (FlatNode, bool) {
	for _, f := range flat {
		if f.Node.ID == id {
			return f, true
		}
	}
	return FlatNode{}, false
}

// DropPosition classifies screen Y inside a node row into before, inside or after
// using the vertical thirds of its first row. Leaf nodes never accept inside drops;
// their middle third resolves to after.
func DropPosition(f FlatNode, y float64, vp viewport.Viewport) domain.Position {
	rowHeight := vp.ScaledRowHeight()
	if rowHeight <= 0 {
		return domain.PositionAfter
	}
	rel := (y - f.Y) / rowHeight
	switch {
	case rel < 1.0/3:
		return domain.PositionBefore
	case rel < 2.0/3 && !f.Node.IsLeaf:
		return domain.PositionInside
	default:
		return domain.PositionAfter
	}
}

// Visible trims flat to the entries that intersect [top, bottom).
func Visible(flat []FlatNode, top, bottom float64) []FlatNode {
	out := make([]FlatNode, 0, len(flat))
	for _, f := range flat {
		if f.Bottom() <= top || f.Y >= bottom {
			continue
		}
		out = append(out, f)
	}
	return out
}

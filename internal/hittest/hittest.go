// Package hittest holds the clickable regions produced by one render pass and
// resolves a pointer position against them in a fixed priority order.
package hittest

import (
	"math"

	"github.com/hylla/gantt/internal/domain"
)

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Intersect returns the overlap of r and o, or the zero Rect when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Shape selects the containment test for an item.
type Shape int

const (
	ShapeBar Shape = iota
	ShapeDiamond
)

// ItemRegion is a drawn task bar or milestone. Rect is the full geometry the drag
// classifier and link anchors read; Clip, when set, is the visible part that
// accepts the pointer.
type ItemRegion struct {
	TaskID string
	NodeID string
	Task   domain.Task
	Rect   Rect
	Clip   Rect
	Shape  Shape
}

// Contains applies the rectangle test for bars and the diamond test for milestones.
func (i ItemRegion) Contains(x, y float64) bool {
	if !i.Clip.Empty() && !i.Clip.Contains(x, y) {
		return false
	}
	if i.Shape != ShapeDiamond {
		return i.Rect.Contains(x, y)
	}
	halfW, halfH := i.Rect.W/2, i.Rect.H/2
	if halfW <= 0 || halfH <= 0 {
		return false
	}
	cx, cy := i.Rect.Center()
	return math.Abs(x-cx)/halfW+math.Abs(y-cy)/halfH <= 1
}

// LinkButton is the circular delete control drawn at a link's midpoint.
type LinkButton struct {
	LinkID string
	NodeID string
	CX, CY float64
	R      float64
}

func (b LinkButton) Contains(x, y float64) bool {
	return math.Hypot(x-b.CX, y-b.CY) <= b.R
}

// NodeRegion is a sidebar region tied to one outline node.
type NodeRegion struct {
	NodeID string
	Rect   Rect
}

// TreeAction is an outline edit triggered from a sidebar button.
type TreeAction string

// TreeAction values.
const (
	TreeActionDelete     TreeAction = "delete"
	TreeActionAddSibling TreeAction = "add_sibling"
	TreeActionAddChild   TreeAction = "add_child"
	TreeActionMoveUp     TreeAction = "move_up"
	TreeActionMoveDown   TreeAction = "move_down"
)

// TreeButton is one edit-mode button next to a node label.
type TreeButton struct {
	NodeID string
	Action TreeAction
	Rect   Rect
}

// TimeScale is the granularity of the time axis header.
type TimeScale string

// TimeScale values.
const (
	ScaleDays  TimeScale = "days"
	ScaleWeeks TimeScale = "weeks"
)

// AxisButton switches the time axis scale.
type AxisButton struct {
	Scale TimeScale
	Rect  Rect
}

// Control is a global mode toggle drawn in the header.
type Control string

// Control values.
const (
	ControlEditTree Control = "edit_tree"
	ControlLinkMode Control = "link_mode"
)

// ControlButton is one header mode toggle.
type ControlButton struct {
	Control Control
	Rect    Rect
}

// Registry collects every clickable region for one frame.
type Registry struct {
	AxisButtons []AxisButton
	Controls    []ControlButton
	TreeButtons []TreeButton
	LinkButtons []LinkButton
	Items       []ItemRegion
	Toggles     []NodeRegion
	Images      []NodeRegion
	Badges      []NodeRegion
	Labels      []NodeRegion
	Rows        []NodeRegion
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Reset clears every category while keeping allocated capacity.
func (r *Registry) Reset() {
	r.AxisButtons = r.AxisButtons[:0]
	r.Controls = r.Controls[:0]
	r.TreeButtons = r.TreeButtons[:0]
	r.LinkButtons = r.LinkButtons[:0]
	r.Items = r.Items[:0]
	r.Toggles = r.Toggles[:0]
	r.Images = r.Images[:0]
	r.Badges = r.Badges[:0]
	r.Labels = r.Labels[:0]
	r.Rows = r.Rows[:0]
}

func (r *Registry) AddAxisButton(b AxisButton) { r.AxisButtons = append(r.AxisButtons, b) }
func (r *Registry) AddControl(b ControlButton) { r.Controls = append(r.Controls, b) }
func (r *Registry) AddTreeButton(b TreeButton) { r.TreeButtons = append(r.TreeButtons, b) }
func (r *Registry) AddLinkButton(b LinkButton) { r.LinkButtons = append(r.LinkButtons, b) }
func (r *Registry) AddItem(i ItemRegion) { r.Items = append(r.Items, i) }
func (r *Registry) AddToggle(n NodeRegion) { r.Toggles = append(r.Toggles, n) }
func (r *Registry) AddImage(n NodeRegion) { r.Images = append(r.Images, n) }
func (r *Registry) AddBadge(n NodeRegion) { r.Badges = append(r.Badges, n) }
func (r *Registry) AddLabel(n NodeRegion) { r.Labels = append(r.Labels, n) }
func (r *Registry) AddRow(n NodeRegion) { r.Rows = append(r.Rows, n) }

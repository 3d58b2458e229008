package render

import (
	"math"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/viewport"
)

// CubicAt evaluates a cubic bezier at t.
func CubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// LinkCurve returns the control polygon of a link between two anchors. End anchors
// leave to the right and start anchors to the left.
func LinkCurve(src, dst Point, srcPoint, dstPoint domain.LinkPoint) (Point, Point, Point, Point) {
	bend := math.Max(40, math.Abs(dst.X-src.X)/2)
	c1 := Point{X: src.X + bend, Y: src.Y}
	if srcPoint == domain.LinkPointStart {
		c1.X = src.X - bend
	}
	c2 := Point{X: dst.X - bend, Y: dst.Y}
	if dstPoint == domain.LinkPointEnd {
		c2.X = dst.X + bend
	}
	return src, c1, c2, dst
}

// Placement is the fractional on-canvas position of a task.
type Placement struct {
	StartDay float64
	Duration float64
	Row      float64
}

func (p Placement) milestone() bool {
	return p.Duration < 0.5
}

// placementOf returns the live preview when the task is being dragged.
func placementOf(t domain.Task, st interaction.State) Placement {
	if st.Drag != nil && st.Drag.Original.ID == t.ID {
		return Placement(st.Drag.Live)
	}
	return Placement(interaction.PreviewOf(t))
}

// itemGeometry returns the hit shape and bounds of a task drawn inside node f.
func itemGeometry(p Placement, f layout.FlatNode, vp viewport.Viewport) (hittest.Shape, hittest.Rect) {
	rowY := f.RowY(p.Row, vp)
	rowH := vp.ScaledRowHeight()
	taskH := vp.ScaledTaskHeight()
	x := vp.DayToScreenX(p.StartDay)
	if p.milestone() {
		half := taskH / 2
		cy := rowY + rowH/2
		return hittest.ShapeDiamond, hittest.Rect{X: x - half, Y: cy - half, W: 2 * half, H: 2 * half}
	}
	return hittest.ShapeBar, hittest.Rect{
		X: x,
		Y: rowY + (rowH-taskH)/2,
		W: p.Duration * vp.ScaledDayWidth(),
		H: taskH,
	}
}

// anchorOf returns the screen point of a task anchor. Milestone anchors are the
// left and right vertices of the diamond.
func anchorOf(r hittest.Rect, point domain.LinkPoint) Point {
	cy := r.Y + r.H/2
	if point == domain.LinkPointStart {
		return Point{X: r.X, Y: cy}
	}
	return Point{X: r.X + r.W, Y: cy}
}

func diamond(r hittest.Rect) []Point {
	cx, cy := r.Center()
	return []Point{{X: cx, Y: r.Y}, {X: r.X + r.W, Y: cy}, {X: cx, Y: r.Y + r.H}, {X: r.X, Y: cy}}
}

func arrowHead(tip Point, from Point, size float64) []Point {
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	left := Point{X: tip.X - size*math.Cos(angle-math.Pi/7), Y: tip.Y - size*math.Sin(angle-math.Pi/7)}
	right := Point{X: tip.X - size*math.Cos(angle+math.Pi/7), Y: tip.Y - size*math.Sin(angle+math.Pi/7)}
	return []Point{tip, left, right}
}

package render

import (
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/status"
)

const linkButtonRadius = 7.0

type drawnItem struct {
	shape hittest.Shape
	rect  hittest.Rect
}

// geometryOf lays out every task of a leaf, honouring the live drag preview.
func (p *pass) geometryOf(f layout.FlatNode) map[string]drawnItem {
	out := make(map[string]drawnItem, len(f.Node.Tasks))
	for _, t := range f.Node.Tasks {
		shape, r := itemGeometry(placementOf(t, p.sc.State), f, p.vp)
		out[t.ID] = drawnItem{shape: shape, rect: r}
	}
	return out
}

func (p *pass) links() {
	if !p.sc.Settings.ShowLinks {
		return
	}
	for _, f := range p.visible {
		if !f.Node.IsLeaf || len(f.Node.Links) == 0 {
			continue
		}
		geo := p.geometryOf(f)
		for _, l := range f.Node.ValidLinks() {
			src, okSrc := geo[l.SourceTaskID]
			dst, okDst := geo[l.TargetTaskID]
			if !okSrc || !okDst {
				continue
			}
			color := p.th.Link
			if p.sc.Settings.ShowColors && ValidColor(l.Color) {
				color = l.Color
			}
			p0, p1, p2, p3 := LinkCurve(anchorOf(src.rect, l.SourcePoint), anchorOf(dst.rect, l.TargetPoint), l.SourcePoint, l.TargetPoint)
			p.c.Bezier(p0, p1, p2, p3, Stroke{Color: color, Width: 1.5})
			p.c.FillPolygon(arrowHead(p3, CubicAt(p0, p1, p2, p3, 0.95), 7), color)

			if !p.sc.State.LinkMode {
				continue
			}
			mid := CubicAt(p0, p1, p2, p3, 0.5)
			if mid.X < p.vp.Dims.SidebarWidth || mid.Y < p.vp.Dims.HeaderHeight {
				continue
			}
			p.c.FillCircle(mid.X, mid.Y, linkButtonRadius, p.th.LinkButton)
			p.c.Text(mid.X, mid.Y, "×", TextStyle{Color: p.th.TaskText, Size: p.th.FontSize, Bold: true, Align: AlignCenter})
			p.hits.AddLinkButton(hittest.LinkButton{LinkID: l.ID, NodeID: f.Node.ID, CX: mid.X, CY: mid.Y, R: linkButtonRadius})
		}
	}
}

func (p *pass) tasks() {
	s := p.sc.Settings
	for _, f := range p.visible {
		if !f.Node.IsLeaf {
			continue
		}
		for _, t := range f.Node.Tasks {
			pl := placementOf(t, p.sc.State)
			dragging := p.sc.State.Drag != nil && p.sc.State.Drag.Original.ID == t.ID
			if pl.milestone() && !s.ShowMilestones && !dragging {
				continue
			}
			shape, r := itemGeometry(pl, f, p.vp)
			if r.X > p.w || r.X+r.W < p.vp.Dims.SidebarWidth {
				continue
			}
			if dragging {
				_, ghost := itemGeometry(Placement(interaction.PreviewOf(t)), f, p.vp)
				p.c.StrokeRect(ghost.X, ghost.Y, ghost.W, ghost.H, Stroke{Color: p.th.Placeholder, Width: 1, Dashed: true})
			}
			p.item(t, f.Node, shape, r)
			p.register(t, f.Node.ID, shape, r)
		}
	}
}

func (p *pass) item(t domain.Task, node domain.Node, shape hittest.Shape, r hittest.Rect) {
	s := p.sc.Settings
	fs := p.th.FontSize
	color := p.taskColor(t, node)
	_, cy := r.Center()
	labelX := r.X + r.W + 6

	if shape == hittest.ShapeDiamond {
		p.c.FillPolygon(diamond(r), color)
		p.c.Text(labelX, cy, t.Content, TextStyle{Color: p.th.SidebarText, Size: fs})
		labelX += textWidth(t.Content, fs) + 6
	} else {
		p.c.FillRect(r.X, r.Y, r.W, r.H, color)
		if s.ShowProgress && t.Progress > 0 {
			p.c.FillRect(r.X, r.Y+r.H*0.7, r.W*float64(min(t.Progress, 100))/100, r.H*0.3, Darken(color, 0.35))
		}
		if label := truncate(t.Content, r.W-12, fs); label != "" {
			p.c.Text(r.X+6, cy, label, TextStyle{Color: p.th.TaskText, Size: fs})
		}
	}

	switch {
	case p.selected(t.ID):
		p.c.StrokeRect(r.X-2, r.Y-2, r.W+4, r.H+4, Stroke{Color: p.th.Selection, Width: 2})
	case p.sc.State.Hover == t.ID:
		p.c.StrokeRect(r.X-1, r.Y-1, r.W+2, r.H+2, Stroke{Color: p.th.Hover, Width: 1})
	}

	small := TextStyle{Color: p.th.Placeholder, Size: fs * 0.8}
	if s.ShowAuthors && t.Author != "" {
		p.c.Text(labelX, cy, "@"+t.Author, small)
	}
	if s.ShowTaskIDs {
		p.c.Text(r.X, r.Y-fs*0.5, "#"+t.ID, small)
	}
	if s.ShowTimestamps {
		p.c.Text(r.X, r.Y+r.H+fs*0.5, dateRange(p.sc.Calendar, t), small)
	}

	if edit := p.sc.State.Edit; edit != nil && edit.Target == interaction.EditTask && edit.ID == t.ID {
		width := max(r.W, textWidth(edit.Value, fs)+16)
		p.c.FillRect(r.X, r.Y, width, r.H, p.th.EditBox)
		p.c.StrokeRect(r.X, r.Y, width, r.H, Stroke{Color: p.th.Selection, Width: 1})
		p.c.Text(r.X+4, cy, edit.Value+"|", TextStyle{Color: p.th.EditText, Size: fs})
	}
}

// register records the item with its visible part inside the timeline area so
// it never shadows sidebar controls or the axis header.
func (p *pass) register(t domain.Task, nodeID string, shape hittest.Shape, r hittest.Rect) {
	view := p.timelineArea()
	if shape == hittest.ShapeDiamond {
		if cx, cy := r.Center(); !view.Contains(cx, cy) {
			return
		}
	}
	clip := r.Intersect(view)
	if clip.Empty() {
		return
	}
	p.hits.AddItem(hittest.ItemRegion{TaskID: t.ID, NodeID: nodeID, Task: t, Rect: r, Clip: clip, Shape: shape})
}

func (p *pass) timelineArea() hittest.Rect {
	d := p.vp.Dims
	return hittest.Rect{X: d.SidebarWidth, Y: d.HeaderHeight, W: p.w - d.SidebarWidth, H: p.h - d.HeaderHeight}
}

// taskColor uses the custom colour when colours are shown, otherwise the status tier.
func (p *pass) taskColor(t domain.Task, node domain.Node) string {
	if p.sc.Settings.ShowColors {
		if ValidColor(t.Color) {
			return t.Color
		}
		if ValidColor(node.Color) {
			return node.Color
		}
	}
	return status.Color(t, p.sc.Calendar, p.sc.Today)
}

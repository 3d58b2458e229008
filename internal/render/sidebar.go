package render

import (
	"fmt"
	"image"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
)

// Sidebar metrics in screen pixels. The sidebar never scales with zoom.
const (
	indentStep   = 16.0
	toggleSize   = 14.0
	buttonSize   = 18.0
	buttonGap    = 2.0
	badgeWidth   = 38.0
	thumbMaxSize = 24.0
)

var treeButtonGlyphs = map[hittest.TreeAction]string{
	hittest.TreeActionDelete:     "x",
	hittest.TreeActionAddSibling: "+",
	hittest.TreeActionAddChild:   ">",
	hittest.TreeActionMoveUp:     "^",
	hittest.TreeActionMoveDown:   "v",
}

func (p *pass) sidebar() {
	sw := p.vp.Dims.SidebarWidth
	top := p.vp.Dims.HeaderHeight
	p.c.FillRect(0, top, sw, p.h-top, p.th.Sidebar)
	p.c.Line(sw, 0, sw, p.h, Stroke{Color: p.th.Grid, Width: 1})

	for _, f := range p.visible {
		p.sidebarRow(f)
	}
	p.dropIndicator()
}

func (p *pass) sidebarRow(f layout.FlatNode) {
	sw := p.vp.Dims.SidebarWidth
	fs := p.th.FontSize
	rowH := min(p.vp.ScaledRowHeight(), f.Height)
	cy := f.Y + rowH/2
	node := f.Node

	p.addNode(p.hits.AddRow, node.ID, hittest.Rect{X: 0, Y: f.Y, W: sw, H: f.Height})
	p.c.Line(0, f.Bottom(), sw, f.Bottom(), Stroke{Color: p.th.Grid, Width: 1})

	x := 8 + float64(f.Level)*indentStep
	if node.HasChildren() {
		r := hittest.Rect{X: x, Y: cy - toggleSize/2, W: toggleSize, H: toggleSize}
		p.c.FillPolygon(toggleGlyph(r, f.Expanded), p.th.SidebarText)
		p.addNode(p.hits.AddToggle, node.ID, r)
	}
	x += toggleSize + 4

	if node.ImageURL != "" {
		size := min(thumbMaxSize, rowH-6)
		r := hittest.Rect{X: x, Y: cy - size/2, W: size, H: size}
		if img, ok := p.image(node.ImageURL); ok {
			p.c.Image(img, r.X, r.Y, r.W, r.H)
		} else {
			p.c.FillRect(r.X, r.Y, r.W, r.H, Lighten(p.th.Placeholder, 0.7))
			p.c.StrokeRect(r.X, r.Y, r.W, r.H, Stroke{Color: p.th.Placeholder, Width: 1})
		}
		p.addNode(p.hits.AddImage, node.ID, r)
		x += size + 6
	}

	if p.sc.Settings.ShowColors && ValidColor(node.Color) {
		p.c.FillCircle(x+4, cy, 4, node.Color)
		x += 12
	}

	right := sw - 8
	if p.sc.State.EditMode {
		right = p.treeButtons(node, right, cy)
	}
	if node.IsLeaf && len(node.Tasks) > 0 {
		done, total := node.TaskStats()
		r := hittest.Rect{X: right - badgeWidth, Y: cy - fs*0.75, W: badgeWidth, H: fs * 1.5}
		p.c.FillRect(r.X, r.Y, r.W, r.H, p.th.Badge)
		p.c.Text(r.X+r.W/2, cy, fmt.Sprintf("%d/%d", done, total), TextStyle{Color: p.th.SidebarText, Size: fs * 0.85, Align: AlignCenter})
		p.addNode(p.hits.AddBadge, node.ID, r)
		right = r.X - 4
	}

	labelW := max(right-x, 0)
	label := hittest.Rect{X: x, Y: f.Y, W: labelW, H: rowH}
	style := TextStyle{Color: p.th.SidebarText, Size: fs, Bold: node.Type == domain.NodeTypeProject}
	if edit := p.sc.State.Edit; edit != nil && edit.Target == interaction.EditNode && edit.ID == node.ID {
		p.c.FillRect(label.X, cy-fs, labelW, fs*2, p.th.EditBox)
		p.c.StrokeRect(label.X, cy-fs, labelW, fs*2, Stroke{Color: p.th.Selection, Width: 1})
		p.c.Text(label.X+4, cy, truncate(edit.Value+"|", labelW-8, fs), TextStyle{Color: p.th.EditText, Size: fs})
	} else {
		p.c.Text(label.X, cy, truncate(node.Content, labelW, fs), style)
	}
	p.addNode(p.hits.AddLabel, node.ID, label)
}

// treeButtons draws the edit-mode buttons right to left and returns the new right edge.
func (p *pass) treeButtons(node domain.Node, right, cy float64) float64 {
	actions := []hittest.TreeAction{
		hittest.TreeActionMoveDown,
		hittest.TreeActionMoveUp,
	}
	if !node.IsLeaf {
		actions = append(actions, hittest.TreeActionAddChild)
	}
	actions = append(actions, hittest.TreeActionAddSibling, hittest.TreeActionDelete)
	for _, a := range actions {
		r := hittest.Rect{X: right - buttonSize, Y: cy - buttonSize/2, W: buttonSize, H: buttonSize}
		fill := p.th.Button
		if a == hittest.TreeActionDelete {
			fill = Lighten(p.th.LinkButton, 0.6)
		}
		p.c.FillRect(r.X, r.Y, r.W, r.H, fill)
		p.c.Text(r.X+r.W/2, cy, treeButtonGlyphs[a], TextStyle{Color: p.th.ButtonText, Size: p.th.FontSize, Bold: true, Align: AlignCenter})
		if clip := r.Intersect(p.sidebarArea()); !clip.Empty() {
			p.hits.AddTreeButton(hittest.TreeButton{NodeID: node.ID, Action: a, Rect: clip})
		}
		right = r.X - buttonGap
	}
	return right - 2
}

// sidebarArea is the outline panel below the header corner.
func (p *pass) sidebarArea() hittest.Rect {
	d := p.vp.Dims
	return hittest.Rect{Y: d.HeaderHeight, W: d.SidebarWidth, H: p.h - d.HeaderHeight}
}

// addNode registers the visible part of r; regions hidden under the header are dropped.
func (p *pass) addNode(add func(hittest.NodeRegion), nodeID string, r hittest.Rect) {
	if clip := r.Intersect(p.sidebarArea()); !clip.Empty() {
		add(hittest.NodeRegion{NodeID: nodeID, Rect: clip})
	}
}

func (p *pass) dropIndicator() {
	d := p.sc.State.TreeDrag
	if d == nil || !d.Moved || d.TargetID == "" {
		return
	}
	target, ok := layout.Find(p.sc.Flat, d.TargetID)
	if !ok {
		return
	}
	sw := p.vp.Dims.SidebarWidth
	stroke := Stroke{Color: p.th.DropIndicator, Width: 2}
	switch d.Position {
	case domain.PositionBefore:
		p.c.Line(0, target.Y, sw, target.Y, stroke)
	case domain.PositionAfter:
		p.c.Line(0, target.Bottom(), sw, target.Bottom(), stroke)
	case domain.PositionInside:
		p.c.StrokeRect(1, target.Y+1, sw-2, min(p.vp.ScaledRowHeight(), target.Height)-2, stroke)
	}
	if source, ok := layout.Find(p.sc.Flat, d.NodeID); ok {
		p.c.FillRect(0, source.Y, 4, source.Height, p.th.DropIndicator)
	}
}

func (p *pass) image(url string) (image.Image, bool) {
	if p.sc.Images == nil {
		return nil, false
	}
	return p.sc.Images.Get(url)
}

func toggleGlyph(r hittest.Rect, expanded bool) []Point {
	if expanded {
		return []Point{{X: r.X + 2, Y: r.Y + 4}, {X: r.X + r.W - 2, Y: r.Y + 4}, {X: r.X + r.W/2, Y: r.Y + r.H - 3}}
	}
	return []Point{{X: r.X + 4, Y: r.Y + 2}, {X: r.X + r.W - 3, Y: r.Y + r.H/2}, {X: r.X + 4, Y: r.Y + r.H - 2}}
}

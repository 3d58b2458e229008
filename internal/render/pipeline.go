package render

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/status"
	"github.com/hylla/gantt/internal/viewport"
)

// Scene is everything one frame needs.
type Scene struct {
	Tree      domain.Tree
	Flat      []layout.FlatNode
	State     interaction.State
	Calendar  calendar.Calendar
	Settings  domain.ViewSettings
	Today     time.Time
	Images    Images
	Theme     Theme
	Highlight map[string]struct{}
}

type pass struct {
	c       Canvas
	sc      Scene
	vp      viewport.Viewport
	th      Theme
	hits    *hittest.Registry
	w, h    float64
	visible []layout.FlatNode
}

// Draw paints the frame in fixed pass order and returns the regions it registered:
// background, grid and weekends, today line, node bands, links, tasks, link
// preview, sidebar, axis header, hover tooltip.
func Draw(c Canvas, sc Scene) *hittest.Registry {
	if sc.Theme.FontSize <= 0 {
		sc.Theme = DefaultTheme()
	}
	p := &pass{c: c, sc: sc, vp: sc.State.Viewport, th: sc.Theme, hits: hittest.New()}
	p.w, p.h = c.Size()
	p.visible = layout.Visible(sc.Flat, p.vp.Dims.HeaderHeight, p.h)

	c.Clear(p.th.Background)
	p.grid()
	p.todayLine()
	p.nodeBands()
	p.links()
	p.tasks()
	p.linkPreview()
	p.sidebar()
	p.header()
	p.tooltip()
	return p.hits
}

func (p *pass) dayRange() (int, int) {
	first, last := p.vp.VisibleDays(p.w)
	return max(first, 0), min(last, p.sc.Calendar.TotalDays)
}

func (p *pass) grid() {
	top := p.vp.Dims.HeaderHeight
	dw := p.vp.ScaledDayWidth()
	first, last := p.dayRange()
	s := p.sc.Settings
	for d := first; d < last; d++ {
		x := p.vp.DayToScreenX(float64(d))
		if s.ShowWeekends && p.sc.Calendar.IsWeekend(d) {
			p.c.FillRect(x, top, dw, p.h-top, p.th.Weekend)
		}
		if s.ShowGrid && (p.sc.State.Scale != hittest.ScaleWeeks || p.sc.Calendar.WeekStart(d) == d) {
			p.c.Line(x, top, x, p.h, Stroke{Color: p.th.Grid, Width: 1})
		}
	}
	if !s.ShowGrid {
		return
	}
	for _, f := range p.visible {
		p.c.Line(p.vp.Dims.SidebarWidth, f.Bottom(), p.w, f.Bottom(), Stroke{Color: p.th.Grid, Width: 1})
	}
}

func (p *pass) todayLine() {
	if !p.sc.Settings.ShowTodayLine || p.sc.Today.IsZero() {
		return
	}
	day := p.sc.Calendar.DayOf(p.sc.Today)
	if day < 0 || day >= p.sc.Calendar.TotalDays {
		return
	}
	x := p.vp.DayToScreenX(float64(day) + 0.5)
	p.c.Line(x, p.vp.Dims.HeaderHeight, x, p.h, Stroke{Color: p.th.Today, Width: 2})
}

func (p *pass) nodeBands() {
	left := p.vp.Dims.SidebarWidth
	for _, f := range p.visible {
		base := p.th.Grid
		if p.sc.Settings.ShowColors && ValidColor(f.Node.Color) {
			base = f.Node.Color
		}
		amount := 0.93
		if !f.Node.IsLeaf {
			amount = 0.82
		}
		p.c.FillRect(left, f.Y, p.w-left, f.Height, Blend(base, p.th.Background, amount))
	}
}

func (p *pass) linkPreview() {
	arm := p.sc.State.Link
	if arm == nil {
		return
	}
	anchor := Point{X: arm.AnchorX, Y: arm.AnchorY}
	if f, ok := layout.Find(p.sc.Flat, arm.NodeID); ok {
		if t, ok := f.Node.TaskByID(arm.SourceTaskID); ok {
			_, r := itemGeometry(placementOf(t, p.sc.State), f, p.vp)
			anchor = anchorOf(r, arm.SourcePoint)
		}
	}
	stroke := Stroke{Color: p.th.LinkPreview, Width: 2, Dashed: true}
	p.c.Line(anchor.X, anchor.Y, p.sc.State.CursorX, p.sc.State.CursorY, stroke)
	p.c.FillCircle(anchor.X, anchor.Y, 4, p.th.LinkPreview)
}

func (p *pass) tooltip() {
	st := p.sc.State
	if !p.sc.Settings.ShowHoverTask || st.Hover == "" || st.Busy() || st.Edit != nil {
		return
	}
	t, _, ok := p.sc.Tree.FindTask(st.Hover)
	if !ok {
		return
	}
	lines := []string{t.Content, dateRange(p.sc.Calendar, t)}
	tier := status.Classify(t, p.sc.Calendar, p.sc.Today)
	lines = append(lines, "Progress "+strconv.Itoa(t.Progress)+"% · "+string(tier))
	if t.Author != "" {
		lines = append(lines, "@"+t.Author)
	}

	fs := p.th.FontSize
	width := 0.0
	for _, l := range lines {
		width = max(width, textWidth(l, fs))
	}
	width += 16
	lineH := fs + 4
	height := float64(len(lines))*lineH + 10
	x := min(st.CursorX+14, p.w-width-4)
	y := min(st.CursorY+14, p.h-height-4)
	p.c.FillRect(x, y, width, height, p.th.Tooltip)
	for i, l := range lines {
		p.c.Text(x+8, y+5+lineH*(float64(i)+0.5), l, TextStyle{Color: p.th.TooltipText, Size: fs, Bold: i == 0})
	}
}

func (p *pass) selected(taskID string) bool {
	if p.sc.State.Selection.Has(taskID) {
		return true
	}
	_, ok := p.sc.Highlight[taskID]
	return ok
}

func dateRange(cal calendar.Calendar, t domain.Task) string {
	start := cal.DayToDate(t.StartDay).Format("Jan 2")
	if t.IsMilestone() {
		return "Milestone " + start
	}
	end := cal.DayToDate(t.EndDay() - 1).Format("Jan 2")
	return start + " - " + end + " (" + strconv.Itoa(t.Duration) + "d)"
}

// textWidth estimates the advance of a monospace run.
func textWidth(s string, size float64) float64 {
	return float64(utf8.RuneCountInString(s)) * size * 0.6
}

// truncate shortens s with an ellipsis so it fits maxWidth.
func truncate(s string, maxWidth, size float64) string {
	if textWidth(s, size) <= maxWidth {
		return s
	}
	limit := int(maxWidth/(size*0.6)) - 1
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	return string(runes[:min(limit, len(runes))]) + "…"
}

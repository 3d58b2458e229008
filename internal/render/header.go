package render

import (
	"fmt"
	"strconv"

	"github.com/hylla/gantt/internal/hittest"
)

// Header button placement inside the fixed top-left corner.
var (
	daysButton  = hittest.Rect{X: 8, Y: 6, W: 52, H: 20}
	weeksButton = hittest.Rect{X: 64, Y: 6, W: 56, H: 20}
	editButton  = hittest.Rect{X: 8, Y: 32, W: 80, H: 20}
	linkButton  = hittest.Rect{X: 92, Y: 32, W: 52, H: 20}
)

func (p *pass) header() {
	hh := p.vp.Dims.HeaderHeight
	sw := p.vp.Dims.SidebarWidth
	p.c.FillRect(0, 0, p.w, hh, p.th.Header)
	p.c.Line(0, hh, p.w, hh, Stroke{Color: p.th.Grid, Width: 1})
	p.axis()

	p.c.FillRect(0, 0, sw, hh, p.th.Header)
	p.c.Line(sw, 0, sw, hh, Stroke{Color: p.th.Grid, Width: 1})
	st := p.sc.State
	p.button(daysButton, "Days", st.Scale != hittest.ScaleWeeks)
	p.button(weeksButton, "Weeks", st.Scale == hittest.ScaleWeeks)
	p.button(editButton, "Edit Tree", st.EditMode)
	p.button(linkButton, "Link", st.LinkMode)
	p.hits.AddAxisButton(hittest.AxisButton{Scale: hittest.ScaleDays, Rect: daysButton})
	p.hits.AddAxisButton(hittest.AxisButton{Scale: hittest.ScaleWeeks, Rect: weeksButton})
	p.hits.AddControl(hittest.ControlButton{Control: hittest.ControlEditTree, Rect: editButton})
	p.hits.AddControl(hittest.ControlButton{Control: hittest.ControlLinkMode, Rect: linkButton})
}

// axis draws month labels on the upper half and day or week ticks on the lower half.
func (p *pass) axis() {
	hh := p.vp.Dims.HeaderHeight
	sw := p.vp.Dims.SidebarWidth
	half := hh / 2
	dw := p.vp.ScaledDayWidth()
	fs := p.th.FontSize
	cal := p.sc.Calendar
	weeks := p.sc.State.Scale == hittest.ScaleWeeks
	tick := Stroke{Color: p.th.Grid, Width: 1}

	first, last := p.dayRange()
	labelled := false
	for d := first; d < last; d++ {
		x := p.vp.DayToScreenX(float64(d))
		if x+dw < sw {
			continue
		}
		date := cal.DayToDate(d)
		if date.Day() == 1 || !labelled {
			p.c.Text(max(x, sw)+4, half/2, date.Format("Jan 2006"), TextStyle{Color: p.th.HeaderText, Size: fs, Bold: true})
			if date.Day() == 1 {
				p.c.Line(x, 0, x, half, tick)
			}
			labelled = true
		}
		switch {
		case weeks && cal.WeekStart(d) == d:
			_, wk := date.ISOWeek()
			p.c.Line(x, half, x, hh, tick)
			p.c.Text(x+4, half+half/2, fmt.Sprintf("W%02d", wk), TextStyle{Color: p.th.HeaderText, Size: fs * 0.85})
		case !weeks:
			p.c.Line(x, half, x, hh, tick)
			if dw >= fs*1.4 {
				color := p.th.HeaderText
				if cal.IsWeekend(d) {
					color = p.th.Placeholder
				}
				p.c.Text(x+dw/2, half+half/2, strconv.Itoa(date.Day()), TextStyle{Color: color, Size: fs * 0.85, Align: AlignCenter})
			}
		}
	}
}

func (p *pass) button(r hittest.Rect, label string, active bool) {
	fill, text := p.th.Button, p.th.ButtonText
	if active {
		fill, text = p.th.ButtonActive, p.th.TaskText
	}
	p.c.FillRect(r.X, r.Y, r.W, r.H, fill)
	cx, cy := r.Center()
	p.c.Text(cx, cy, label, TextStyle{Color: text, Size: p.th.FontSize, Align: AlignCenter})
}

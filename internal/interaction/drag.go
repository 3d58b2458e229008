package interaction

import (
	"math"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/viewport"
)

// ClassifyDrag picks the drag mode from where the pointer pressed the item.
// Bars resize within min(ResizeZone, ResizeShare*width) of either edge. A
// milestone has no span to shrink, so only its right part stretches it.
func ClassifyDrag(item hittest.ItemRegion, x float64) DragMode {
	r := item.Rect
	if item.Shape == hittest.ShapeDiamond {
		if x >= r.X+r.W*MilestoneZone {
			return DragResizeRight
		}
		return DragMove
	}
	zone := math.Min(ResizeZone, r.W*ResizeShare)
	switch {
	case x <= r.X+zone:
		return DragResizeLeft
	case x >= r.X+r.W-zone:
		return DragResizeRight
	default:
		return DragMove
	}
}

// PreviewOf returns the unmodified preview of a task.
func PreviewOf(t domain.Task) Preview {
	return Preview{StartDay: float64(t.StartDay), Duration: float64(t.Duration), Row: float64(t.Row)}
}

// LivePreview converts the pointer delta of a drag into a fractional placement.
func LivePreview(d TaskDrag, x, y float64, vp viewport.Viewport, totalDays int) Preview {
	p := PreviewOf(d.Original)
	dayWidth, rowHeight := vp.ScaledDayWidth(), vp.ScaledRowHeight()
	if dayWidth <= 0 || rowHeight <= 0 {
		return p
	}
	dDays := (x - d.StartX) / dayWidth
	horizon := float64(max(totalDays, 1))
	end := p.StartDay + p.Duration

	switch d.Mode {
	case DragMove:
		p.StartDay = clampFloat(p.StartDay+dDays, 0, horizon-1)
		p.Row = math.Max(p.Row+(y-d.StartY)/rowHeight, 0)
	case DragResizeLeft:
		// duration >= 1 and start <= original end
		p.StartDay = clampFloat(p.StartDay+dDays, 0, math.Max(end-1, 0))
		p.Duration = end - p.StartDay
	case DragResizeRight:
		p.Duration = clampFloat(p.Duration+dDays, 0, horizon-p.StartDay)
	}
	return p
}

// Commit turns the final preview into the task stored in the tree. The start is
// rounded, clamped and snapped to the next workday. A left resize keeps the
// original end. Other drags re-expand the span so it covers the original workday
// count plus any right resize delta, so crossing a weekend never eats working
// time. Commit reports false when nothing changed.
func Commit(d TaskDrag, cal calendar.Calendar) (domain.Task, bool) {
	orig := d.Original
	start := cal.ClampDay(int(math.Round(d.Live.StartDay)))
	duration := max(int(math.Round(d.Live.Duration)), 0)
	row := max(int(math.Round(d.Live.Row)), 0)
	if start == orig.StartDay && duration == orig.Duration && row == orig.Row {
		return orig, false
	}

	out := orig
	out.Row = row
	out.StartDay = cal.NextWorkDay(start)
	if duration == 0 {
		out.Duration = 0
		return out, out != orig
	}

	if d.Mode == DragResizeLeft && orig.Duration > 0 {
		out.Duration = max(orig.EndDay()-out.StartDay, 1)
		return out, out != orig
	}

	workdays := cal.WorkdaysIn(orig.StartDay, orig.Duration)
	if d.Mode == DragResizeRight {
		workdays += duration - orig.Duration
	}
	if orig.Duration == 0 {
		workdays = duration
	}
	out.Duration = max(cal.AdjustedDuration(out.StartDay, max(workdays, 1)), 1)
	return out, out != orig
}

// NearestAnchor returns whichever task anchor is closer to x, with its screen point.
func NearestAnchor(item hittest.ItemRegion, x float64) (domain.LinkPoint, float64, float64) {
	r := item.Rect
	cy := r.Y + r.H/2
	if item.Shape == hittest.ShapeDiamond {
		cx := r.X + r.W/2
		if x < cx {
			return domain.LinkPointStart, cx, cy
		}
		return domain.LinkPointEnd, cx, cy
	}
	if x-r.X <= r.X+r.W-x {
		return domain.LinkPointStart, r.X, cy
	}
	return domain.LinkPointEnd, r.X + r.W, cy
}

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Min(math.Max(v, lo), hi)
}

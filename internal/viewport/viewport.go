// Package viewport holds the pan/zoom transform between world space (days and
// rows at zoom 1) and screen pixels.
package viewport

import "math"

// Wheel zoom factors applied per tick.
const (
	ZoomOutFactor = 0.85
	ZoomInFactor  = 1.15
)

// Default zoom bounds.
const (
	DefaultMinZoom = 0.1
	DefaultMaxZoom = 5.0
)

// Dimensions are the unscaled canvas metrics. SidebarWidth and HeaderHeight
// are fixed panels that never scale or pan.
type Dimensions struct {
	DayWidth     float64
	RowHeight    float64
	TaskHeight   float64
	HeaderHeight float64
	SidebarWidth float64
}

// DefaultDimensions returns the stock canvas metrics.
func DefaultDimensions() Dimensions {
	return Dimensions{
		DayWidth:     40,
		RowHeight:    40,
		TaskHeight:   24,
		HeaderHeight: 60,
		SidebarWidth: 300,
	}
}

// Viewport is the mutable pan/zoom state of one mounted canvas.
type Viewport struct {
	Zoom     float64
	OffsetX  float64
	OffsetY  float64
	Dragging bool

	MinZoom float64
	MaxZoom float64
	Dims    Dimensions
}

// New returns a viewport at zoom 1 with no pan offset.
func New(dims Dimensions, minZoom, maxZoom float64) Viewport {
	if minZoom <= 0 {
		minZoom = DefaultMinZoom
	}
	if maxZoom < minZoom {
		maxZoom = math.Max(DefaultMaxZoom, minZoom)
	}
	v := Viewport{Zoom: 1, MinZoom: minZoom, MaxZoom: maxZoom, Dims: dims}
	v.Zoom = v.clampZoom(1)
	return v
}

func (v Viewport) clampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return v.MinZoom
	}
	return math.Min(math.Max(z, v.MinZoom), v.MaxZoom)
}

// WorldToScreen maps a world point to screen pixels.
func (v Viewport) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*v.Zoom + v.OffsetX + v.Dims.SidebarWidth,
		wy*v.Zoom + v.OffsetY + v.Dims.HeaderHeight
}

// ScreenToWorld is the inverse of WorldToScreen.
func (v Viewport) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - v.Dims.SidebarWidth - v.OffsetX) / v.Zoom,
		(sy - v.Dims.HeaderHeight - v.OffsetY) / v.Zoom
}

// Pan translates the offsets by a raw pixel delta.
func (v Viewport) Pan(dx, dy float64) Viewport {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}

// SetZoom clamps z and keeps the current offsets.
func (v Viewport) SetZoom(z float64) Viewport {
	v.Zoom = v.clampZoom(z)
	return v
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// screen point (sx, sy) stationary.
func (v Viewport) ZoomAt(sx, sy, factor float64) Viewport {
	wx, wy := v.ScreenToWorld(sx, sy)
	v.Zoom = v.clampZoom(v.Zoom * factor)
	v.OffsetX = sx - v.Dims.SidebarWidth - wx*v.Zoom
	v.OffsetY = sy - v.Dims.HeaderHeight - wy*v.Zoom
	return v
}

// WheelFactor returns the zoom factor for one wheel tick of sign deltaY.
func WheelFactor(deltaY float64) float64 {
	if deltaY > 0 {
		return ZoomOutFactor
	}
	return ZoomInFactor
}

// ScaledDayWidth is the on-screen width of one day.
func (v Viewport) ScaledDayWidth() float64 {
	return v.Dims.DayWidth * v.Zoom
}

// ScaledRowHeight is the on-screen height of one task row.
func (v Viewport) ScaledRowHeight() float64 {
	return v.Dims.RowHeight * v.Zoom
}

// ScaledTaskHeight is the on-screen bar height, capped to 80% of a row.
func (v Viewport) ScaledTaskHeight() float64 {
	return math.Min(v.Dims.TaskHeight*v.Zoom, v.ScaledRowHeight()*0.8)
}

// DayToScreenX returns the screen X of the left edge of a (possibly fractional) day.
func (v Viewport) DayToScreenX(day float64) float64 {
	x, _ := v.WorldToScreen(day*v.Dims.DayWidth, 0)
	return x
}

// ScreenXToDay returns the fractional day under screen X.
func (v Viewport) ScreenXToDay(sx float64) float64 {
	wx, _ := v.ScreenToWorld(sx, 0)
	return wx / v.Dims.DayWidth
}

// VisibleDays returns the first and last day columns intersecting a canvas of the given width.
func (v Viewport) VisibleDays(canvasWidth float64) (int, int) {
	first := int(math.Floor(v.ScreenXToDay(v.Dims.SidebarWidth)))
	last := int(math.Ceil(v.ScreenXToDay(canvasWidth)))
	return first, last
}

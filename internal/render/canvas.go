// Package render paints one frame of the timeline onto a Canvas and rebuilds the
// hit-test registry for the next pointer event.
package render

import "image"

// Point is a screen-space coordinate.
type Point struct {
	X, Y float64
}

// Stroke describes a line style. Colors are hex strings.
type Stroke struct {
	Color  string
	Width  float64
	Dashed bool
}

// Align is the horizontal anchor of a text run.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextStyle describes one text run. Y is the vertical middle of the text.
type TextStyle struct {
	Color string
	Size  float64
	Bold  bool
	Align Align
}

// Canvas is the drawing surface used by the pipeline. Implementations exist for
// PNG (gg), SVG and the terminal cell grid.
type Canvas interface {
	Size() (float64, float64)
	Clear(color string)
	FillRect(x, y, w, h float64, color string)
	StrokeRect(x, y, w, h float64, s Stroke)
	Line(x1, y1, x2, y2 float64, s Stroke)
	Bezier(p0, p1, p2, p3 Point, s Stroke)
	FillPolygon(pts []Point, color string)
	FillCircle(cx, cy, r float64, color string)
	Text(x, y float64, text string, st TextStyle)
	Image(img image.Image, x, y, w, h float64)
}

// Images resolves node thumbnails. A miss draws the placeholder.
type Images interface {
	Get(url string) (image.Image, bool)
}

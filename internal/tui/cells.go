package tui

import (
	"image"
	"math"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/hylla/gantt/internal/render"
)

// Terminal cells are mapped onto canvas pixels at a fixed ratio.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// cell is one terminal character with its colours.
type cell struct {
	ch   rune
	fg   string
	bg   string
	bold bool
}

// cellCanvas rasterises the render pipeline onto a terminal grid.
type cellCanvas struct {
	cols  int
	rows  int
	cells []cell
}

var _ render.Canvas = (*cellCanvas)(nil)

func newCellCanvas(cols, rows int) *cellCanvas {
	cols, rows = max(cols, 1), max(rows, 1)
	c := &cellCanvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	c.Clear("#000000")
	return c
}

// cellCenter returns the canvas point under the middle of a terminal cell.
func cellCenter(col, row int) (float64, float64) {
	return float64(col)*cellWidth + cellWidth/2, float64(row)*cellHeight + cellHeight/2
}

func (c *cellCanvas) Size() (float64, float64) {
	return float64(c.cols) * cellWidth, float64(c.rows) * cellHeight
}

func (c *cellCanvas) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return nil
	}
	return &c.cells[row*c.cols+col]
}

func (c *cellCanvas) Clear(color string) {
	for i := range c.cells {
		c.cells[i] = cell{ch: ' ', fg: color, bg: color}
	}
}

// FillRect paints every cell whose centre lies inside the rectangle. Glyphs are erased.
func (c *cellCanvas) FillRect(x, y, w, h float64, color string) {
	c0, r0, c1, r1 := c.span(x, y, w, h)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if cl := c.at(col, row); cl != nil {
				cl.ch, cl.bg, cl.bold = ' ', color, false
			}
		}
	}
}

// span converts a pixel rectangle into the inclusive cell range of centres it covers.
func (c *cellCanvas) span(x, y, w, h float64) (int, int, int, int) {
	c0 := int(math.Ceil((x - cellWidth/2) / cellWidth))
	r0 := int(math.Ceil((y - cellHeight/2) / cellHeight))
	c1 := int(math.Floor((x + w - cellWidth/2) / cellWidth))
	r1 := int(math.Floor((y + h - cellHeight/2) / cellHeight))
	if x+w-cellWidth/2 == float64(c1)*cellWidth {
		c1--
	}
	if y+h-cellHeight/2 == float64(r1)*cellHeight {
		r1--
	}
	return max(c0, 0), max(r0, 0), min(c1, c.cols-1), min(r1, c.rows-1)
}

func (c *cellCanvas) StrokeRect(x, y, w, h float64, s render.Stroke) {
	c.Line(x, y, x+w, y, s)
	c.Line(x, y+h, x+w, y+h, s)
	c.Line(x, y, x, y+h, s)
	c.Line(x+w, y, x+w, y+h, s)
}

// Line walks the segment one cell at a time and draws a box glyph in the stroke colour.
func (c *cellCanvas) Line(x1, y1, x2, y2 float64, s render.Stroke) {
	dx, dy := x2-x1, y2-y1
	glyph := '·'
	switch {
	case math.Abs(dy) < cellHeight/4:
		glyph = '─'
		if s.Dashed {
			glyph = '┄'
		}
	case math.Abs(dx) < cellWidth/4:
		glyph = '│'
		if s.Dashed {
			glyph = '┆'
		}
	}
	steps := int(math.Max(math.Abs(dx)/cellWidth, math.Abs(dy)/cellHeight)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.plot(x1+dx*t, y1+dy*t, glyph, s.Color)
	}
}

func (c *cellCanvas) plot(x, y float64, glyph rune, color string) {
	cl := c.at(int(math.Floor(x/cellWidth)), int(math.Floor(y/cellHeight)))
	if cl == nil {
		return
	}
	cl.ch, cl.fg = glyph, color
}

func (c *cellCanvas) Bezier(p0, p1, p2, p3 render.Point, s render.Stroke) {
	const samples = 32
	for i := 0; i <= samples; i++ {
		t := float64(i) / samples
		u := 1 - t
		x := u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X
		y := u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y
		c.plot(x, y, '•', s.Color)
	}
}

// FillPolygon fills cells whose centre is inside pts. Shapes smaller than a cell
// collapse to a diamond glyph at their centroid.
func (c *cellCanvas) FillPolygon(pts []render.Point, color string) {
	if len(pts) < 3 {
		return
	}
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	var cx, cy float64
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		cx += p.X
		cy += p.Y
	}
	filled := false
	c0, r0, c1, r1 := c.span(minX, minY, maxX-minX, maxY-minY)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			px, py := cellCenter(col, row)
			if !insidePolygon(pts, px, py) {
				continue
			}
			if cl := c.at(col, row); cl != nil {
				cl.ch, cl.bg = ' ', color
				filled = true
			}
		}
	}
	if !filled {
		n := float64(len(pts))
		c.plot(cx/n, cy/n, '◆', color)
	}
}

// insidePolygon is the even-odd ray casting test.
func insidePolygon(pts []render.Point, x, y float64) bool {
	in := false
	for i, j := 0, len(pts)-1; i < len(pts); j, i = i, i+1 {
		a, b := pts[i], pts[j]
		if (a.Y > y) != (b.Y > y) && x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

func (c *cellCanvas) FillCircle(cx, cy, r float64, color string) {
	if r < cellWidth {
		c.plot(cx, cy, '●', color)
		return
	}
	c0, r0, c1, r1 := c.span(cx-r, cy-r, 2*r, 2*r)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			px, py := cellCenter(col, row)
			if math.Hypot(px-cx, py-cy) <= r {
				if cl := c.at(col, row); cl != nil {
					cl.ch, cl.bg = ' ', color
				}
			}
		}
	}
}

// Text writes runes left to right on the row holding y. The cell background is kept.
func (c *cellCanvas) Text(x, y float64, text string, st render.TextStyle) {
	runes := []rune(text)
	row := int(math.Floor(y / cellHeight))
	col := int(math.Floor(x / cellWidth))
	switch st.Align {
	case render.AlignCenter:
		col -= len(runes) / 2
	case render.AlignRight:
		col -= len(runes)
	}
	for i, r := range runes {
		if cl := c.at(col+i, row); cl != nil {
			cl.ch, cl.fg, cl.bold = r, st.Color, st.Bold
		}
	}
}

// Image samples the source under each covered cell centre.
func (c *cellCanvas) Image(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	b := img.Bounds()
	c0, r0, c1, r1 := c.span(x, y, w, h)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			px, py := cellCenter(col, row)
			sx := b.Min.X + int((px-x)/w*float64(b.Dx()))
			sy := b.Min.Y + int((py-y)/h*float64(b.Dy()))
			r, g, bl, _ := img.At(sx, sy).RGBA()
			if cl := c.at(col, row); cl != nil {
				cl.ch, cl.bg = ' ', hexColor(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			}
		}
	}
}

func hexColor(r, g, b uint8) string {
	const digits = "0123456789abcdef"
	return string([]byte{'#',
		digits[r>>4], digits[r&0x0f],
		digits[g>>4], digits[g&0x0f],
		digits[b>>4], digits[b&0x0f],
	})
}

// Plain returns the glyphs only, one line per row.
func (c *cellCanvas) Plain() string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < c.cols; col++ {
			b.WriteRune(c.cells[row*c.cols+col].ch)
		}
	}
	return b.String()
}

// String renders the grid with lipgloss, batching runs of identically styled cells.
func (c *cellCanvas) String() string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.cols : (row+1)*c.cols]
		start := 0
		for i := 1; i <= len(line); i++ {
			if i < len(line) && sameStyle(line[i], line[start]) {
				continue
			}
			b.WriteString(styleFor(line[start]).Render(runesOf(line[start:i])))
			start = i
		}
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.bold == b.bold
}

func styleFor(cl cell) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(cl.fg)).
		Background(lipgloss.Color(cl.bg)).
		Bold(cl.bold)
}

func runesOf(cells []cell) string {
	out := make([]rune, len(cells))
	for i, cl := range cells {
		out[i] = cl.ch
	}
	return string(out)
}

package render

import (
	"fmt"
	"image"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
)

type faceKey struct {
	size float64
	bold bool
}

// PNGCanvas is a raster Canvas backed by gg.
type PNGCanvas struct {
	dc      *gg.Context
	regular *truetype.Font
	bold    *truetype.Font
	faces   map[faceKey]font.Face
}

// NewPNGCanvas allocates a width x height raster canvas with the Go mono fonts loaded.
func NewPNGCanvas(width, height int) (*PNGCanvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	regular, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	bold, err := truetype.Parse(gomonobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &PNGCanvas{
		dc:      gg.NewContext(width, height),
		regular: regular,
		bold:    bold,
		faces:   map[faceKey]font.Face{},
	}, nil
}

func (c *PNGCanvas) Size() (float64, float64) {
	return float64(c.dc.Width()), float64(c.dc.Height())
}

func (c *PNGCanvas) Clear(color string) {
	c.dc.SetHexColor(color)
	c.dc.Clear()
}

func (c *PNGCanvas) FillRect(x, y, w, h float64, color string) {
	if w <= 0 || h <= 0 {
		return
	}
	c.dc.SetHexColor(color)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Fill()
}

func (c *PNGCanvas) StrokeRect(x, y, w, h float64, s Stroke) {
	c.applyStroke(s)
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Stroke()
}

func (c *PNGCanvas) Line(x1, y1, x2, y2 float64, s Stroke) {
	c.applyStroke(s)
	c.dc.DrawLine(x1, y1, x2, y2)
	c.dc.Stroke()
}

func (c *PNGCanvas) Bezier(p0, p1, p2, p3 Point, s Stroke) {
	c.applyStroke(s)
	c.dc.MoveTo(p0.X, p0.Y)
	c.dc.CubicTo(p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y)
	c.dc.Stroke()
}

func (c *PNGCanvas) FillPolygon(pts []Point, color string) {
	if len(pts) < 3 {
		return
	}
	c.dc.SetHexColor(color)
	c.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		c.dc.LineTo(pt.X, pt.Y)
	}
	c.dc.ClosePath()
	c.dc.Fill()
}

func (c *PNGCanvas) FillCircle(cx, cy, r float64, color string) {
	c.dc.SetHexColor(color)
	c.dc.DrawCircle(cx, cy, r)
	c.dc.Fill()
}

func (c *PNGCanvas) Text(x, y float64, text string, st TextStyle) {
	if text == "" {
		return
	}
	c.dc.SetFontFace(c.face(st.Size, st.Bold))
	c.dc.SetHexColor(st.Color)
	ax := 0.0
	switch st.Align {
	case AlignCenter:
		ax = 0.5
	case AlignRight:
		ax = 1
	}
	c.dc.DrawStringAnchored(text, x, y, ax, 0.35)
}

func (c *PNGCanvas) Image(img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	c.dc.Push()
	c.dc.Translate(x, y)
	c.dc.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
	c.dc.DrawImage(img, -b.Min.X, -b.Min.Y)
	c.dc.Pop()
}

// EncodePNG writes the canvas as PNG.
func (c *PNGCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

// Raster returns the underlying image.
func (c *PNGCanvas) Raster() image.Image {
	return c.dc.Image()
}

func (c *PNGCanvas) applyStroke(s Stroke) {
	c.dc.SetHexColor(s.Color)
	c.dc.SetLineWidth(max(s.Width, 1))
	if s.Dashed {
		c.dc.SetDash(6, 4)
	} else {
		c.dc.SetDash()
	}
}

func (c *PNGCanvas) face(size float64, bold bool) font.Face {
	if size <= 0 {
		size = DefaultTheme().FontSize
	}
	key := faceKey{size: size, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f
	}
	ttf := c.regular
	if bold {
		ttf = c.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	c.faces[key] = f
	return f
}

package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
)

// SVGCanvas accumulates SVG elements in document order.
type SVGCanvas struct {
	width, height float64
	body          strings.Builder
}

// NewSVGCanvas returns an empty SVG canvas of the given size.
func NewSVGCanvas(width, height float64) *SVGCanvas {
	return &SVGCanvas{width: width, height: height}
}

func (c *SVGCanvas) Size() (float64, float64) {
	return c.width, c.height
}

func (c *SVGCanvas) Clear(color string) {
	c.body.Reset()
	c.FillRect(0, 0, c.width, c.height, color)
}

func (c *SVGCanvas) FillRect(x, y, w, h float64, color string) {
	if w <= 0 || h <= 0 {
		return
	}
	fmt.Fprintf(&c.body, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s"/>`+"\n", x, y, w, h, escapeXML(color))
}

func (c *SVGCanvas) StrokeRect(x, y, w, h float64, s Stroke) {
	fmt.Fprintf(&c.body, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="none"%s/>`+"\n", x, y, w, h, strokeAttrs(s))
}

func (c *SVGCanvas) Line(x1, y1, x2, y2 float64, s Stroke) {
	fmt.Fprintf(&c.body, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"%s/>`+"\n", x1, y1, x2, y2, strokeAttrs(s))
}

func (c *SVGCanvas) Bezier(p0, p1, p2, p3 Point, s Stroke) {
	fmt.Fprintf(&c.body, `<path d="M%.2f %.2f C%.2f %.2f %.2f %.2f %.2f %.2f" fill="none"%s/>`+"\n",
		p0.X, p0.Y, p1.X, p1.Y, p2.X, p2.Y, p3.X, p3.Y, strokeAttrs(s))
}

func (c *SVGCanvas) FillPolygon(pts []Point, color string) {
	if len(pts) < 3 {
		return
	}
	coords := make([]string, len(pts))
	for i, pt := range pts {
		coords[i] = fmt.Sprintf("%.2f,%.2f", pt.X, pt.Y)
	}
	fmt.Fprintf(&c.body, `<polygon points="%s" fill="%s"/>`+"\n", strings.Join(coords, " "), escapeXML(color))
}

func (c *SVGCanvas) FillCircle(cx, cy, r float64, color string) {
	fmt.Fprintf(&c.body, `<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n", cx, cy, r, escapeXML(color))
}

func (c *SVGCanvas) Text(x, y float64, text string, st TextStyle) {
	if text == "" {
		return
	}
	anchor := "start"
	switch st.Align {
	case AlignCenter:
		anchor = "middle"
	case AlignRight:
		anchor = "end"
	}
	weight := "normal"
	if st.Bold {
		weight = "bold"
	}
	fmt.Fprintf(&c.body, `<text x="%.2f" y="%.2f" font-family="monospace" font-size="%.1f" font-weight="%s" fill="%s" text-anchor="%s" dominant-baseline="middle">%s</text>`+"\n",
		x, y, st.Size, weight, escapeXML(st.Color), anchor, escapeXML(text))
}

// Image embeds the thumbnail as a base64 PNG data URI.
func (c *SVGCanvas) Image(img image.Image, x, y, w, h float64) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	fmt.Fprintf(&c.body, `<image x="%.2f" y="%.2f" width="%.2f" height="%.2f" href="data:image/png;base64,%s"/>`+"\n",
		x, y, w, h, base64.StdEncoding.EncodeToString(buf.Bytes()))
}

// WriteTo writes the complete SVG document.
func (c *SVGCanvas) WriteTo(w io.Writer) (int64, error) {
	var doc strings.Builder
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		c.width, c.height, c.width, c.height)
	doc.WriteString(c.body.String())
	doc.WriteString("</svg>\n")
	n, err := io.WriteString(w, doc.String())
	return int64(n), err
}

// String returns the complete SVG document.
func (c *SVGCanvas) String() string {
	var sb strings.Builder
	_, _ = c.WriteTo(&sb)
	return sb.String()
}

func strokeAttrs(s Stroke) string {
	attrs := fmt.Sprintf(` stroke="%s" stroke-width="%.2f"`, escapeXML(s.Color), max(s.Width, 1))
	if s.Dashed {
		attrs += ` stroke-dasharray="6,4"`
	}
	return attrs
}

func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}

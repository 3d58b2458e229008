package app

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/render"
	"github.com/hylla/gantt/internal/viewport"
)

// ImageFormat names a rendered export encoding.
type ImageFormat string

// Supported image encodings.
const (
	ImagePNG ImageFormat = "png"
	ImageSVG ImageFormat = "svg"
)

// ParseImageFormat normalizes a user supplied image format.
func ParseImageFormat(raw string) (ImageFormat, error) {
	switch f := ImageFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case ImagePNG, ImageSVG:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// ImageFormatFromPath picks the image encoding from a file extension.
func ImageFormatFromPath(path string) (ImageFormat, error) {
	return ParseImageFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// ExportOptions controls a static render of a whole tree.
type ExportOptions struct {
	Format ImageFormat
	Width  int
	// Height 0 fits the fully expanded tree.
	Height   int
	Zoom     float64
	// Dims zero uses the stock canvas metrics.
	Dims     viewport.Dimensions
	Settings domain.ViewSettings
	Today    time.Time
	Images   render.Images
	Theme    render.Theme
	Scale    hittest.TimeScale
}

// ExportImage renders tree fully expanded and writes it to w.
func ExportImage(w io.Writer, tree domain.Tree, cal calendar.Calendar, opts ExportOptions) error {
	if opts.Width <= 0 || opts.Height < 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidExportSize, opts.Width, opts.Height)
	}
	tree = tree.Normalize()
	dims := opts.Dims
	if dims == (viewport.Dimensions{}) {
		dims = viewport.DefaultDimensions()
	}
	vp := viewport.New(dims, viewport.DefaultMinZoom, viewport.DefaultMaxZoom)
	if opts.Zoom > 0 {
		vp = vp.SetZoom(opts.Zoom)
	}
	expanded := layout.ExpandAll(tree)
	flat := layout.Flatten(tree, expanded, vp)
	height := opts.Height
	if height == 0 {
		height = int(math.Ceil(vp.Dims.HeaderHeight+layout.ContentHeight(flat))) + 20
	}

	st := interaction.NewState(vp, expanded)
	if opts.Scale == hittest.ScaleWeeks {
		st.Scale = hittest.ScaleWeeks
	}
	settings := opts.Settings
	settings.LinkMode = false
	settings.ShowHoverTask = false
	sc := render.Scene{
		Tree:     tree,
		Flat:     flat,
		State:    st,
		Calendar: cal,
		Settings: settings,
		Today:    opts.Today,
		Images:   opts.Images,
		Theme:    opts.Theme,
	}

	switch opts.Format {
	case ImagePNG, "":
		c, err := render.NewPNGCanvas(opts.Width, height)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidExportSize, err)
		}
		render.Draw(c, sc)
		if err := c.EncodePNG(w); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
		return nil
	case ImageSVG:
		c := render.NewSVGCanvas(float64(opts.Width), float64(height))
		render.Draw(c, sc)
		if _, err := c.WriteTo(w); err != nil {
			return fmt.Errorf("write svg: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

package tui

import (
	"github.com/charmbracelet/log"
	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/imagecache"
	"github.com/hylla/gantt/internal/viewport"
)

type Option func(*Model)

// TerminalDimensions are canvas metrics that land on whole terminal cells.
func TerminalDimensions() viewport.Dimensions {
	return viewport.Dimensions{
		DayWidth:     3 * cellWidth,
		RowHeight:    2 * cellHeight,
		TaskHeight:   cellHeight,
		HeaderHeight: 4 * cellHeight,
		SidebarWidth: 28 * cellWidth,
	}
}

func WithCalendar(cal calendar.Calendar) Option {
	return func(m *Model) {
		m.cal = cal
	}
}

func WithViewSettings(s domain.ViewSettings) Option {
	return func(m *Model) {
		m.settings = s
	}
}

func WithZoomBounds(minZoom, maxZoom float64) Option {
	return func(m *Model) {
		m.minZoom, m.maxZoom = minZoom, maxZoom
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithImages shares a thumbnail cache; the model redraws whenever its token moves.
func WithImages(images *imagecache.Cache) Option {
	return func(m *Model) {
		m.images = images
	}
}

func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copy = write
		}
	}
}

func WithIDGenerator(idGen app.IDGenerator) Option {
	return func(m *Model) {
		m.idGen = idGen
	}
}

func WithClock(clock app.Clock) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithDocument opens the document matching ref (id or slug) instead of the default one.
func WithDocument(ref string) Option {
	return func(m *Model) {
		m.docRef = ref
	}
}

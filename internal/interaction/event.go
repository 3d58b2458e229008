package interaction

import (
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/mutation"
)

// Event is one input delivered by the host.
type Event interface {
	isEvent()
}

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// Multi reports whether the modifiers request additive selection.
func (m Modifiers) Multi() bool {
	return m.Shift || m.Ctrl || m.Meta
}

type PointerDown struct {
	X, Y   float64
	Button Button
	Clicks int
	Mod    Modifiers
}

type PointerMove struct {
	X, Y float64
}

type PointerUp struct {
	X, Y float64
}

// PointerLeave ends any gesture exactly like PointerUp at the last cursor position.
type PointerLeave struct{}

type Wheel struct {
	X, Y           float64
	DeltaX, DeltaY float64
	Mod            Modifiers
}

// Key names understood by the reducer.
const (
	KeyEscape    = "esc"
	KeyEnter     = "enter"
	KeyDelete    = "delete"
	KeyBackspace = "backspace"
	KeyDuplicate = "d"
)

type Key struct {
	Name string
	Mod  Modifiers
}

// EditInput replaces the value of the open inline editor.
type EditInput struct {
	Value string
}

// Blur commits the open inline editor.
type Blur struct{}

func (PointerDown) isEvent()  {}
func (PointerMove) isEvent()  {}
func (PointerUp) isEvent()    {}
func (PointerLeave) isEvent() {}
func (Wheel) isEvent()        {}
func (Key) isEvent()          {}
func (EditInput) isEvent()    {}
func (Blur) isEvent()         {}

// Frame is the read-only context of the most recent render.
type Frame struct {
	Tree     domain.Tree
	Source   domain.Tree // unfiltered document; nil when Tree is not filtered
	Flat     []layout.FlatNode
	Hits     *hittest.Registry
	Calendar calendar.Calendar
	Settings domain.ViewSettings
	NewID    func() string
}

func (f Frame) hit(x, y float64, modes hittest.Modes) hittest.Hit {
	if f.Hits == nil {
		return hittest.Hit{Kind: hittest.KindBackground}
	}
	return f.Hits.Resolve(x, y, modes)
}

func (f Frame) source() domain.Tree {
	if f.Source != nil {
		return f.Source
	}
	return f.Tree
}

func (f Frame) newID() string {
	if f.NewID == nil {
		return ""
	}
	return f.NewID()
}

// Effect is what the host must do after a reduction.
type Effect struct {
	Mutation         mutation.Mutation
	SelectionChanged bool
	Redraw           bool
	Diagnostic       string
}

func (e *Effect) add(m mutation.Mutation) {
	switch existing := e.Mutation.(type) {
	case nil:
		e.Mutation = m
	case mutation.Batch:
		e.Mutation = append(existing, m)
	default:
		e.Mutation = mutation.Batch{existing, m}
	}
	e.Redraw = true
}

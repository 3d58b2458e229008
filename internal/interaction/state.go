// Package interaction is the pointer and keyboard reducer of the canvas. Every
// gesture is an explicit record inside State; Reduce turns one input event into
// the next State plus an Effect carrying at most one tree mutation.
package interaction

import (
	"maps"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/viewport"
)

// Interaction tuning constants, in screen pixels.
const (
	PanThreshold  = 5.0
	ResizeZone    = 20.0
	ResizeShare   = 0.2
	MilestoneZone = 0.75
)

// DragMode classifies a task drag.
type DragMode string

// DragMode values.
const (
	DragMove        DragMode = "move"
	DragResizeLeft  DragMode = "resize_left"
	DragResizeRight DragMode = "resize_right"
)

// PanState tracks a background drag.
type PanState struct {
	StartX, StartY float64
	LastX, LastY   float64
	Moved          bool
}

// Preview is the fractional live placement shown while a task is dragged.
type Preview struct {
	StartDay float64
	Duration float64
	Row      float64
}

// IsMilestone reports whether the preview currently reads as a milestone.
func (p Preview) IsMilestone() bool {
	return p.Duration < 0.5
}

// TaskDrag is an in-flight move or resize of one task.
type TaskDrag struct {
	Mode     DragMode
	NodeID   string
	Original domain.Task
	Live     Preview
	StartX   float64
	StartY   float64
}

// LinkArm is the first half of a link gesture.
type LinkArm struct {
	SourceTaskID string
	NodeID       string
	SourcePoint  domain.LinkPoint
	AnchorX      float64
	AnchorY      float64
}

// TreeDrag is an in-flight outline reorder.
type TreeDrag struct {
	NodeID    string
	StartY    float64
	Moved     bool
	FromLabel bool
	TargetID  string
	Position  domain.Position
}

// EditTarget names what an inline edit rewrites.
type EditTarget string

// EditTarget values.
const (
	EditNode  EditTarget = "node"
	EditTask  EditTarget = "task"
	EditImage EditTarget = "image"
)

// TextEdit is an open inline text editor.
type TextEdit struct {
	Target   EditTarget
	ID       string
	Original string
	Value    string
}

// Selection maps selected task ids to the id of their owning node.
type Selection map[string]string

// With returns a copy that also holds taskID.
func (s Selection) With(taskID, nodeID string) Selection {
	out := maps.Clone(s)
	if out == nil {
		out = Selection{}
	}
	out[taskID] = nodeID
	return out
}

// Without returns a copy that no longer holds taskID.
func (s Selection) Without(taskID string) Selection {
	out := maps.Clone(s)
	delete(out, taskID)
	return out
}

func (s Selection) Has(taskID string) bool {
	_, ok := s[taskID]
	return ok
}

// State is the complete interaction state of one mounted canvas.
type State struct {
	Viewport viewport.Viewport
	Expanded layout.ExpandSet
	EditMode bool
	LinkMode bool
	Scale    hittest.TimeScale

	Pan      *PanState
	Drag     *TaskDrag
	Link     *LinkArm
	TreeDrag *TreeDrag
	Edit     *TextEdit

	Selection Selection
	Primary   string
	CursorX   float64
	CursorY   float64
	Hover     string
}

// NewState returns an idle state.
func NewState(vp viewport.Viewport, expanded layout.ExpandSet) State {
	if expanded == nil {
		expanded = layout.ExpandSet{}
	}
	return State{
		Viewport:  vp,
		Expanded:  expanded,
		Scale:     hittest.ScaleDays,
		Selection: Selection{},
	}
}

// Busy reports whether a pointer gesture is in flight.
func (s State) Busy() bool {
	return s.Pan != nil || s.Drag != nil || s.TreeDrag != nil
}

// Modes returns the hit-test gates for the current state.
func (s State) Modes() hittest.Modes {
	return hittest.Modes{EditMode: s.EditMode, LinkMode: s.LinkMode}
}

// endGesture drops every pointer gesture record.
func (s State) endGesture() State {
	s.Pan = nil
	s.Drag = nil
	s.TreeDrag = nil
	s.Viewport.Dragging = false
	return s
}

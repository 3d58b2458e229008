package app

import (
	"io"
	"maps"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/mutation"
	"github.com/hylla/gantt/internal/render"
	"github.com/hylla/gantt/internal/viewport"
)

// SelectedTask is one entry of the selection reported to collaborators.
type SelectedTask struct {
	Task   domain.Task
	NodeID string
}

// Engine composes layout, rendering, hit-testing and the interaction reducer for
// one mounted canvas. It is not safe for concurrent use; hosts drive it from their
// event loop.
type Engine struct {
	tree      domain.Tree
	setTree   func(domain.Tree)
	cal       calendar.Calendar
	settings  domain.ViewSettings
	search    string
	highlight map[string]struct{}

	state interaction.State
	flat  []layout.FlatNode
	hits  *hittest.Registry

	idGen  IDGenerator
	seq    int
	clock  Clock
	logger *log.Logger
	images render.Images
	theme  render.Theme

	onTaskSelected        func(*domain.Task, string)
	onSelectedTasksChange func(map[string]SelectedTask)
	onTaskDrop            func(DroppedTask)
	onGroupAdded          func(domain.Node)
}

// Option configures an Engine.
type Option func(*Engine)

// WithTreeSetter switches the engine to controlled mode. Every committed edit is
// handed to fn and the engine keeps showing its current tree until the host calls
// SetTree.
func WithTreeSetter(fn func(domain.Tree)) Option {
	return func(e *Engine) {
		e.setTree = fn
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithIDGenerator(idGen IDGenerator) Option {
	return func(e *Engine) {
		if idGen != nil {
			e.idGen = idGen
		}
	}
}

// WithClock sets the source of "today" for status colours and the today line.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithSettings(s domain.ViewSettings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

func WithTheme(th render.Theme) Option {
	return func(e *Engine) {
		e.theme = th
	}
}

func WithImages(images render.Images) Option {
	return func(e *Engine) {
		e.images = images
	}
}

func WithViewport(vp viewport.Viewport) Option {
	return func(e *Engine) {
		e.state.Viewport = vp
	}
}

func OnTaskSelected(fn func(task *domain.Task, nodeID string)) Option {
	return func(e *Engine) {
		e.onTaskSelected = fn
	}
}

func OnSelectedTasksChange(fn func(map[string]SelectedTask)) Option {
	return func(e *Engine) {
		e.onSelectedTasksChange = fn
	}
}

func OnTaskDrop(fn func(DroppedTask)) Option {
	return func(e *Engine) {
		e.onTaskDrop = fn
	}
}

func OnGroupAdded(fn func(domain.Node)) Option {
	return func(e *Engine) {
		e.onGroupAdded = fn
	}
}

// NewEngine mounts tree on a fresh viewport. Nodes flagged Expanded start open.
func NewEngine(tree domain.Tree, cal calendar.Calendar, opts ...Option) *Engine {
	tree = tree.Normalize()
	e := &Engine{
		tree:     tree,
		cal:      cal,
		settings: domain.DefaultViewSettings(),
		state: interaction.NewState(
			viewport.New(viewport.DefaultDimensions(), viewport.DefaultMinZoom, viewport.DefaultMaxZoom),
			layout.ExpandSetFromTree(tree),
		),
		hits:   hittest.New(),
		idGen:  func() string { return "" },
		clock:  time.Now,
		logger: log.New(io.Discard),
		theme:  render.DefaultTheme(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.state.LinkMode = e.settings.LinkMode
	e.relayout()
	return e
}

// Controlled reports whether a tree setter owns the document.
func (e *Engine) Controlled() bool {
	return e.setTree != nil
}

// Tree returns the unfiltered document the engine is showing.
func (e *Engine) Tree() domain.Tree {
	return e.tree
}

// View returns the tree after the search filter.
func (e *Engine) View() domain.Tree {
	return e.tree.Filter(e.search)
}

// SetTree replaces the document. Selection entries whose tasks vanished are dropped.
func (e *Engine) SetTree(tree domain.Tree) {
	e.tree = tree.Normalize()
	if d := e.state.Drag; d != nil {
		if _, _, ok := e.tree.FindTask(d.Original.ID); !ok {
			e.state.Drag = nil
		}
	}
	e.pruneSelection()
	e.relayout()
}

func (e *Engine) Calendar() calendar.Calendar { return e.cal }

func (e *Engine) Settings() domain.ViewSettings { return e.settings }

// SetSettings replaces the view toggles. LinkMode also drives the link tool.
func (e *Engine) SetSettings(s domain.ViewSettings) {
	e.settings = s
	if e.state.LinkMode != s.LinkMode {
		e.state.LinkMode = s.LinkMode
		if !s.LinkMode {
			e.state.Link = nil
		}
	}
}

// SetSearch pre-filters the tree before layout.
func (e *Engine) SetSearch(query string) {
	e.search = strings.TrimSpace(query)
	e.relayout()
}

func (e *Engine) Search() string { return e.search }

// SetHighlighted marks externally selected tasks.
func (e *Engine) SetHighlighted(taskIDs []string) {
	e.highlight = make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		if id = strings.TrimSpace(id); id != "" {
			e.highlight[id] = struct{}{}
		}
	}
}

func (e *Engine) SetImages(images render.Images) {
	e.images = images
}

// State returns a copy of the interaction state.
func (e *Engine) State() interaction.State {
	return e.state
}

// Viewport returns the current viewport.
func (e *Engine) Viewport() viewport.Viewport {
	return e.state.Viewport
}

// SetViewport replaces the viewport, e.g. after the host resized its surface.
func (e *Engine) SetViewport(vp viewport.Viewport) {
	e.state.Viewport = vp
	e.relayout()
}

// Flat returns the rows laid out for the last frame.
func (e *Engine) Flat() []layout.FlatNode {
	return e.flat
}

// Hits returns the regions registered by the last Render.
func (e *Engine) Hits() *hittest.Registry {
	return e.hits
}

// Today is the current date according to the engine clock.
func (e *Engine) Today() time.Time {
	return e.clock()
}

// Scene assembles the inputs for one frame.
func (e *Engine) Scene() render.Scene {
	return render.Scene{
		Tree:      e.View(),
		Flat:      e.flat,
		State:     e.state,
		Calendar:  e.cal,
		Settings:  e.settings,
		Today:     e.clock(),
		Images:    e.images,
		Theme:     e.theme,
		Highlight: e.highlight,
	}
}

// Render draws one frame and keeps its hit regions for the next event.
func (e *Engine) Render(c render.Canvas) *hittest.Registry {
	e.relayout()
	e.hits = render.Draw(c, e.Scene())
	return e.hits
}

// HandleEvent reduces ev against the last frame and commits the resulting edit.
// It reports whether the host should redraw.
func (e *Engine) HandleEvent(ev interaction.Event) bool {
	frame := interaction.Frame{
		Tree:     e.View(),
		Source:   e.tree,
		Flat:     e.flat,
		Hits:     e.hits,
		Calendar: e.cal,
		Settings: e.settings,
		NewID:    func() string { return e.newID("item") },
	}
	prevPrimary := e.state.Primary
	next, eff := interaction.Reduce(e.state, ev, frame)
	e.state = next
	e.settings.LinkMode = next.LinkMode

	if eff.Diagnostic != "" {
		e.logger.Debug("interaction no-op", "event", eventName(ev), "reason", eff.Diagnostic)
	}
	if eff.Mutation != nil {
		_ = e.commit(eff.Mutation)
	}
	if eff.SelectionChanged || prevPrimary != e.state.Primary {
		e.emitSelection()
	}
	e.relayout()
	return eff.Redraw || eff.Mutation != nil || eff.SelectionChanged
}

// commit applies m and publishes the result according to the ownership mode.
func (e *Engine) commit(m mutation.Mutation) error {
	next, err := mutation.Apply(e.tree, m)
	if err != nil {
		e.logger.Warn("edit rejected", "mutation", m.Name(), "err", err)
		return err
	}
	e.logger.Debug("edit committed", "mutation", m.Name())
	added := addedNodes(m)

	if e.setTree != nil {
		e.setTree(next)
	} else {
		e.tree = next
		e.pruneSelection()
	}
	if e.onGroupAdded != nil {
		for _, id := range added {
			if n, ok := next.Find(id); ok {
				e.onGroupAdded(n)
			}
		}
	}
	return nil
}

func addedNodes(m mutation.Mutation) []string {
	switch m := m.(type) {
	case mutation.AddNode:
		return []string{m.Node.ID}
	case mutation.Batch:
		var out []string
		for _, sub := range m {
			out = append(out, addedNodes(sub)...)
		}
		return out
	default:
		return nil
	}
}

func (e *Engine) relayout() {
	e.flat = layout.Flatten(e.View(), e.state.Expanded, e.state.Viewport)
}

// pruneSelection drops selection entries whose task no longer exists and refreshes owners.
func (e *Engine) pruneSelection() {
	sel := interaction.Selection{}
	for taskID := range e.state.Selection {
		if _, nodeID, ok := e.tree.FindTask(taskID); ok {
			sel[taskID] = nodeID
		}
	}
	if maps.Equal(sel, e.state.Selection) {
		return
	}
	e.state.Selection = sel
	if !sel.Has(e.state.Primary) {
		e.state.Primary = ""
	}
	e.emitSelection()
}

// Selected returns the current selection with task snapshots.
func (e *Engine) Selected() map[string]SelectedTask {
	out := make(map[string]SelectedTask, len(e.state.Selection))
	for taskID := range e.state.Selection {
		if task, nodeID, ok := e.tree.FindTask(taskID); ok {
			out[taskID] = SelectedTask{Task: task, NodeID: nodeID}
		}
	}
	return out
}

func (e *Engine) emitSelection() {
	if e.onSelectedTasksChange != nil {
		e.onSelectedTasksChange(e.Selected())
	}
	if e.onTaskSelected == nil {
		return
	}
	if e.state.Primary != "" {
		if task, nodeID, ok := e.tree.FindTask(e.state.Primary); ok {
			e.onTaskSelected(&task, nodeID)
			return
		}
	}
	e.onTaskSelected(nil, "")
}

// setSelection replaces the selection programmatically.
func (e *Engine) setSelection(sel interaction.Selection, primary string) {
	e.state.Selection = sel
	e.state.Primary = primary
	e.emitSelection()
}

func eventName(ev interaction.Event) string {
	switch ev.(type) {
	case interaction.PointerDown:
		return "pointer_down"
	case interaction.PointerMove:
		return "pointer_move"
	case interaction.PointerUp:
		return "pointer_up"
	case interaction.PointerLeave:
		return "pointer_leave"
	case interaction.Wheel:
		return "wheel"
	case interaction.Key:
		return "key"
	case interaction.EditInput:
		return "edit_input"
	case interaction.Blur:
		return "blur"
	default:
		return "unknown"
	}
}

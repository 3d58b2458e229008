package interaction

import (
	"math"
	"testing"
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/mutation"
	"github.com/hylla/gantt/internal/viewport"
)

var satSun = [2]time.Weekday{time.Saturday, time.Sunday}

// harness keeps a tree, a frame and a state wired together the way the engine does.
type harness struct {
	t     *testing.T
	tree  domain.Tree
	state State
	cal   calendar.Calendar
	hits  *hittest.Registry
	ids   int
}

func newHarness(t *testing.T, tree domain.Tree, cal calendar.Calendar) *harness {
	t.Helper()
	vp := viewport.New(viewport.DefaultDimensions(), viewport.DefaultMinZoom, viewport.DefaultMaxZoom)
	tree = tree.Normalize()
	return &harness{
		t:     t,
		tree:  tree,
		state: NewState(vp, layout.ExpandAll(tree)),
		cal:   cal,
		hits:  hittest.New(),
	}
}

// frame registers one item per task and one row per node using the viewport geometry.
func (h *harness) frame() Frame {
	vp := h.state.Viewport
	flat := layout.Flatten(h.tree, h.state.Expanded, vp)
	h.hits.Reset()
	for _, f := range flat {
		h.hits.AddRow(hittest.NodeRegion{NodeID: f.Node.ID, Rect: hittest.Rect{X: 0, Y: f.Y, W: vp.Dims.SidebarWidth, H: f.Height}})
		for _, task := range f.Node.Tasks {
			x := vp.DayToScreenX(float64(task.StartDay))
			y := f.RowY(float64(task.Row), vp)
			region := hittest.ItemRegion{TaskID: task.ID, NodeID: f.Node.ID, Task: task,
				Rect: hittest.Rect{X: x, Y: y, W: float64(task.Duration) * vp.ScaledDayWidth(), H: vp.ScaledRowHeight()}}
			if task.IsMilestone() {
				region.Shape = hittest.ShapeDiamond
				region.Rect = hittest.Rect{X: x - 10, Y: y + 10, W: 20, H: 20}
			}
			h.hits.AddItem(region)
		}
	}
	return Frame{
		Tree:     h.tree,
		Flat:     flat,
		Hits:     h.hits,
		Calendar: h.cal,
		Settings: domain.DefaultViewSettings(),
		NewID: func() string {
			h.ids++
			return "id-" + string(rune('a'+h.ids-1))
		},
	}
}

func (h *harness) send(ev Event) Effect {
	h.t.Helper()
	var eff Effect
	h.state, eff = Reduce(h.state, ev, h.frame())
	if eff.Mutation != nil {
		next, err := mutation.Apply(h.tree, eff.Mutation)
		if err != nil {
			h.t.Fatalf("Apply(%s) error = %v", eff.Mutation.Name(), err)
		}
		h.tree = next
	}
	return eff
}

func (h *harness) task(id string) domain.Task {
	h.t.Helper()
	task, _, ok := h.tree.FindTask(id)
	if !ok {
		h.t.Fatalf("task %q not found", id)
	}
	return task
}

func groupTree(tasks ...domain.Task) domain.Tree {
	return domain.Tree{{
		ID: "p", Type: domain.NodeTypeProject, Content: "Project",
		Children: []domain.Node{{ID: "g", Type: domain.NodeTypeTaskGroup, Content: "Group", IsLeaf: true, Tasks: tasks}},
	}}
}

// Rows: p at y 60..100, g at 100..140 (row 0). Day d starts at x = 300 + 40d.

func TestScenarioMoveWithoutWeekend(t *testing.T) {
	// Day 5 is a Monday, so days 5..9 are all workdays.
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 3}), cal)

	h.send(PointerDown{X: 560, Y: 110, Clicks: 1})
	if h.state.Drag == nil || h.state.Drag.Mode != DragMove {
		t.Fatalf("expected move drag, got %+v", h.state.Drag)
	}
	h.send(PointerMove{X: 600, Y: 112})
	if h.state.Drag.Live.StartDay != 6 {
		t.Fatalf("preview start = %v, want 6", h.state.Drag.Live.StartDay)
	}
	if h.task("a").StartDay != 5 {
		t.Fatal("preview must not touch the committed tree")
	}
	eff := h.send(PointerUp{X: 640, Y: 112})
	if _, ok := eff.Mutation.(mutation.UpdateTask); !ok {
		t.Fatalf("expected UpdateTask, got %T", eff.Mutation)
	}
	if got := h.task("a"); got.StartDay != 7 || got.Duration != 3 || got.Row != 0 {
		t.Fatalf("committed %+v, want start 7 duration 3", got)
	}
	if h.state.Drag != nil || h.state.Viewport.Dragging {
		t.Fatal("gesture must end on pointer up")
	}
}

func TestScenarioResizeLeftAcrossWeekend(t *testing.T) {
	// Day 5 is a Thursday; the weekend is Friday and Saturday.
	cal := calendar.New(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), [2]time.Weekday{time.Friday, time.Saturday}, 60)
	if cal.DayToDate(5).Weekday() != time.Thursday {
		t.Fatalf("fixture day 5 = %s", cal.DayToDate(5).Weekday())
	}
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 2}), cal)

	h.send(PointerDown{X: 505, Y: 110, Clicks: 1})
	if h.state.Drag == nil || h.state.Drag.Mode != DragResizeLeft {
		t.Fatalf("expected resize-left, got %+v", h.state.Drag)
	}
	h.send(PointerMove{X: 465, Y: 110})
	if live := h.state.Drag.Live; live.StartDay != 4 || live.Duration != 3 {
		t.Fatalf("preview %+v, want start 4 duration 3", live)
	}
	h.send(PointerUp{X: 465, Y: 110})
	got := h.task("a")
	if got.StartDay != 4 {
		t.Fatalf("start = %d, want 4", got.StartDay)
	}
	if cal.WorkdaysIn(got.StartDay, got.Duration) != 2 {
		t.Fatalf("committed %+v covers %d workdays, want 2", got, cal.WorkdaysIn(got.StartDay, got.Duration))
	}
}

func TestResizeRightExpandsAcrossWeekend(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), [2]time.Weekday{time.Friday, time.Saturday}, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 3, Duration: 2}), cal)

	h.send(PointerDown{X: 495, Y: 110, Clicks: 1})
	if h.state.Drag.Mode != DragResizeRight {
		t.Fatalf("expected resize-right, got %s", h.state.Drag.Mode)
	}
	h.send(PointerUp{X: 575, Y: 110})
	if got := h.task("a"); got.StartDay != 3 || got.Duration != 6 {
		t.Fatalf("committed %+v, want 4 workdays spread over 6 days", got)
	}
}

func TestResizeLeftKeepsOriginalEnd(t *testing.T) {
	// Day 5 is a Monday; the task runs Monday to Friday.
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 5}), cal)

	// Two days left lands on Saturday and snaps back to Monday.
	h.send(PointerDown{X: 505, Y: 110, Clicks: 1})
	if h.state.Drag == nil || h.state.Drag.Mode != DragResizeLeft {
		t.Fatalf("expected resize-left, got %+v", h.state.Drag)
	}
	h.send(PointerMove{X: 425, Y: 110})
	if eff := h.send(PointerUp{X: 425, Y: 110}); eff.Mutation != nil {
		t.Fatalf("unexpected mutation %s", eff.Mutation.Name())
	}
	if got := h.task("a"); got.StartDay != 5 || got.Duration != 5 {
		t.Fatalf("committed %+v, want start 5 duration 5", got)
	}

	// Three days left reaches Friday; the right edge stays on day 10.
	h.send(PointerDown{X: 505, Y: 110, Clicks: 1})
	h.send(PointerUp{X: 385, Y: 110})
	got := h.task("a")
	if got.StartDay != 2 || got.EndDay() != 10 {
		t.Fatalf("committed %+v, want start 2 end 10", got)
	}
}

func TestPointerLeaveEndsGestures(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 3}), cal)

	h.send(PointerDown{X: 560, Y: 110, Clicks: 1})
	h.send(PointerMove{X: 640, Y: 112})
	eff := h.send(PointerLeave{})
	if _, ok := eff.Mutation.(mutation.UpdateTask); !ok {
		t.Fatalf("expected UpdateTask, got %T", eff.Mutation)
	}
	if got := h.task("a"); got.StartDay != 7 || got.Duration != 3 {
		t.Fatalf("committed %+v, want start 7 duration 3", got)
	}
	if h.state.Drag != nil {
		t.Fatal("leaving the canvas must end the task drag")
	}

	h.state.EditMode = true
	h.send(PointerDown{X: 250, Y: 80, Clicks: 1})
	if h.state.TreeDrag == nil {
		t.Fatal("expected tree drag in edit mode")
	}
	h.send(PointerMove{X: 250, Y: 130})
	if eff := h.send(PointerLeave{}); eff.Mutation != nil {
		t.Fatalf("unexpected mutation %s", eff.Mutation.Name())
	}
	if h.state.TreeDrag != nil {
		t.Fatal("leaving the canvas must end the tree drag")
	}

	h.send(PointerDown{X: 800, Y: 300, Clicks: 1})
	if h.state.Pan == nil {
		t.Fatal("expected pan to start on the background")
	}
	h.send(PointerMove{X: 850, Y: 330})
	if eff := h.send(PointerLeave{}); eff.Mutation != nil {
		t.Fatalf("unexpected mutation %s", eff.Mutation.Name())
	}
	if h.state.Pan != nil || h.state.Busy() {
		t.Fatalf("leaving the canvas must end the pan, state %+v", h.state.Pan)
	}
}

func TestResizeRightToZeroMakesMilestone(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 2}), cal)

	h.send(PointerDown{X: 575, Y: 110, Clicks: 1})
	h.send(PointerMove{X: 480, Y: 110})
	if !h.state.Drag.Live.IsMilestone() || h.state.Drag.Live.Duration != 0 {
		t.Fatalf("expected milestone preview, got %+v", h.state.Drag.Live)
	}
	h.send(PointerMove{X: 560, Y: 110})
	if h.state.Drag.Live.IsMilestone() {
		t.Fatal("positive duration must read as a task again")
	}
	h.send(PointerMove{X: 480, Y: 110})
	h.send(PointerUp{X: 480, Y: 110})
	if got := h.task("a"); !got.IsMilestone() {
		t.Fatalf("expected committed milestone, got %+v", got)
	}
}

func TestClickWithoutMovementDoesNotCommit(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), [2]time.Weekday{time.Friday, time.Saturday}, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 2}), cal)
	h.send(PointerDown{X: 505, Y: 110, Clicks: 1})
	if eff := h.send(PointerUp{X: 505, Y: 110}); eff.Mutation != nil {
		t.Fatalf("unexpected mutation %s", eff.Mutation.Name())
	}
	if !h.state.Selection.Has("a") {
		t.Fatal("click should select the task")
	}
}

func TestScenarioLinkCreation(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(
		domain.Task{ID: "A", Content: "First", StartDay: 1, Duration: 2},
		domain.Task{ID: "B", Content: "Second", StartDay: 5, Duration: 2},
	), cal)
	h.state.LinkMode = true

	h.send(PointerDown{X: 415, Y: 110, Clicks: 1})
	if h.state.Link == nil || h.state.Link.SourcePoint != domain.LinkPointEnd {
		t.Fatalf("expected armed at end anchor, got %+v", h.state.Link)
	}
	h.send(PointerUp{X: 415, Y: 110})
	h.send(PointerMove{X: 470, Y: 115})
	if h.state.CursorX != 470 || h.state.Link == nil {
		t.Fatal("armed link should follow the cursor")
	}
	eff := h.send(PointerDown{X: 505, Y: 110, Clicks: 1})
	if eff.Mutation == nil {
		t.Fatalf("expected AddLink, diagnostic %q", eff.Diagnostic)
	}
	if h.state.Link != nil {
		t.Fatal("second click must return to idle")
	}
	g, _ := h.tree.Find("g")
	if len(g.Links) != 1 {
		t.Fatalf("expected one link, got %d", len(g.Links))
	}
	l := g.Links[0]
	if l.SourceTaskID != "A" || l.TargetTaskID != "B" || l.SourcePoint != domain.LinkPointEnd || l.TargetPoint != domain.LinkPointStart {
		t.Fatalf("unexpected link %+v", l)
	}

	h.send(PointerDown{X: 345, Y: 110, Clicks: 1})
	eff = h.send(PointerDown{X: 350, Y: 110, Clicks: 1})
	if eff.Mutation != nil || eff.Diagnostic == "" || h.state.Link != nil {
		t.Fatalf("self link must be ignored with a diagnostic, got %+v", eff)
	}

	h.send(PointerDown{X: 345, Y: 110, Clicks: 1})
	h.send(PointerDown{X: 900, Y: 400, Clicks: 1})
	if h.state.Link != nil || h.state.Pan != nil {
		t.Fatal("background click while armed should cancel without panning")
	}
}

func TestPanThresholdSeparatesClickFromDrag(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 3}), cal)
	h.state.Selection = Selection{"a": "g"}

	h.send(PointerDown{X: 800, Y: 300, Clicks: 1})
	h.send(PointerMove{X: 812, Y: 300})
	eff := h.send(PointerUp{X: 812, Y: 300})
	if eff.SelectionChanged || !h.state.Selection.Has("a") {
		t.Fatal("a pan must keep the selection")
	}
	if h.state.Viewport.OffsetX != 12 {
		t.Fatalf("offsetX = %v, want 12", h.state.Viewport.OffsetX)
	}

	h.send(PointerDown{X: 800, Y: 300, Clicks: 1})
	h.send(PointerMove{X: 803, Y: 301})
	eff = h.send(PointerUp{X: 803, Y: 301})
	if !eff.SelectionChanged || len(h.state.Selection) != 0 {
		t.Fatal("a click below the threshold deselects")
	}
}

func TestWheelZoomKeepsCursorPoint(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(), cal)
	before := h.state.Viewport
	wx, wy := before.ScreenToWorld(640, 250)

	h.send(Wheel{X: 640, Y: 250, DeltaY: -1, Mod: Modifiers{Ctrl: true}})
	after := h.state.Viewport
	if math.Abs(after.Zoom-viewport.ZoomInFactor) > 1e-9 {
		t.Fatalf("zoom = %v", after.Zoom)
	}
	sx, sy := after.WorldToScreen(wx, wy)
	if math.Abs(sx-640) > 1e-9 || math.Abs(sy-250) > 1e-9 {
		t.Fatalf("cursor point drifted to (%v, %v)", sx, sy)
	}

	h.send(Wheel{X: 0, Y: 0, DeltaY: 30, Mod: Modifiers{Shift: true}})
	if h.state.Viewport.OffsetX != after.OffsetX-30 || h.state.Viewport.OffsetY != after.OffsetY {
		t.Fatal("shift wheel pans horizontally")
	}
}

func TestEscapeCancelsInOrder(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 3}), cal)

	h.state.Selection = Selection{"a": "g"}
	h.state.Link = &LinkArm{SourceTaskID: "a", NodeID: "g"}
	h.send(Key{Name: KeyEscape})
	if h.state.Link != nil || !h.state.Selection.Has("a") {
		t.Fatal("first escape cancels the link only")
	}
	eff := h.send(Key{Name: KeyEscape})
	if len(h.state.Selection) != 0 || !eff.SelectionChanged {
		t.Fatal("second escape clears the selection")
	}

	h.send(PointerDown{X: 560, Y: 110, Clicks: 1})
	h.send(PointerMove{X: 640, Y: 110})
	h.send(Key{Name: KeyEscape})
	if eff := h.send(PointerUp{X: 640, Y: 110}); eff.Mutation != nil {
		t.Fatal("escape aborts the drag without committing")
	}
	if h.task("a").StartDay != 5 {
		t.Fatal("aborted drag must leave the task in place")
	}
}

func TestInlineEditing(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(domain.Task{ID: "a", Content: "Build", StartDay: 5, Duration: 3}), cal)

	h.send(PointerDown{X: 560, Y: 110, Clicks: 2})
	if h.state.Edit == nil || h.state.Edit.Target != EditTask || h.state.Edit.Value != "Build" {
		t.Fatalf("expected task edit, got %+v", h.state.Edit)
	}
	h.send(EditInput{Value: "  Ship it "})
	h.send(Key{Name: KeyEnter})
	if h.task("a").Content != "Ship it" || h.state.Edit != nil {
		t.Fatalf("expected trimmed rename, got %q", h.task("a").Content)
	}

	h.send(PointerDown{X: 560, Y: 110, Clicks: 2})
	h.send(EditInput{Value: "discarded"})
	h.send(Key{Name: KeyEscape})
	if h.task("a").Content != "Ship it" {
		t.Fatal("escape must discard the edit")
	}

	h.send(PointerDown{X: 560, Y: 110, Clicks: 2})
	h.send(EditInput{Value: "   "})
	if eff := h.send(Blur{}); eff.Mutation != nil {
		t.Fatal("blank values are not committed")
	}
}

func TestTreeDragReorder(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	tree := domain.Tree{{
		ID: "p", Type: domain.NodeTypeProject, Content: "Project",
		Children: []domain.Node{
			{ID: "s1", Type: domain.NodeTypeSection, Content: "Design", Children: []domain.Node{
				{ID: "g1", Type: domain.NodeTypeTaskGroup, Content: "UX", IsLeaf: true},
			}},
			{ID: "g2", Type: domain.NodeTypeTaskGroup, Content: "Docs", IsLeaf: true},
		},
	}}
	h := newHarness(t, tree, cal)
	h.state.EditMode = true

	// s1 occupies y 100..140; its middle third resolves to inside.
	h.send(PointerDown{X: 250, Y: 200, Clicks: 1})
	if h.state.TreeDrag == nil {
		t.Fatal("expected tree drag to start in edit mode")
	}
	h.send(PointerMove{X: 250, Y: 120})
	if h.state.TreeDrag.TargetID != "s1" || h.state.TreeDrag.Position != domain.PositionInside {
		t.Fatalf("unexpected drop target %+v", h.state.TreeDrag)
	}
	h.send(PointerUp{X: 250, Y: 120})
	g2, _ := h.tree.Find("g2")
	if g2.ParentID != "s1" || g2.Level != 2 {
		t.Fatalf("moved node parent=%q level=%d", g2.ParentID, g2.Level)
	}

	// Dropping s1 onto its own child is rejected before any rewrite.
	h.send(PointerDown{X: 250, Y: 110, Clicks: 1})
	eff := h.send(PointerUp{X: 250, Y: 150})
	if eff.Mutation != nil || eff.Diagnostic == "" {
		t.Fatalf("expected rejected drop, got %+v", eff)
	}
	if err := h.tree.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestDeleteAndDuplicateSelection(t *testing.T) {
	cal := calendar.New(time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), satSun, 60)
	h := newHarness(t, groupTree(
		domain.Task{ID: "a", Content: "A", StartDay: 1, Duration: 2},
		domain.Task{ID: "b", Content: "B", StartDay: 5, Duration: 2},
	), cal)

	h.send(PointerDown{X: 380, Y: 110, Clicks: 1})
	h.send(PointerUp{X: 380, Y: 110})
	h.send(PointerDown{X: 540, Y: 110, Clicks: 1, Mod: Modifiers{Shift: true}})
	h.send(PointerUp{X: 540, Y: 110})
	if len(h.state.Selection) != 2 {
		t.Fatalf("expected two selected tasks, got %v", h.state.Selection.IDs())
	}

	h.send(Key{Name: KeyDuplicate, Mod: Modifiers{Ctrl: true}})
	g, _ := h.tree.Find("g")
	if len(g.Tasks) != 4 {
		t.Fatalf("expected duplicates, got %d tasks", len(g.Tasks))
	}

	eff := h.send(Key{Name: KeyDelete})
	if !eff.SelectionChanged || len(h.state.Selection) != 0 {
		t.Fatal("delete clears the selection")
	}
	g, _ = h.tree.Find("g")
	if len(g.Tasks) != 2 {
		t.Fatalf("expected only the copies left, got %d", len(g.Tasks))
	}
}

func TestTreeButtonMoveUsesUnfilteredSiblings(t *testing.T) {
	full := domain.Tree{{
		ID: "p", Type: domain.NodeTypeProject, Content: "Project",
		Children: []domain.Node{
			{ID: "g1", Type: domain.NodeTypeTaskGroup, Content: "Build", IsLeaf: true},
			{ID: "g2", Type: domain.NodeTypeTaskGroup, Content: "Hidden", IsLeaf: true},
			{ID: "g3", Type: domain.NodeTypeTaskGroup, Content: "Build docs", IsLeaf: true},
		},
	}}.Normalize()
	view := full.Filter("build")
	if _, ok := view.Find("g2"); ok {
		t.Fatal("fixture filter must hide g2")
	}

	hits := hittest.New()
	hits.AddTreeButton(hittest.TreeButton{NodeID: "g3", Action: hittest.TreeActionMoveUp, Rect: hittest.Rect{W: 20, H: 20}})
	vp := viewport.New(viewport.DefaultDimensions(), viewport.DefaultMinZoom, viewport.DefaultMaxZoom)
	s := NewState(vp, layout.ExpandAll(full))
	s.EditMode = true

	_, eff := Reduce(s, PointerDown{X: 10, Y: 10, Clicks: 1}, Frame{Tree: view, Source: full, Hits: hits})
	want := mutation.MoveNode{NodeID: "g3", TargetID: "g2", Position: domain.PositionBefore}
	if got, ok := eff.Mutation.(mutation.MoveNode); !ok || got != want {
		t.Fatalf("mutation = %#v, want %#v", eff.Mutation, want)
	}
}

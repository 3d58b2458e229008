package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/render"
)

// Layout with default dimensions: p spans y 60-100, g spans y 100-180 (two rows).
// Day d starts at x = 300 + 40d. Task a covers x 340-460 on row 0, b covers 580-660 on row 1.
func engineTree() domain.Tree {
	return domain.Tree{{
		ID: "p", Type: domain.NodeTypeProject, Content: "Plan", Expanded: true,
		Children: []domain.Node{{
			ID: "g", Type: domain.NodeTypeTaskGroup, Content: "Group", IsLeaf: true, Expanded: true,
			Tasks: []domain.Task{
				{ID: "a", Content: "Design", StartDay: 1, Duration: 3},
				{ID: "b", Content: "Review", StartDay: 7, Duration: 2, Row: 1},
			},
		}},
	}}
}

type engineHarness struct {
	*Engine
	selected []map[string]SelectedTask
	primary  []string
	logs     *bytes.Buffer
}

func newEngineHarness(t *testing.T, opts ...Option) *engineHarness {
	t.Helper()
	h := &engineHarness{logs: &bytes.Buffer{}}
	logger := log.NewWithOptions(h.logs, log.Options{Level: log.DebugLevel})
	base := []Option{
		WithLogger(logger),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }),
		OnSelectedTasksChange(func(sel map[string]SelectedTask) { h.selected = append(h.selected, sel) }),
		OnTaskSelected(func(task *domain.Task, _ string) {
			if task == nil {
				h.primary = append(h.primary, "")
				return
			}
			h.primary = append(h.primary, task.ID)
		}),
	}
	h.Engine = NewEngine(engineTree(), testCalendar(), append(base, opts...)...)
	h.draw()
	return h
}

func (h *engineHarness) draw() {
	h.Render(render.NewSVGCanvas(1200, 400))
}

func (h *engineHarness) click(x, y float64, mod interaction.Modifiers) {
	h.HandleEvent(interaction.PointerDown{X: x, Y: y, Button: interaction.ButtonLeft, Clicks: 1, Mod: mod})
	h.HandleEvent(interaction.PointerUp{X: x, Y: y})
	h.draw()
}

func (h *engineHarness) task(t *testing.T, id string) domain.Task {
	t.Helper()
	task, _, ok := h.Tree().FindTask(id)
	if !ok {
		t.Fatalf("task %q missing", id)
	}
	return task
}

func TestEngineDragCommitsWorkdaySnappedMove(t *testing.T) {
	h := newEngineHarness(t)
	h.HandleEvent(interaction.PointerDown{X: 400, Y: 120, Button: interaction.ButtonLeft, Clicks: 1})
	if len(h.selected) != 1 || h.primary[len(h.primary)-1] != "a" {
		t.Fatalf("expected selection callbacks for a, got %v / %v", h.selected, h.primary)
	}
	h.HandleEvent(interaction.PointerMove{X: 440, Y: 120})
	h.HandleEvent(interaction.PointerMove{X: 480, Y: 120})
	if got := h.task(t, "a"); got.StartDay != 1 {
		t.Fatal("tree must not change before pointer up")
	}
	h.HandleEvent(interaction.PointerUp{X: 480, Y: 120})

	got := h.task(t, "a")
	if got.StartDay != 3 || got.Duration != 5 {
		t.Fatalf("expected Thu start spanning the weekend {3,5}, got {%d,%d}", got.StartDay, got.Duration)
	}
}

func TestEngineDuplicatesWithoutIDGenerator(t *testing.T) {
	e := NewEngine(engineTree(), testCalendar(), WithLogger(log.New(&bytes.Buffer{})))
	e.Render(render.NewSVGCanvas(1200, 400))
	e.HandleEvent(interaction.PointerDown{X: 400, Y: 120, Button: interaction.ButtonLeft, Clicks: 1})
	e.HandleEvent(interaction.PointerUp{X: 400, Y: 120})
	e.HandleEvent(interaction.Key{Name: interaction.KeyDuplicate, Mod: interaction.Modifiers{Ctrl: true}})

	g, ok := e.Tree().Find("g")
	if !ok {
		t.Fatal("group g missing")
	}
	if len(g.Tasks) != 3 {
		t.Fatalf("tasks after duplicate = %d, want 3", len(g.Tasks))
	}
	seen := map[string]bool{}
	for _, task := range g.Tasks {
		if task.ID == "" || seen[task.ID] {
			t.Fatalf("duplicate produced id %q in %+v", task.ID, g.Tasks)
		}
		seen[task.ID] = true
	}
}

func TestEngineControlledModeDefersToHost(t *testing.T) {
	var pushed []domain.Tree
	h := newEngineHarness(t, WithTreeSetter(func(tree domain.Tree) { pushed = append(pushed, tree) }))
	if !h.Controlled() {
		t.Fatal("expected controlled mode")
	}
	h.click(400, 120, interaction.Modifiers{})
	h.HandleEvent(interaction.Key{Name: interaction.KeyDelete})

	if len(pushed) != 1 {
		t.Fatalf("expected one pushed tree, got %d", len(pushed))
	}
	if _, _, ok := pushed[0].FindTask("a"); ok {
		t.Fatal("pushed tree should no longer hold a")
	}
	if _, _, ok := h.Tree().FindTask("a"); !ok {
		t.Fatal("controlled engine must keep showing the host tree")
	}
	h.SetTree(pushed[0])
	if _, _, ok := h.Tree().FindTask("a"); ok {
		t.Fatal("expected host update to apply")
	}
}

func TestEngineLinkModeCreatesAndRejectsLinks(t *testing.T) {
	h := newEngineHarness(t)
	s := h.Settings()
	s.LinkMode = true
	h.SetSettings(s)
	h.draw()

	h.click(440, 120, interaction.Modifiers{})
	h.click(440, 120, interaction.Modifiers{})
	if !strings.Contains(h.logs.String(), "links to itself") {
		t.Fatalf("expected self-link diagnostic, logs:\n%s", h.logs.String())
	}

	h.click(440, 120, interaction.Modifiers{})
	h.click(600, 160, interaction.Modifiers{})
	g, _ := h.Tree().Find("g")
	if len(g.Links) != 1 {
		t.Fatalf("expected one link, got %+v", g.Links)
	}
	l := g.Links[0]
	if l.SourceTaskID != "a" || l.TargetTaskID != "b" || l.SourcePoint != domain.LinkPointEnd || l.TargetPoint != domain.LinkPointStart {
		t.Fatalf("unexpected link %+v", l)
	}
	if len(h.Hits().LinkButtons) != 1 {
		t.Fatal("expected a delete button on the new link")
	}
}

func TestEngineSearchAndHighlight(t *testing.T) {
	h := newEngineHarness(t)
	h.SetSearch("review")
	g, ok := h.View().Find("g")
	if !ok || len(g.Tasks) != 1 || g.Tasks[0].ID != "b" {
		t.Fatalf("expected filtered view with b only, got %+v", g.Tasks)
	}
	if h.Tree().CountNodes() != 2 {
		t.Fatal("search must not touch the document")
	}
	h.draw()
	if len(h.Hits().Items) != 1 {
		t.Fatalf("expected one drawn item, got %d", len(h.Hits().Items))
	}
	h.SetHighlighted([]string{" a ", ""})
	if _, ok := h.Scene().Highlight["a"]; !ok {
		t.Fatal("expected trimmed highlight id")
	}
}

func TestEngineActions(t *testing.T) {
	h := newEngineHarness(t)
	var actions Actions = h.Actions()

	if err := actions.DeleteSelectedTasks(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("DeleteSelectedTasks() error = %v, want ErrNothingSelected", err)
	}

	h.click(400, 120, interaction.Modifiers{})
	h.click(620, 160, interaction.Modifiers{Shift: true})
	if len(h.State().Selection) != 2 {
		t.Fatalf("expected two selected tasks, got %v", h.State().Selection)
	}
	if err := actions.LinkSelectedTasks(); err != nil {
		t.Fatalf("LinkSelectedTasks() error = %v", err)
	}
	if err := actions.LinkSelectedTasks(); !errors.Is(err, ErrNothingSelected) {
		t.Fatalf("second LinkSelectedTasks() error = %v, want ErrNothingSelected", err)
	}

	task, err := actions.AddNewTaskToTree("", "Ship")
	if err != nil {
		t.Fatalf("AddNewTaskToTree() error = %v", err)
	}
	if task.StartDay != 7 || task.Duration != 3 || task.Row != 2 {
		t.Fatalf("expected Monday start on a fresh row, got %+v", task)
	}
	if _, err := actions.AddNewTaskToTree("p", "x"); !errors.Is(err, domain.ErrNotLeaf) {
		t.Fatalf("AddNewTaskToTree(p) error = %v, want ErrNotLeaf", err)
	}

	h.click(400, 120, interaction.Modifiers{})
	if err := actions.DeleteSelectedTasks(); err != nil {
		t.Fatalf("DeleteSelectedTasks() error = %v", err)
	}
	g, _ := h.Tree().Find("g")
	if _, ok := g.TaskByID("a"); ok || len(g.Links) != 0 {
		t.Fatalf("expected a and its link removed, got %+v", g)
	}
	if last := h.selected[len(h.selected)-1]; len(last) != 0 {
		t.Fatalf("expected empty selection callback, got %v", last)
	}
}

func TestEngineDropTask(t *testing.T) {
	var drops []DroppedTask
	h := newEngineHarness(t, OnTaskDrop(func(d DroppedTask) { drops = append(drops, d) }))

	task, err := h.DropTask(TaskDrop{Content: "Audit", Workdays: 2, X: 300 + 40*12 + 5, Y: 150})
	if err != nil {
		t.Fatalf("DropTask() error = %v", err)
	}
	if task.StartDay != 14 || task.Duration != 2 || task.Row != 1 {
		t.Fatalf("expected Monday {14,2} on row 1, got %+v", task)
	}
	if len(drops) != 1 || drops[0].NodeID != "g" {
		t.Fatalf("expected drop callback for g, got %+v", drops)
	}
	if _, err := h.DropTask(TaskDrop{Content: "x", X: 500, Y: 80}); !errors.Is(err, ErrNoDropTarget) {
		t.Fatalf("DropTask(project row) error = %v, want ErrNoDropTarget", err)
	}
	if _, err := h.DropTask(TaskDrop{Content: "x", X: 100, Y: 150}); !errors.Is(err, ErrNoDropTarget) {
		t.Fatalf("DropTask(sidebar) error = %v, want ErrNoDropTarget", err)
	}
}

func TestEngineGroupAddedFromTreeButton(t *testing.T) {
	var added []domain.Node
	h := newEngineHarness(t, OnGroupAdded(func(n domain.Node) { added = append(added, n) }))

	h.click(48, 42, interaction.Modifiers{})
	if !h.State().EditMode {
		t.Fatal("expected edit mode after clicking the control")
	}
	var button hittest.TreeButton
	for _, b := range h.Hits().TreeButtons {
		if b.NodeID == "g" && b.Action == hittest.TreeActionAddSibling {
			button = b
		}
	}
	if button.NodeID == "" {
		t.Fatal("add-sibling button for g not registered")
	}
	x, y := button.Rect.Center()
	h.click(x, y, interaction.Modifiers{})

	if len(added) != 1 || added[0].ParentID != "p" || !added[0].IsLeaf {
		t.Fatalf("expected one new group under p, got %+v", added)
	}
	p, _ := h.Tree().Find("p")
	if len(p.Children) != 2 || p.Children[1].ID != added[0].ID {
		t.Fatal("expected the new group after g")
	}
}

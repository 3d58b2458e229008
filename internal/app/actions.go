package app

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/layout"
	"github.com/hylla/gantt/internal/mutation"
)

// Default sizes for tasks created without an explicit span.
const (
	DefaultNewTaskWorkdays = 3
	DefaultNewTaskContent  = "New task"
)

// Actions is the command surface handed to collaborators such as toolbars.
type Actions interface {
	DeleteSelectedTasks() error
	LinkSelectedTasks() error
	AddNewTaskToTree(nodeID, content string) (domain.Task, error)
}

// Actions returns the engine's command surface.
func (e *Engine) Actions() Actions {
	return e
}

// DeleteSelectedTasks removes every selected task and the links touching them.
func (e *Engine) DeleteSelectedTasks() error {
	ids := e.state.Selection.IDs()
	if len(ids) == 0 {
		return ErrNothingSelected
	}
	if err := e.commit(mutation.DeleteTasks{TaskIDs: ids}); err != nil {
		return err
	}
	e.setSelection(interaction.Selection{}, "")
	e.relayout()
	return nil
}

// LinkSelectedTasks chains the selected tasks of each node end-to-start in schedule
// order. Pairs that are already linked are skipped.
func (e *Engine) LinkSelectedTasks() error {
	byNode := map[string][]domain.Task{}
	for taskID, nodeID := range e.state.Selection {
		if task, owner, ok := e.tree.FindTask(taskID); ok && owner == nodeID {
			byNode[nodeID] = append(byNode[nodeID], task)
		}
	}

	var batch mutation.Batch
	for _, nodeID := range slices.Sorted(maps.Keys(byNode)) {
		tasks := byNode[nodeID]
		if len(tasks) < 2 {
			continue
		}
		slices.SortFunc(tasks, func(a, b domain.Task) int {
			return cmp.Or(cmp.Compare(a.StartDay, b.StartDay), cmp.Compare(a.Row, b.Row), strings.Compare(a.ID, b.ID))
		})
		node, _ := e.tree.Find(nodeID)
		for i := 1; i < len(tasks); i++ {
			link := domain.TaskLink{
				ID:           e.newID("link"),
				SourceTaskID: tasks[i-1].ID,
				TargetTaskID: tasks[i].ID,
				SourcePoint:  domain.LinkPointEnd,
				TargetPoint:  domain.LinkPointStart,
			}
			if hasEndpoints(node.Links, link) {
				continue
			}
			batch = append(batch, mutation.AddLink{Link: link})
		}
	}
	if len(batch) == 0 {
		return fmt.Errorf("link selected tasks: %w", ErrNothingSelected)
	}
	return e.commit(batch)
}

func hasEndpoints(links []domain.TaskLink, l domain.TaskLink) bool {
	return slices.ContainsFunc(links, l.SameEndpoints)
}

// AddNewTaskToTree appends a task to nodeID, or to the node of the primary selection,
// or to the first task group. It starts on the first workday from today.
func (e *Engine) AddNewTaskToTree(nodeID, content string) (domain.Task, error) {
	node, err := e.addTarget(strings.TrimSpace(nodeID))
	if err != nil {
		return domain.Task{}, err
	}
	if strings.TrimSpace(content) == "" {
		content = DefaultNewTaskContent
	}
	start := e.cal.NextWorkDay(e.cal.ClampDay(e.cal.DayOf(e.clock())))
	task, err := domain.NewTask(domain.TaskInput{
		ID:       e.newID("task"),
		Content:  content,
		StartDay: start,
		Duration: e.cal.AdjustedDuration(start, DefaultNewTaskWorkdays),
		Row:      node.MaxRow() + 1,
	})
	if err != nil {
		return domain.Task{}, err
	}
	if err := e.commit(mutation.AddTask{NodeID: node.ID, Task: task}); err != nil {
		return domain.Task{}, err
	}
	if e.setTree == nil {
		e.setSelection(interaction.Selection{task.ID: node.ID}, task.ID)
	}
	e.relayout()
	return task, nil
}

func (e *Engine) addTarget(nodeID string) (domain.Node, error) {
	if nodeID == "" {
		if owner, ok := e.state.Selection[e.state.Primary]; ok {
			nodeID = owner
		}
	}
	if nodeID != "" {
		node, ok := e.tree.Find(nodeID)
		if !ok {
			return domain.Node{}, fmt.Errorf("node %q: %w", nodeID, domain.ErrNodeNotFound)
		}
		if !node.IsLeaf {
			return domain.Node{}, fmt.Errorf("node %q: %w", nodeID, domain.ErrNotLeaf)
		}
		return node, nil
	}
	var (
		out   domain.Node
		found bool
	)
	e.tree.Walk(func(n domain.Node, _ int) bool {
		if !found && n.IsLeaf {
			out, found = n, true
		}
		return !found
	})
	if !found {
		return domain.Node{}, domain.ErrNodeNotFound
	}
	return out, nil
}

// TaskDrop is an external drag-and-drop payload in screen coordinates.
type TaskDrop struct {
	Content  string
	Workdays int
	Color    string
	Author   string
	X, Y     float64
}

// DroppedTask is a drop resolved to grid coordinates.
type DroppedTask struct {
	Payload TaskDrop
	NodeID  string
	Task    domain.Task
}

// DropTask converts an external drop into a workday-snapped task on the row under
// the pointer. Drops outside a task group are logged and rejected.
func (e *Engine) DropTask(p TaskDrop) (domain.Task, error) {
	vp := e.state.Viewport
	if p.X < vp.Dims.SidebarWidth || p.Y < vp.Dims.HeaderHeight {
		e.logger.Debug("drop outside timeline", "x", p.X, "y", p.Y)
		return domain.Task{}, ErrNoDropTarget
	}
	f, _, ok := layout.At(e.flat, p.Y)
	if !ok || !f.Node.IsLeaf {
		e.logger.Debug("drop without task group", "x", p.X, "y", p.Y)
		return domain.Task{}, ErrNoDropTarget
	}

	row := 0
	if rh := vp.ScaledRowHeight(); rh > 0 {
		row = max(int(math.Floor((p.Y-f.Y)/rh)), 0)
	}
	start := e.cal.NextWorkDay(e.cal.ClampDay(int(math.Floor(vp.ScreenXToDay(p.X)))))
	workdays := p.Workdays
	if workdays < 0 {
		workdays = 0
	}
	content := strings.TrimSpace(p.Content)
	if content == "" {
		content = DefaultNewTaskContent
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:       e.newID("task"),
		Content:  content,
		StartDay: start,
		Duration: e.cal.AdjustedDuration(start, workdays),
		Color:    p.Color,
		Author:   p.Author,
		Row:      row,
	})
	if err != nil {
		return domain.Task{}, err
	}
	if err := e.commit(mutation.AddTask{NodeID: f.Node.ID, Task: task}); err != nil {
		return domain.Task{}, err
	}
	if e.onTaskDrop != nil {
		e.onTaskDrop(DroppedTask{Payload: p, NodeID: f.Node.ID, Task: task})
	}
	e.relayout()
	return task, nil
}

// newID draws from the injected generator and falls back to a local sequence.
func (e *Engine) newID(prefix string) string {
	if id := e.idGen(); id != "" {
		return id
	}
	e.seq++
	return fmt.Sprintf("%s-%d-%d", prefix, e.clock().Unix(), e.seq)
}

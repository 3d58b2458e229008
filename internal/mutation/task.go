package mutation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hylla/gantt/internal/domain"
)

// CopySuffix is appended to duplicated task labels.
const CopySuffix = " (copy)"

// AddTask appends a task to a leaf node.
type AddTask struct {
	NodeID string
	Task   domain.Task
}

func (m AddTask) Name() string { return "add task" }

func (m AddTask) applyTo(tree domain.Tree) (domain.Tree, error) {
	task, err := domain.NewTask(domain.TaskInput(m.Task.Normalize()))
	if err != nil {
		return tree, err
	}
	if _, _, exists := tree.FindTask(task.ID); exists {
		return tree, fmt.Errorf("task %q exists: %w", task.ID, domain.ErrInvalidID)
	}
	out, found, err := updateNode(tree, m.NodeID, func(n domain.Node) (domain.Node, error) {
		if !n.IsLeaf {
			return n, domain.ErrNotLeaf
		}
		n.Tasks = append(slices.Clone(n.Tasks), task)
		return n, nil
	})
	if err != nil {
		return tree, err
	}
	if !found {
		return tree, fmt.Errorf("node %q: %w", m.NodeID, domain.ErrNodeNotFound)
	}
	return out, nil
}

// UpdateTask replaces the task with the same id. Out-of-range placement is clamped.
type UpdateTask struct {
	Task domain.Task
}

func (m UpdateTask) Name() string { return "update task" }

func (m UpdateTask) applyTo(tree domain.Tree) (domain.Tree, error) {
	task := m.Task.Normalize()
	return updateTaskOwner(tree, task.ID, func(n domain.Node, idx int) (domain.Node, error) {
		if strings.TrimSpace(task.Content) == "" {
			task.Content = n.Tasks[idx].Content
		}
		n.Tasks = slices.Clone(n.Tasks)
		n.Tasks[idx] = task
		return n, nil
	})
}

// RenameTask replaces a task label with trimmed content.
type RenameTask struct {
	TaskID  string
	Content string
}

func (m RenameTask) Name() string { return "rename task" }

func (m RenameTask) applyTo(tree domain.Tree) (domain.Tree, error) {
	return updateTaskOwner(tree, m.TaskID, func(n domain.Node, idx int) (domain.Node, error) {
		renamed, err := n.Tasks[idx].Rename(m.Content)
		if err != nil {
			return n, err
		}
		n.Tasks = slices.Clone(n.Tasks)
		n.Tasks[idx] = renamed
		return n, nil
	})
}

// UpdateProgress sets a task's completion, clamped to 0..100.
type UpdateProgress struct {
	TaskID   string
	Progress int
}

func (m UpdateProgress) Name() string { return "update progress" }

func (m UpdateProgress) applyTo(tree domain.Tree) (domain.Tree, error) {
	return updateTaskOwner(tree, m.TaskID, func(n domain.Node, idx int) (domain.Node, error) {
		n.Tasks = slices.Clone(n.Tasks)
		n.Tasks[idx] = n.Tasks[idx].WithProgress(m.Progress)
		return n, nil
	})
}

// DeleteTask removes a task and every link touching it.
type DeleteTask struct {
	TaskID string
}

func (m DeleteTask) Name() string { return "delete task" }

func (m DeleteTask) applyTo(tree domain.Tree) (domain.Tree, error) {
	return DeleteTasks{TaskIDs: []string{m.TaskID}}.applyTo(tree)
}

// DeleteTasks removes a selection of tasks, wherever they live, with their links.
type DeleteTasks struct {
	TaskIDs []string
}

func (m DeleteTasks) Name() string { return "delete tasks" }

func (m DeleteTasks) applyTo(tree domain.Tree) (domain.Tree, error) {
	drop := make(map[string]struct{}, len(m.TaskIDs))
	for _, id := range m.TaskIDs {
		if _, _, ok := tree.FindTask(id); !ok {
			return tree, fmt.Errorf("task %q: %w", id, domain.ErrTaskNotFound)
		}
		drop[id] = struct{}{}
	}
	if len(drop) == 0 {
		return tree, nil
	}
	return mapNodes(tree, func(n domain.Node) domain.Node {
		if len(n.Tasks) == 0 {
			return n
		}
		n.Tasks = slices.DeleteFunc(slices.Clone(n.Tasks), func(t domain.Task) bool {
			_, ok := drop[t.ID]
			return ok
		})
		n.Links = slices.DeleteFunc(slices.Clone(n.Links), func(l domain.TaskLink) bool {
			_, src := drop[l.SourceTaskID]
			_, dst := drop[l.TargetTaskID]
			return src || dst
		})
		return n
	}), nil
}

// DuplicateTask copies a task into a fresh row below the node's last row.
type DuplicateTask struct {
	TaskID string
	NewID  string
}

func (m DuplicateTask) Name() string { return "duplicate task" }

func (m DuplicateTask) applyTo(tree domain.Tree) (domain.Tree, error) {
	newID := strings.TrimSpace(m.NewID)
	if newID == "" {
		return tree, domain.ErrInvalidID
	}
	if _, _, exists := tree.FindTask(newID); exists {
		return tree, fmt.Errorf("task %q exists: %w", newID, domain.ErrInvalidID)
	}
	return updateTaskOwner(tree, m.TaskID, func(n domain.Node, idx int) (domain.Node, error) {
		dup := n.Tasks[idx]
		dup.ID = newID
		dup.Content += CopySuffix
		dup.Row = n.MaxRow() + 1
		n.Tasks = append(slices.Clone(n.Tasks), dup)
		return n, nil
	})
}

// DuplicateTasks duplicates a selection. NewIDs maps each source task id to the id of its copy.
type DuplicateTasks struct {
	NewIDs map[string]string
}

func (m DuplicateTasks) Name() string { return "duplicate tasks" }

func (m DuplicateTasks) applyTo(tree domain.Tree) (domain.Tree, error) {
	ids := make([]string, 0, len(m.NewIDs))
	for id := range m.NewIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	batch := make(Batch, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, DuplicateTask{TaskID: id, NewID: m.NewIDs[id]})
	}
	return batch.applyTo(tree)
}

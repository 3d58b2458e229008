package domain

import "strings"

// TaskKind identifies how a schedulable item is drawn.
type TaskKind string

// TaskKind values.
const (
	TaskKindTask      TaskKind = "task"
	TaskKindMilestone TaskKind = "milestone"
)

// Task is one schedulable item inside a leaf node. Its kind is derived from Duration,
// so a zero-duration task is always a milestone and a milestone never carries a span.
type Task struct {
	ID       string
	Content  string
	StartDay int
	Duration int
	Color    string
	Progress int
	Author   string
	Row      int
}

type TaskInput struct {
	ID       string
	Content  string
	StartDay int
	Duration int
	Color    string
	Progress int
	Author   string
	Row      int
}

func NewTask(in TaskInput) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Content = strings.TrimSpace(in.Content)
	in.Color = strings.TrimSpace(in.Color)
	in.Author = strings.TrimSpace(in.Author)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Content == "" {
		return Task{}, ErrInvalidContent
	}
	if in.StartDay < 0 {
		return Task{}, ErrInvalidStartDay
	}
	if in.Duration < 0 {
		return Task{}, ErrInvalidDuration
	}
	if in.Row < 0 {
		return Task{}, ErrInvalidRow
	}
	if in.Progress < 0 || in.Progress > 100 {
		return Task{}, ErrInvalidProgress
	}

	return Task{
		ID:       in.ID,
		Content:  in.Content,
		StartDay: in.StartDay,
		Duration: in.Duration,
		Color:    in.Color,
		Progress: in.Progress,
		Author:   in.Author,
		Row:      in.Row,
	}, nil
}

// NewMilestone builds a zero-duration task.
func NewMilestone(id, content string, startDay, row int) (Task, error) {
	return NewTask(TaskInput{ID: id, Content: content, StartDay: startDay, Row: row})
}

// Kind reports whether the task renders as a bar or a milestone diamond.
func (t Task) Kind() TaskKind {
	if t.Duration == 0 {
		return TaskKindMilestone
	}
	return TaskKindTask
}

func (t Task) IsMilestone() bool {
	return t.Kind() == TaskKindMilestone
}

// EndDay returns the exclusive end offset of the task.
func (t Task) EndDay() int {
	return t.StartDay + t.Duration
}

// Rename returns a copy with trimmed content.
func (t Task) Rename(content string) (Task, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return t, ErrInvalidContent
	}
	t.Content = content
	return t, nil
}

// WithProgress returns a copy with progress clamped to 0..100.
func (t Task) WithProgress(progress int) Task {
	t.Progress = clampInt(progress, 0, 100)
	return t
}

// Normalize clamps out-of-range fields instead of rejecting them.
func (t Task) Normalize() Task {
	if t.StartDay < 0 {
		t.StartDay = 0
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
	if t.Row < 0 {
		t.Row = 0
	}
	t.Progress = clampInt(t.Progress, 0, 100)
	return t
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

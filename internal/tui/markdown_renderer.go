package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/status"
)

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, 24)
	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// taskInfoMarkdown describes one task and the links that touch it.
func taskInfoMarkdown(tree domain.Tree, taskID string, cal calendar.Calendar, today time.Time) string {
	task, nodeID, ok := tree.FindTask(taskID)
	if !ok {
		return ""
	}
	node, _ := tree.Find(nodeID)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", task.Content)
	fmt.Fprintf(&b, "- **group:** %s\n", node.Content)
	start := cal.DayToDate(task.StartDay)
	if task.Duration == 0 {
		fmt.Fprintf(&b, "- **milestone:** %s\n", start.Format("Mon Jan 2"))
	} else {
		end := cal.DayToDate(task.StartDay + task.Duration - 1)
		fmt.Fprintf(&b, "- **dates:** %s to %s\n", start.Format("Mon Jan 2"), end.Format("Mon Jan 2"))
		fmt.Fprintf(&b, "- **duration:** %d days (%d working)\n", task.Duration, cal.WorkdaysIn(task.StartDay, task.Duration))
	}
	fmt.Fprintf(&b, "- **progress:** %d%%\n", task.Progress)
	fmt.Fprintf(&b, "- **status:** %s\n", strings.ReplaceAll(string(status.Classify(task, cal, today)), "_", " "))
	if task.Author != "" {
		fmt.Fprintf(&b, "- **author:** %s\n", task.Author)
	}
	fmt.Fprintf(&b, "- **id:** `%s`\n", task.ID)

	var deps []string
	tree.Walk(func(n domain.Node, _ int) bool {
		for _, l := range n.Links {
			if !l.Touches(task.ID) {
				continue
			}
			other := l.TargetTaskID
			arrow := "→"
			if other == task.ID {
				other, arrow = l.SourceTaskID, "←"
			}
			name := other
			if t, _, ok := tree.FindTask(other); ok {
				name = t.Content
			}
			deps = append(deps, fmt.Sprintf("- %s %s", arrow, name))
		}
		return true
	})
	if len(deps) > 0 {
		b.WriteString("\n### links\n\n")
		b.WriteString(strings.Join(deps, "\n"))
		b.WriteByte('\n')
	}
	return b.String()
}

// taskClipboardText is the plain text copied for one task.
func taskClipboardText(task domain.Task, cal calendar.Calendar) string {
	start := cal.DayToDate(task.StartDay).Format(time.DateOnly)
	if task.Duration == 0 {
		return fmt.Sprintf("%s (milestone %s)", task.Content, start)
	}
	end := cal.DayToDate(task.StartDay + task.Duration - 1).Format(time.DateOnly)
	return fmt.Sprintf("%s (%s to %s, %d%%)", task.Content, start, end, task.Progress)
}

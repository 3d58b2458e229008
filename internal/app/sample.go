package app

import (
	"fmt"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

type sampleGroup struct {
	name   string
	color  string
	author string
	tasks  []sampleTask
}

type sampleTask struct {
	name     string
	workdays int
	progress int
}

var sampleSections = []struct {
	name   string
	groups []sampleGroup
}{
	{"Discovery", []sampleGroup{
		{"Research", "#0ea5e9", "ana", []sampleTask{{"Interviews", 4, 100}, {"Competitive scan", 3, 100}, {"Findings review", 0, 100}}},
		{"Scoping", "#6366f1", "raj", []sampleTask{{"Requirements", 5, 80}, {"Estimates", 2, 50}, {"Scope sign-off", 0, 0}}},
	}},
	{"Build", []sampleGroup{
		{"Backend", "#10b981", "lee", []sampleTask{{"Data model", 3, 60}, {"API", 8, 20}, {"Load tests", 3, 0}}},
		{"Frontend", "#f59e0b", "mo", []sampleTask{{"Design system", 5, 40}, {"Screens", 10, 0}, {"Feature freeze", 0, 0}}},
	}},
	{"Release", []sampleGroup{
		{"Launch", "#ef4444", "kim", []sampleTask{{"Beta", 10, 0}, {"Docs", 4, 0}, {"GA", 0, 0}}},
	}},
}

// SampleTree builds a small three-section plan laid out on workdays of cal. Every
// group chains its tasks end-to-start, so links are valid by construction.
func SampleTree(idGen IDGenerator, cal calendar.Calendar) domain.Tree {
	counter := 0
	nextID := func(prefix string) string {
		if idGen != nil {
			if id := idGen(); id != "" {
				return id
			}
		}
		counter++
		return fmt.Sprintf("%s-%d", prefix, counter)
	}

	project := domain.Node{
		ID:       nextID("node"),
		Type:     domain.NodeTypeProject,
		Content:  "Product launch",
		Color:    "#334155",
		Expanded: true,
	}
	day := cal.NextWorkDay(0)
	for _, sec := range sampleSections {
		section := domain.Node{ID: nextID("node"), Type: domain.NodeTypeSection, Content: sec.name, Expanded: true}
		sectionEnd := day
		for gi, g := range sec.groups {
			group := domain.Node{
				ID:       nextID("node"),
				Type:     domain.NodeTypeTaskGroup,
				Content:  g.name,
				Color:    g.color,
				IsLeaf:   true,
				Expanded: true,
			}
			start := cal.NextWorkDay(day + gi)
			var prev string
			for ti, st := range g.tasks {
				start = cal.ClampDay(cal.NextWorkDay(start))
				task := domain.Task{
					ID:       nextID("task"),
					Content:  st.name,
					StartDay: start,
					Duration: cal.AdjustedDuration(start, st.workdays),
					Progress: st.progress,
					Author:   g.author,
					Row:      ti % 2,
				}
				group.Tasks = append(group.Tasks, task)
				if prev != "" {
					group.Links = append(group.Links, domain.TaskLink{
						ID:           nextID("link"),
						SourceTaskID: prev,
						TargetTaskID: task.ID,
						SourcePoint:  domain.LinkPointEnd,
						TargetPoint:  domain.LinkPointStart,
					})
				}
				prev = task.ID
				start = task.EndDay()
			}
			sectionEnd = max(sectionEnd, start)
			section.Children = append(section.Children, group)
		}
		project.Children = append(project.Children, section)
		day = sectionEnd
	}
	return domain.Tree{project}.Normalize()
}

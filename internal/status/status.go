// Package status classifies a task's schedule health into a display tier.
package status

import (
	"time"

	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
)

// Tier is one display colour class.
type Tier string

// Tier values, listed in evaluation order.
const (
	TierCompleted        Tier = "completed"
	TierNotStarted       Tier = "not_started"
	TierAhead            Tier = "ahead"
	TierBehind           Tier = "behind"
	TierOnTrack          Tier = "on_track"
	TierOverdueUntouched Tier = "overdue_untouched"
	TierOffSchedule      Tier = "off_schedule"
)

// Tolerance is the progress slack, in percentage points, around the expected value.
const Tolerance = 10.0

// Palette maps each tier to a hex colour.
var Palette = map[Tier]string{
	TierCompleted:        "#22c55e",
	TierNotStarted:       "#94a3b8",
	TierAhead:            "#3b82f6",
	TierBehind:           "#f59e0b",
	TierOnTrack:          "#14b8a6",
	TierOverdueUntouched: "#ef4444",
	TierOffSchedule:      "#f97316",
}

// Classify evaluates the rules in a fixed order; the first rule that holds wins.
// A fully completed task is always completed, however late it is.
func Classify(task domain.Task, cal calendar.Calendar, today time.Time) Tier {
	if task.Progress >= 100 {
		return TierCompleted
	}
	todayDay := cal.DayOf(today)
	start := task.StartDay
	// Inclusive last day of the span; a milestone starts and ends on the same day.
	end := task.StartDay + max(task.Duration-1, 0)

	if start > todayDay {
		return TierNotStarted
	}
	if todayDay >= start && todayDay <= end {
		expected := expectedProgress(todayDay-start, task.Duration)
		progress := float64(task.Progress)
		switch {
		case progress > expected+Tolerance:
			return TierAhead
		case progress < expected-Tolerance:
			return TierBehind
		default:
			return TierOnTrack
		}
	}
	if end < todayDay && task.Progress == 0 {
		return TierOverdueUntouched
	}
	return TierOffSchedule
}

// expectedProgress linearly interpolates how far along the task should be.
func expectedProgress(elapsedDays, totalDays int) float64 {
	if totalDays <= 0 {
		return 100
	}
	return float64(elapsedDays) / float64(totalDays) * 100
}

// Color returns the palette colour for a task.
func Color(task domain.Task, cal calendar.Calendar, today time.Time) string {
	return Palette[Classify(task, cal, today)]
}

// Package calendar translates project day offsets into calendar dates and keeps
// task spans aligned to workdays.
package calendar

import "time"

const day = 24 * time.Hour

// DefaultTotalDays is the horizon used when no explicit horizon is configured.
const DefaultTotalDays = 365

// Calendar converts day offsets from Epoch into dates. Weekend lists the two
// weekdays that never count as workdays.
type Calendar struct {
	Epoch     time.Time
	Weekend   [2]time.Weekday
	TotalDays int
}

// New returns a calendar whose epoch is truncated to midnight UTC.
func New(epoch time.Time, weekend [2]time.Weekday, totalDays int) Calendar {
	if totalDays <= 0 {
		totalDays = DefaultTotalDays
	}
	y, m, d := epoch.Date()
	return Calendar{
		Epoch:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Weekend:   weekend,
		TotalDays: totalDays,
	}
}

// DayToDate returns epoch + dayIndex days.
func (c Calendar) DayToDate(dayIndex int) time.Time {
	return c.Epoch.AddDate(0, 0, dayIndex)
}

// DayOf returns the day offset of date relative to the epoch (may be negative).
func (c Calendar) DayOf(date time.Time) int {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	diff := midnight.Sub(c.Epoch)
	if diff < 0 {
		return -int((-diff + day - 1) / day)
	}
	return int(diff / day)
}

// IsWeekend reports whether dayIndex falls on one of the configured weekend days.
func (c Calendar) IsWeekend(dayIndex int) bool {
	wd := c.DayToDate(dayIndex).Weekday()
	return wd == c.Weekend[0] || wd == c.Weekend[1]
}

// ClampDay bounds dayIndex to [0, TotalDays-1].
func (c Calendar) ClampDay(dayIndex int) int {
	if dayIndex < 0 {
		return 0
	}
	if dayIndex > c.TotalDays-1 {
		return c.TotalDays - 1
	}
	return dayIndex
}

// NextWorkDay advances dayIndex past weekend days, staying inside the horizon.
func (c Calendar) NextWorkDay(dayIndex int) int {
	dayIndex = c.ClampDay(dayIndex)
	for dayIndex < c.TotalDays-1 && c.IsWeekend(dayIndex) {
		dayIndex++
	}
	return dayIndex
}

// AdjustedDuration walks forward from startDay until rawDuration workdays are
// consumed and returns the calendar span that took. The span never runs past
// the horizon. A non-positive rawDuration is a milestone and yields 0.
func (c Calendar) AdjustedDuration(startDay, rawDuration int) int {
	if rawDuration <= 0 {
		return 0
	}
	startDay = c.ClampDay(startDay)
	workdays, span := 0, 0
	for workdays < rawDuration && startDay+span < c.TotalDays {
		if !c.IsWeekend(startDay + span) {
			workdays++
		}
		span++
	}
	return span
}

// WorkdaysIn counts the workdays inside [startDay, startDay+duration).
func (c Calendar) WorkdaysIn(startDay, duration int) int {
	count := 0
	for d := startDay; d < startDay+duration; d++ {
		if !c.IsWeekend(d) {
			count++
		}
	}
	return count
}

// WeekStart returns the offset of the first day of the week containing dayIndex,
// where a week begins on the day after the second weekend day.
func (c Calendar) WeekStart(dayIndex int) int {
	first := (c.Weekend[1] + 1) % 7
	wd := c.DayToDate(dayIndex).Weekday()
	back := (int(wd) - int(first) + 7) % 7
	return dayIndex - back
}

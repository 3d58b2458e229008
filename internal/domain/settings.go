package domain

// ViewSettings gates individual rendering concerns of the canvas.
type ViewSettings struct {
	ShowLinks      bool
	LinkMode       bool
	ShowGrid       bool
	ShowWeekends   bool
	ShowProgress   bool
	ShowAuthors    bool
	ShowMilestones bool
	ShowTimestamps bool
	ShowColors     bool
	ShowTaskIDs    bool
	ShowTodayLine  bool
	ShowHoverTask  bool
}

// DefaultViewSettings enables everything except link mode, ids and timestamps.
func DefaultViewSettings() ViewSettings {
	return ViewSettings{
		ShowLinks:      true,
		ShowGrid:       true,
		ShowWeekends:   true,
		ShowProgress:   true,
		ShowAuthors:    true,
		ShowMilestones: true,
		ShowColors:     true,
		ShowTodayLine:  true,
		ShowHoverTask:  true,
	}
}

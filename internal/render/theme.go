package render

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Theme holds every colour and metric the pipeline uses.
type Theme struct {
	Background    string
	Grid          string
	Weekend       string
	Today         string
	Sidebar       string
	SidebarText   string
	Header        string
	HeaderText    string
	Selection     string
	Hover         string
	Link          string
	LinkPreview   string
	LinkButton    string
	Button        string
	ButtonActive  string
	ButtonText    string
	Badge         string
	Placeholder   string
	Tooltip       string
	TooltipText   string
	EditBox       string
	EditText      string
	DropIndicator string
	TaskText      string
	FontSize      float64
}

// DefaultTheme is the light theme used for exports and the terminal host.
func DefaultTheme() Theme {
	return Theme{
		Background:    "#ffffff",
		Grid:          "#e5e7eb",
		Weekend:       "#f3f4f6",
		Today:         "#ef4444",
		Sidebar:       "#f8fafc",
		SidebarText:   "#1f2937",
		Header:        "#f1f5f9",
		HeaderText:    "#334155",
		Selection:     "#1d4ed8",
		Hover:         "#60a5fa",
		Link:          "#64748b",
		LinkPreview:   "#2563eb",
		LinkButton:    "#dc2626",
		Button:        "#e2e8f0",
		ButtonActive:  "#2563eb",
		ButtonText:    "#0f172a",
		Badge:         "#cbd5e1",
		Placeholder:   "#94a3b8",
		Tooltip:       "#111827",
		TooltipText:   "#f9fafb",
		EditBox:       "#fefce8",
		EditText:      "#111827",
		DropIndicator: "#2563eb",
		TaskText:      "#ffffff",
		FontSize:      12,
	}
}

// Blend mixes two hex colours in Lab space. t=0 yields a, t=1 yields b.
// Unparseable input falls back to the other colour.
func Blend(a, b string, t float64) string {
	ca, errA := colorful.Hex(a)
	cb, errB := colorful.Hex(b)
	switch {
	case errA != nil && errB != nil:
		return "#000000"
	case errA != nil:
		return b
	case errB != nil:
		return a
	}
	return ca.BlendLab(cb, t).Clamped().Hex()
}

// Darken moves a colour towards black.
func Darken(c string, t float64) string {
	return Blend(c, "#000000", t)
}

// Lighten moves a colour towards white.
func Lighten(c string, t float64) string {
	return Blend(c, "#ffffff", t)
}

// ValidColor reports whether c parses as a hex colour.
func ValidColor(c string) bool {
	_, err := colorful.Hex(c)
	return err == nil
}

// RGBA converts a hex colour to 8-bit channels with full opacity.
func RGBA(c string) (uint8, uint8, uint8, uint8) {
	col, err := colorful.Hex(c)
	if err != nil {
		return 0, 0, 0, 255
	}
	r, g, b := col.Clamped().RGB255()
	return r, g, b, 255
}

package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds user overrides for the configurable bindings. Blank fields keep the defaults.
type KeyConfig struct {
	AddTask     string
	LinkTasks   string
	Search      string
	Save        string
	CopyTask    string
	ToggleInfo  string
	ToggleLinks string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	reload      key.Binding
	save        key.Binding
	addTask     key.Binding
	linkTasks   key.Binding
	deleteTasks key.Binding
	duplicate   key.Binding
	cancel      key.Binding
	search      key.Binding
	copyTask    key.Binding
	toggleInfo  key.Binding
	toggleLinks key.Binding
	editMode    key.Binding
	toggleScale key.Binding
	nextDoc     key.Binding
	panLeft     key.Binding
	panRight    key.Binding
	panUp       key.Binding
	panDown     key.Binding
	zoomIn      key.Binding
	zoomOut     key.Binding
	today       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		save:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		addTask:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		linkTasks:   key.NewBinding(key.WithKeys("L", "shift+l"), key.WithHelp("L", "link selected")),
		deleteTasks: key.NewBinding(key.WithKeys("delete", "backspace", "x"), key.WithHelp("x/del", "delete selected")),
		duplicate:   key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "duplicate")),
		cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		copyTask:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		toggleInfo:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "task info")),
		toggleLinks: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "link mode")),
		editMode:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit tree")),
		toggleScale: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "days/weeks")),
		nextDoc:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next plan")),
		panLeft:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/←", "scroll left")),
		panRight:    key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "scroll right")),
		panUp:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/↑", "scroll up")),
		panDown:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/↓", "scroll down")),
		zoomIn:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
		zoomOut:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
		today:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
	}
}

// applyConfig swaps in configured keys, keeping each binding's help text.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.addTask, cfg.AddTask, "n", "new task")
	configureBinding(&k.linkTasks, cfg.LinkTasks, "L", "link selected")
	configureBinding(&k.search, cfg.Search, "/", "search")
	configureBinding(&k.save, cfg.Save, "ctrl+s", "save")
	configureBinding(&k.copyTask, cfg.CopyTask, "y", "copy task")
	configureBinding(&k.toggleInfo, cfg.ToggleInfo, "i", "task info")
	configureBinding(&k.toggleLinks, cfg.ToggleLinks, "l", "link mode")
}

// configureBinding replaces the keys of b with the parsed override.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns one configured key into matcher strings and help text.
// A single uppercase rune also matches its shift form; "space" matches the literal space.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + strings.ToLower(raw)}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.linkTasks, k.deleteTasks, k.toggleLinks, k.editMode, k.search, k.save, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.linkTasks, k.deleteTasks, k.duplicate, k.copyTask, k.cancel},
		{k.toggleLinks, k.editMode, k.toggleScale, k.toggleInfo, k.search, k.nextDoc},
		{k.panLeft, k.panRight, k.panUp, k.panDown, k.zoomIn, k.zoomOut, k.today},
		{k.save, k.reload, k.toggleHelp, k.quit},
	}
}

package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/hylla/gantt/internal/app"
	"github.com/hylla/gantt/internal/calendar"
	"github.com/hylla/gantt/internal/domain"
	"github.com/hylla/gantt/internal/hittest"
	"github.com/hylla/gantt/internal/imagecache"
	"github.com/hylla/gantt/internal/interaction"
	"github.com/hylla/gantt/internal/render"
	"github.com/hylla/gantt/internal/viewport"
)

// Service represents service data used by this package.
type Service interface {
	EnsureDefaultDocument(context.Context) (domain.Document, error)
	FindDocument(context.Context, string) (domain.Document, error)
	ListDocuments(context.Context, bool) ([]domain.Document, error)
	SaveTree(context.Context, string, domain.Tree) (domain.Document, error)
}

// inputMode identifies the active text prompt.
type inputMode int

const (
	modeNone inputMode = iota
	modeEdit
	modeSearch
	modeNewTask
)

const (
	doubleClickWindow = 400 * time.Millisecond
	imageTickInterval = 250 * time.Millisecond
	infoPanelWidth    = 40
	wheelStep         = 3 * cellHeight
)

// loadedMsg carries a freshly loaded document.
type loadedMsg struct {
	doc  domain.Document
	docs []domain.Document
	err  error
}

// savedMsg reports a completed save.
type savedMsg struct {
	doc domain.Document
	err error
}

type imageTickMsg time.Time

// engineEvents collects engine callbacks between updates. It is shared by pointer
// because the model itself is copied on every update.
type engineEvents struct {
	pending  *domain.Tree
	selected int
	primary  *domain.Task
	groups   []string
}

// clickState remembers the last press for double-click detection.
type clickState struct {
	col, row int
	at       time.Time
}

// Model is the terminal host of one timeline canvas.
type Model struct {
	svc    Service
	engine *app.Engine
	events *engineEvents
	doc    domain.Document
	docs   []domain.Document
	docRef string

	cal      calendar.Calendar
	settings domain.ViewSettings
	minZoom  float64
	maxZoom  float64
	images   *imagecache.Cache
	imgToken uint64
	logger   *log.Logger
	copy     func(string) error
	idGen    app.IDGenerator
	clock    app.Clock

	keys  keyMap
	help  help.Model
	input textinput.Model
	mode  inputMode
	md    *markdownRenderer

	width     int
	height    int
	showInfo  bool
	dirty     bool
	status    string
	err       error
	lastClick clickState
}

// NewModel constructs a model that loads its document from svc on Init.
func NewModel(svc Service, opts ...Option) Model {
	m := Model{
		svc:      svc,
		events:   &engineEvents{},
		cal:      calendar.New(time.Now().UTC().Truncate(24*time.Hour), [2]time.Weekday{time.Saturday, time.Sunday}, calendar.DefaultTotalDays),
		settings: domain.DefaultViewSettings(),
		minZoom:  viewport.DefaultMinZoom,
		maxZoom:  viewport.DefaultMaxZoom,
		logger:   log.New(io.Discard),
		copy:     clipboard.WriteAll,
		clock:    time.Now,
		keys:     newKeyMap(),
		help:     help.New(),
		md:       &markdownRenderer{},
		width:    120,
		height:   40,
		status:   "loading",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.input = newPromptInput("", "")
	return m
}

// newPromptInput constructs the single-line prompt used by edit, search and new-task modes.
func newPromptInput(prompt, value string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.CharLimit = 200
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// Init loads the document and starts the thumbnail watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCmd(m.docRef)}
	if m.images != nil {
		cmds = append(cmds, imageTick())
	}
	return tea.Batch(cmds...)
}

func imageTick() tea.Cmd {
	return tea.Tick(imageTickInterval, func(t time.Time) tea.Msg {
		return imageTickMsg(t)
	})
}

func (m Model) loadCmd(ref string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx := context.Background()
		var (
			doc domain.Document
			err error
		)
		if strings.TrimSpace(ref) == "" {
			doc, err = svc.EnsureDefaultDocument(ctx)
		} else {
			doc, err = svc.FindDocument(ctx, ref)
		}
		if err != nil {
			return loadedMsg{err: err}
		}
		docs, err := svc.ListDocuments(ctx, false)
		return loadedMsg{doc: doc, docs: docs, err: err}
	}
}

func (m Model) saveCmd() tea.Cmd {
	svc, id, tree := m.svc, m.doc.ID, m.doc.Tree.Clone()
	return func() tea.Msg {
		doc, err := svc.SaveTree(context.Background(), id, tree)
		return savedMsg{doc: doc, err: err}
	}
}

// newEngine mounts tree in controlled mode so every commit passes through the model.
func (m *Model) newEngine(tree domain.Tree) *app.Engine {
	events := &engineEvents{}
	m.events = events
	opts := []app.Option{
		app.WithTreeSetter(func(t domain.Tree) { events.pending = &t }),
		app.WithLogger(m.logger),
		app.WithClock(m.clock),
		app.WithIDGenerator(m.idGen),
		app.WithSettings(m.settings),
		app.WithTheme(terminalTheme()),
		app.WithViewport(viewport.New(TerminalDimensions(), m.minZoom, m.maxZoom)),
		app.OnSelectedTasksChange(func(sel map[string]app.SelectedTask) { events.selected = len(sel) }),
		app.OnTaskSelected(func(task *domain.Task, _ string) { events.primary = task }),
		app.OnGroupAdded(func(n domain.Node) { events.groups = append(events.groups, n.Content) }),
	}
	if m.images != nil {
		opts = append(opts, app.WithImages(m.images))
	}
	return app.NewEngine(tree, m.cal, opts...)
}

// terminalTheme darkens the stock palette for terminal backgrounds.
func terminalTheme() render.Theme {
	th := render.DefaultTheme()
	th.Background = "#0f172a"
	th.Grid = "#1e293b"
	th.Weekend = "#111827"
	th.Sidebar = "#111827"
	th.SidebarText = "#e2e8f0"
	th.Header = "#1e293b"
	th.HeaderText = "#cbd5e1"
	th.Button = "#334155"
	th.ButtonText = "#f8fafc"
	th.Badge = "#475569"
	th.EditBox = "#334155"
	th.EditText = "#f8fafc"
	return th
}

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetWidth(max(0, m.width-2))
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "load failed"
			return m, nil
		}
		m.err = nil
		m.doc, m.docs = msg.doc, msg.docs
		m.engine = m.newEngine(msg.doc.Tree)
		m.dirty = false
		m.mode = modeNone
		m.status = "opened " + msg.doc.Name
		m.logger.Info("document opened", "id", msg.doc.ID, "name", msg.doc.Name)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "save failed"
			m.logger.Error("save failed", "id", m.doc.ID, "err", msg.err)
			return m, nil
		}
		m.err = nil
		if msg.doc.ID == m.doc.ID {
			m.doc.UpdatedAt = msg.doc.UpdatedAt
		}
		m.dirty = false
		m.status = "saved"
		return m, nil

	case imageTickMsg:
		// Every update redraws; the token only records which loads were seen.
		if m.images != nil {
			if tok := m.images.Token(); tok != m.imgToken {
				m.imgToken = tok
				m.logger.Debug("thumbnails updated", "token", tok)
			}
		}
		return m, imageTick()

	case tea.KeyPressMsg:
		if m.engine == nil {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}
		if m.mode != modeNone {
			return m.handleInputKey(msg)
		}
		return m.handleNormalKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		if x, y, ok := m.canvasPoint(msg.X, msg.Y); ok {
			return m.dispatch(interaction.PointerMove{X: x, Y: y})
		}
		return m.dispatch(interaction.PointerLeave{})

	case tea.MouseReleaseMsg:
		if m.engine == nil {
			return m, nil
		}
		x, y, _ := m.canvasPoint(msg.X, msg.Y)
		return m.dispatch(interaction.PointerUp{X: x, Y: y})

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)
	}

	if m.mode != modeNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// dispatch forwards ev to the engine and applies whatever it handed back.
func (m Model) dispatch(ev interaction.Event) (tea.Model, tea.Cmd) {
	if m.engine == nil {
		return m, nil
	}
	m.engine.HandleEvent(ev)
	cmd := m.sync()
	return m, cmd
}

// sync drains engine callbacks: pending trees are adopted and persisted, and an
// inline editor opened by the engine takes over the prompt.
func (m *Model) sync() tea.Cmd {
	var cmds []tea.Cmd
	ev := m.events
	if ev.pending != nil {
		tree := *ev.pending
		ev.pending = nil
		m.engine.SetTree(tree)
		m.doc.Tree = tree
		m.dirty = true
		cmds = append(cmds, m.saveCmd())
	}
	if len(ev.groups) > 0 {
		m.status = "added " + strings.Join(ev.groups, ", ")
		ev.groups = nil
	}

	edit := m.engine.State().Edit
	switch {
	case edit != nil && m.mode != modeEdit:
		m.mode = modeEdit
		m.input = newPromptInput(string(edit.Target)+": ", edit.Value)
		m.input.CursorEnd()
		cmds = append(cmds, m.input.Focus())
	case edit == nil && m.mode == modeEdit:
		m.mode = modeNone
		m.input.Blur()
	}
	return tea.Batch(cmds...)
}

func (m Model) handleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeEdit:
		switch msg.String() {
		case "esc":
			return m.dispatch(interaction.Key{Name: interaction.KeyEscape})
		case "enter":
			m.engine.HandleEvent(interaction.EditInput{Value: m.input.Value()})
			return m.dispatch(interaction.Key{Name: interaction.KeyEnter})
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.engine.HandleEvent(interaction.EditInput{Value: m.input.Value()})
		return m, cmd

	case modeSearch:
		switch msg.String() {
		case "esc":
			m.engine.SetSearch("")
			m.closePrompt("search cleared")
			return m, nil
		case "enter":
			m.closePrompt("")
			if q := m.engine.Search(); q != "" {
				m.status = fmt.Sprintf("filter %q", q)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.engine.SetSearch(m.input.Value())
		return m, cmd

	case modeNewTask:
		switch msg.String() {
		case "esc":
			m.closePrompt("")
			return m, nil
		case "enter":
			content := m.input.Value()
			m.closePrompt("")
			task, err := m.engine.AddNewTaskToTree("", content)
			if err != nil {
				m.status = "add task: " + err.Error()
				return m, nil
			}
			m.status = "added " + task.Content
			return m, m.sync()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) openPrompt(mode inputMode, prompt, value string) tea.Cmd {
	m.mode = mode
	m.input = newPromptInput(prompt, value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closePrompt(status string) {
	m.mode = modeNone
	m.input.Blur()
	if status != "" {
		m.status = status
	}
}

func (m Model) handleNormalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading"
		return m, m.loadCmd(m.doc.ID)
	case key.Matches(msg, m.keys.save):
		m.status = "saving"
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.addTask):
		return m, m.openPrompt(modeNewTask, "new task: ", "")
	case key.Matches(msg, m.keys.search):
		return m, m.openPrompt(modeSearch, "search: ", m.engine.Search())
	case key.Matches(msg, m.keys.linkTasks):
		if err := m.engine.LinkSelectedTasks(); err != nil {
			m.status = "link: " + err.Error()
			return m, nil
		}
		m.status = "linked selection"
		return m, m.sync()
	case key.Matches(msg, m.keys.deleteTasks):
		return m.dispatch(interaction.Key{Name: interaction.KeyDelete})
	case key.Matches(msg, m.keys.duplicate):
		return m.dispatch(interaction.Key{Name: interaction.KeyDuplicate, Mod: interaction.Modifiers{Ctrl: true}})
	case key.Matches(msg, m.keys.cancel):
		m.status = ""
		return m.dispatch(interaction.Key{Name: interaction.KeyEscape})
	case key.Matches(msg, m.keys.copyTask):
		return m.copySelected()
	case key.Matches(msg, m.keys.toggleInfo):
		m.showInfo = !m.showInfo
		return m, nil
	case key.Matches(msg, m.keys.toggleLinks):
		s := m.engine.Settings()
		s.LinkMode = !s.LinkMode
		m.engine.SetSettings(s)
		m.status = "link mode " + onOff(s.LinkMode)
		return m, nil
	case key.Matches(msg, m.keys.editMode):
		return m.pressControl(hittest.ControlEditTree)
	case key.Matches(msg, m.keys.toggleScale):
		next := hittest.ScaleWeeks
		if m.engine.State().Scale == hittest.ScaleWeeks {
			next = hittest.ScaleDays
		}
		return m.pressAxis(next)
	case key.Matches(msg, m.keys.nextDoc):
		return m.nextDocument()
	case key.Matches(msg, m.keys.panLeft):
		return m.dispatch(interaction.Wheel{DeltaX: -wheelStep})
	case key.Matches(msg, m.keys.panRight):
		return m.dispatch(interaction.Wheel{DeltaX: wheelStep})
	case key.Matches(msg, m.keys.panUp):
		return m.dispatch(interaction.Wheel{DeltaY: -wheelStep})
	case key.Matches(msg, m.keys.panDown):
		return m.dispatch(interaction.Wheel{DeltaY: wheelStep})
	case key.Matches(msg, m.keys.zoomIn), key.Matches(msg, m.keys.zoomOut):
		delta := -1.0
		if key.Matches(msg, m.keys.zoomOut) {
			delta = 1
		}
		vp := m.engine.Viewport()
		return m.dispatch(interaction.Wheel{X: vp.Dims.SidebarWidth, Y: vp.Dims.HeaderHeight, DeltaY: delta, Mod: interaction.Modifiers{Ctrl: true}})
	case key.Matches(msg, m.keys.today):
		vp := m.engine.Viewport()
		today := m.cal.DayOf(m.clock())
		vp.OffsetX = -float64(today-2) * vp.ScaledDayWidth()
		m.engine.SetViewport(vp)
		return m, nil
	}
	return m, nil
}

// pressControl clicks the header toggle drawn for c in the last frame.
func (m Model) pressControl(c hittest.Control) (tea.Model, tea.Cmd) {
	hits := m.engine.Hits()
	if hits == nil {
		return m, nil
	}
	for _, b := range hits.Controls {
		if b.Control == c {
			return m.press(b.Rect)
		}
	}
	return m, nil
}

func (m Model) pressAxis(scale hittest.TimeScale) (tea.Model, tea.Cmd) {
	hits := m.engine.Hits()
	if hits == nil {
		return m, nil
	}
	for _, b := range hits.AxisButtons {
		if b.Scale == scale {
			return m.press(b.Rect)
		}
	}
	return m, nil
}

func (m Model) press(r hittest.Rect) (tea.Model, tea.Cmd) {
	x, y := r.Center()
	m.engine.HandleEvent(interaction.PointerDown{X: x, Y: y, Button: interaction.ButtonLeft, Clicks: 1})
	return m.dispatch(interaction.PointerUp{X: x, Y: y})
}

func (m Model) copySelected() (tea.Model, tea.Cmd) {
	sel := m.engine.Selected()
	if len(sel) == 0 {
		m.status = "copy: " + app.ErrNothingSelected.Error()
		return m, nil
	}
	lines := make([]string, 0, len(sel))
	m.engine.View().Walk(func(n domain.Node, _ int) bool {
		for _, t := range n.Tasks {
			if _, ok := sel[t.ID]; ok {
				lines = append(lines, taskClipboardText(t, m.cal))
			}
		}
		return true
	})
	if err := m.copy(strings.Join(lines, "\n")); err != nil {
		m.status = "copy failed: " + err.Error()
		m.logger.Warn("clipboard write failed", "err", err)
		return m, nil
	}
	m.status = fmt.Sprintf("copied %d task(s)", len(lines))
	return m, nil
}

func (m Model) nextDocument() (tea.Model, tea.Cmd) {
	if len(m.docs) < 2 {
		m.status = "no other plans"
		return m, nil
	}
	next := m.docs[0]
	for i, d := range m.docs {
		if d.ID == m.doc.ID {
			next = m.docs[(i+1)%len(m.docs)]
			break
		}
	}
	m.status = "opening " + next.Name
	return m, m.loadCmd(next.ID)
}

// canvasRows is the terminal height left for the canvas after the footer.
func (m Model) canvasRows() int {
	footer := 2
	if m.help.ShowAll {
		footer += len(m.keys.FullHelp())
	}
	if m.mode != modeNone {
		footer++
	}
	return max(m.height-footer, 1)
}

func (m Model) canvasCols() int {
	if m.infoVisible() {
		return max(m.width-infoPanelWidth, 1)
	}
	return max(m.width, 1)
}

func (m Model) infoVisible() bool {
	return m.showInfo && m.engine != nil && m.events.primary != nil
}

// canvasPoint maps a terminal cell to the canvas point under its centre.
func (m Model) canvasPoint(col, row int) (float64, float64, bool) {
	x, y := cellCenter(col, row)
	return x, y, col >= 0 && row >= 0 && col < m.canvasCols() && row < m.canvasRows()
}

func mouseModifiers(mod tea.KeyMod) interaction.Modifiers {
	return interaction.Modifiers{
		Shift: mod.Contains(tea.ModShift),
		Ctrl:  mod.Contains(tea.ModCtrl),
		Alt:   mod.Contains(tea.ModAlt),
		Meta:  mod.Contains(tea.ModMeta),
	}
}

// handleMouseClick handles mouse click.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil || m.help.ShowAll {
		return m, nil
	}
	x, y, ok := m.canvasPoint(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	var button interaction.Button
	switch msg.Button {
	case tea.MouseLeft:
		button = interaction.ButtonLeft
	case tea.MouseMiddle:
		button = interaction.ButtonMiddle
	case tea.MouseRight:
		button = interaction.ButtonRight
	default:
		return m, nil
	}

	now := m.clock()
	clicks := 1
	if m.lastClick.col == msg.X && m.lastClick.row == msg.Y && now.Sub(m.lastClick.at) <= doubleClickWindow {
		clicks = 2
	}
	m.lastClick = clickState{col: msg.X, row: msg.Y, at: now}
	if m.mode != modeNone && m.mode != modeEdit {
		m.closePrompt("")
	}
	return m.dispatch(interaction.PointerDown{X: x, Y: y, Button: button, Clicks: clicks, Mod: mouseModifiers(msg.Mod)})
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil || m.help.ShowAll {
		return m, nil
	}
	x, y, _ := m.canvasPoint(msg.X, msg.Y)
	ev := interaction.Wheel{X: x, Y: y, Mod: mouseModifiers(msg.Mod)}
	switch msg.Button {
	case tea.MouseWheelUp:
		ev.DeltaY = -wheelStep
	case tea.MouseWheelDown:
		ev.DeltaY = wheelStep
	case tea.MouseWheelLeft:
		ev.DeltaX = -wheelStep
	case tea.MouseWheelRight:
		ev.DeltaX = wheelStep
	default:
		return m, nil
	}
	return m.dispatch(ev)
}

// View renders the canvas, the optional info panel and the footer.
func (m Model) View() tea.View {
	var content string
	switch {
	case m.engine == nil && m.err != nil:
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render("error: " + m.err.Error())
	case m.engine == nil:
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("loading…")
	default:
		content = m.renderBoard()
	}
	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeAllMotion
	v.AltScreen = true
	return v
}

func (m Model) renderBoard() string {
	rows := m.canvasRows()
	canvas := newCellCanvas(m.canvasCols(), rows)
	m.engine.Render(canvas)
	body := canvas.String()
	if m.infoVisible() {
		md := taskInfoMarkdown(m.engine.View(), m.events.primary.ID, m.cal, m.clock())
		panel := lipgloss.NewStyle().
			Width(infoPanelWidth).
			Height(rows).
			MaxHeight(rows).
			Padding(0, 1).
			Render(m.md.render(md, infoPanelWidth-2))
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, panel)
	}

	lines := []string{body}
	if m.mode != modeNone {
		lines = append(lines, m.input.View())
	}
	lines = append(lines, m.statusLine(), m.help.View(m.keys))
	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	name := m.doc.Name
	if m.dirty {
		name += "*"
	}
	state := m.engine.State()
	parts := []string{accent.Render(name)}
	if state.EditMode {
		parts = append(parts, "edit")
	}
	if m.engine.Settings().LinkMode {
		parts = append(parts, "link")
	}
	if n := m.events.selected; n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	parts = append(parts, muted.Render(fmt.Sprintf("zoom %.0f%%", state.Viewport.Zoom*100)))
	if m.err != nil {
		parts = append(parts, errStyle.Render(m.err.Error()))
	} else if m.status != "" {
		parts = append(parts, muted.Render(m.status))
	}
	return truncate(strings.Join(parts, " · "), max(m.width, 1))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// truncate cuts s to at most width display cells.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

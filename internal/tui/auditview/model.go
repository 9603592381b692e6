package auditview

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/hook"
)

// Panel represents which panel has focus
type Panel int

const (
	PanelList Panel = iota
	PanelDetail
)

// Loader returns every audit entry, oldest first.
type Loader func() ([]audit.Entry, error)

// Model is the bubbletea model for the audit viewer.
type Model struct {
	width  int
	height int

	focused Panel
	list    viewport.Model
	detail  viewport.Model

	load    Loader
	entries []audit.Entry
	visible []audit.Entry
	cursor  int
	err     error

	// Filters
	stage       hook.Stage
	blockedOnly bool

	keys     KeyMap
	help     help.Model
	showHelp bool
}

// NewModel creates a viewer that reads entries through load.
func NewModel(load Loader) *Model {
	h := help.New()
	h.ShowAll = false

	return &Model{
		focused: PanelList,
		list:    viewport.New(0, 0),
		detail:  viewport.New(0, 0),
		load:    load,
		keys:    DefaultKeyMap(),
		help:    h,
	}
}

// SetStage restricts the view to one stage. The empty stage shows all.
func (m *Model) SetStage(s hook.Stage) {
	m.stage = s
	m.applyFilter()
}

// SetBlockedOnly restricts the view to blocked entries.
func (m *Model) SetBlockedOnly(on bool) {
	m.blockedOnly = on
	m.applyFilter()
}

// loadedMsg carries the result of a reload.
type loadedMsg struct {
	entries []audit.Entry
	err     error
}

// Init starts the first load.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.reload(),
		tea.SetWindowTitle("hookguard audit"),
	)
}

func (m *Model) reload() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		if load == nil {
			return loadedMsg{}
		}
		entries, err := load()
		return loadedMsg{entries: entries, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewportSizes()
		return m, nil

	case loadedMsg:
		// A failed reload keeps whatever is already on screen.
		m.err = msg.err
		if msg.err == nil || msg.entries != nil {
			m.entries = msg.entries
		}
		m.applyFilter()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.updateViewportSizes()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.focused == PanelList {
			m.focused = PanelDetail
		} else {
			m.focused = PanelList
		}
		return m, nil

	case key.Matches(msg, m.keys.Stage):
		m.stage = nextStage(m.stage)
		m.applyFilter()
		return m, nil

	case key.Matches(msg, m.keys.Blocked):
		m.blockedOnly = !m.blockedOnly
		m.applyFilter()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.reload()
	}

	if m.focused == PanelDetail {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-max(1, m.list.Height))
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(max(1, m.list.Height))
	case key.Matches(msg, m.keys.Top):
		m.moveCursor(-len(m.visible))
	case key.Matches(msg, m.keys.Bottom):
		m.moveCursor(len(m.visible))
	}
	return m, nil
}

// nextStage cycles all → each stage in lifecycle order → all.
func nextStage(cur hook.Stage) hook.Stage {
	stages := hook.AllStages()
	if cur == "" {
		return stages[0]
	}
	for i, s := range stages {
		if s == cur && i+1 < len(stages) {
			return stages[i+1]
		}
	}
	return ""
}

// applyFilter recomputes the visible entries, newest first, and keeps the
// cursor on the same entry when it survives the filter.
func (m *Model) applyFilter() {
	var selectedID string
	if sel, ok := m.Selected(); ok {
		selectedID = sel.ID
	}

	q := audit.Query{Stage: m.stage, BlockedOnly: m.blockedOnly}
	m.visible = m.visible[:0]
	for i := len(m.entries) - 1; i >= 0; i-- {
		if q.Match(m.entries[i]) {
			m.visible = append(m.visible, m.entries[i])
		}
	}

	m.cursor = 0
	for i, e := range m.visible {
		if e.ID == selectedID {
			m.cursor = i
			break
		}
	}
	m.updateViewContent()
}

func (m *Model) moveCursor(delta int) {
	if len(m.visible) == 0 {
		m.cursor = 0
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.visible)-1)
	m.updateViewContent()
}

// Selected returns the entry under the cursor.
func (m *Model) Selected() (audit.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return audit.Entry{}, false
	}
	return m.visible[m.cursor], true
}

// updateViewportSizes recalculates viewport dimensions
func (m *Model) updateViewportSizes() {
	// header (1) + status bar (1) + help + borders (4 for 2 panels)
	helpHeight := 1
	if m.showHelp {
		helpHeight = 4
	}
	available := m.height - 2 - helpHeight - 4
	if available < 6 {
		available = 6
	}

	listHeight := available * 40 / 100
	if listHeight < 3 {
		listHeight = 3
	}
	detailHeight := available - listHeight

	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	m.list.Width = contentWidth
	m.list.Height = listHeight
	m.detail.Width = contentWidth
	m.detail.Height = detailHeight

	m.updateViewContent()
}

func (m *Model) updateViewContent() {
	m.list.SetContent(m.renderList())
	if m.list.Height > 0 {
		switch {
		case m.cursor < m.list.YOffset:
			m.list.SetYOffset(m.cursor)
		case m.cursor >= m.list.YOffset+m.list.Height:
			m.list.SetYOffset(m.cursor - m.list.Height + 1)
		}
	}
	m.detail.SetContent(m.renderDetail())
	m.detail.GotoTop()
}

// View renders the TUI
func (m *Model) View() string {
	return m.render()
}

package auditview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/ui"
)

const listTime = "01-02 15:04:05"

func (m *Model) render() string {
	if m.width == 0 {
		return "Loading..."
	}

	listStyle, detailStyle := PanelStyle, PanelStyle
	if m.focused == PanelList {
		listStyle = FocusedPanelStyle
	} else {
		detailStyle = FocusedPanelStyle
	}

	sections := []string{
		m.renderHeader(),
		listStyle.Width(m.width - 2).Render(m.list.View()),
		detailStyle.Width(m.width - 2).Render(m.detail.View()),
		m.renderStatus(),
		m.help.View(m.keys),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	stage := "all"
	if m.stage != "" {
		stage = string(m.stage)
	}
	blocked := "off"
	if m.blockedOnly {
		blocked = "on"
	}
	filters := FilterStyle.Render(fmt.Sprintf("stage: %s  blocked only: %s", stage, blocked))
	return HeaderStyle.Render("hookguard audit") + " " + filters
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("%s %v", ui.IconWarn, m.err))
	}
	return StatusBarStyle.Render(fmt.Sprintf("%d of %d entries", len(m.visible), len(m.entries)))
}

func (m *Model) renderList() string {
	if len(m.visible) == 0 {
		return TimestampStyle.Render("No audit entries.")
	}
	lines := make([]string, len(m.visible))
	for i, e := range m.visible {
		line := listLine(e)
		if i == m.cursor {
			line = SelectedStyle.Render(line)
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

func listLine(e audit.Entry) string {
	verdict := AllowedStyle.Render(ui.IconPass)
	if e.Blocked {
		verdict = BlockedStyle.Render(ui.IconBlock)
	}
	parts := []string{
		TimestampStyle.Render(e.Timestamp.Local().Format(listTime)),
		verdict,
		StageStyle.Render(fmt.Sprintf("%-16s", e.Stage)),
		shortID(e.SessionID),
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		return string(r[:8])
	}
	return id
}

func (m *Model) renderDetail() string {
	e, ok := m.Selected()
	if !ok {
		return ""
	}

	var sb strings.Builder
	field := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(LabelStyle.Render(label))
		sb.WriteString(value)
		sb.WriteString("\n")
	}
	field("id", e.ID)
	field("time", e.Timestamp.Local().Format("2006-01-02 15:04:05.000"))
	field("session", e.SessionID)
	field("stage", string(e.Stage))
	if e.Blocked {
		field("verdict", BlockedStyle.Render("blocked"))
	} else {
		field("verdict", AllowedStyle.Render("allowed"))
	}
	field("reason", e.Reason)
	if e.Success != nil {
		field("success", fmt.Sprint(*e.Success))
	}
	field("source", e.Source)
	field("message", e.Message)

	sb.WriteString("\n")
	sb.WriteString(prettyJSON(e.Payload))
	return sb.String()
}

// prettyJSON indents raw for display, falling back to the raw bytes.
func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

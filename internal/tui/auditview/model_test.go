package auditview

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/hook"
)

func sampleEntries() []audit.Entry {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []audit.Entry{
		{ID: "e1", Timestamp: base, SessionID: "sess-a", Stage: hook.StageSessionStart, Payload: []byte(`{"source":"startup"}`), Source: "startup"},
		{ID: "e2", Timestamp: base.Add(time.Minute), SessionID: "sess-a", Stage: hook.StagePreToolUse, Payload: []byte(`{"tool_name":"Bash"}`), Blocked: true, Reason: "Dangerous command pattern detected: rm -rf /"},
		{ID: "e3", Timestamp: base.Add(2 * time.Minute), SessionID: "sess-b", Stage: hook.StageStop, Payload: []byte(`{}`), Message: "✅ Done"},
	}
}

func loaded(t *testing.T, entries []audit.Entry) *Model {
	t.Helper()
	m := NewModel(func() ([]audit.Entry, error) { return entries, nil })
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	msg := m.reload()()
	m.Update(msg)
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_NewestFirst(t *testing.T) {
	m := loaded(t, sampleEntries())

	if len(m.visible) != 3 {
		t.Fatalf("visible = %d, want 3", len(m.visible))
	}
	sel, ok := m.Selected()
	if !ok || sel.ID != "e3" {
		t.Errorf("selected = %+v, want the newest entry", sel)
	}

	m.Update(keyMsg("down"))
	if sel, _ := m.Selected(); sel.ID != "e2" {
		t.Errorf("after down selected %s, want e2", sel.ID)
	}
	m.Update(keyMsg("G"))
	if sel, _ := m.Selected(); sel.ID != "e1" {
		t.Errorf("after G selected %s, want e1", sel.ID)
	}
	m.Update(keyMsg("down"))
	if m.cursor != 2 {
		t.Errorf("cursor moved past the end: %d", m.cursor)
	}
}

func TestModel_Filters(t *testing.T) {
	m := loaded(t, sampleEntries())

	m.Update(keyMsg("b"))
	if len(m.visible) != 1 || m.visible[0].ID != "e2" {
		t.Errorf("blocked only = %+v", m.visible)
	}
	m.Update(keyMsg("b"))

	m.Update(keyMsg("s"))
	if m.stage != hook.StageSessionStart || len(m.visible) != 1 {
		t.Errorf("stage %q shows %d entries", m.stage, len(m.visible))
	}
	for range hook.AllStages() {
		m.Update(keyMsg("s"))
	}
	if m.stage != "" || len(m.visible) != 3 {
		t.Errorf("cycling back: stage %q shows %d entries", m.stage, len(m.visible))
	}
}

func TestModel_FilterKeepsSelection(t *testing.T) {
	m := loaded(t, sampleEntries())
	m.Update(keyMsg("down"))
	m.SetBlockedOnly(true)
	if sel, _ := m.Selected(); sel.ID != "e2" {
		t.Errorf("selection lost: %s", sel.ID)
	}
}

func TestModel_DetailShowsPayload(t *testing.T) {
	m := loaded(t, sampleEntries())
	m.Update(keyMsg("down"))

	detail := m.renderDetail()
	for _, want := range []string{"e2", "sess-a", "blocked", "rm -rf /", `"tool_name": "Bash"`} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail missing %q:\n%s", want, detail)
		}
	}
}

func TestModel_TabScrollsDetail(t *testing.T) {
	m := loaded(t, sampleEntries())
	m.Update(keyMsg("tab"))
	if m.focused != PanelDetail {
		t.Fatal("tab did not focus the detail panel")
	}
	m.Update(keyMsg("down"))
	if sel, _ := m.Selected(); sel.ID != "e3" {
		t.Errorf("down in the detail panel moved the list cursor to %s", sel.ID)
	}
}

func TestModel_LoadError(t *testing.T) {
	m := loaded(t, sampleEntries())
	m.Update(loadedMsg{err: errors.New("audit log unavailable")})

	if len(m.entries) != 3 {
		t.Errorf("failed reload dropped entries: %d left", len(m.entries))
	}
	if !strings.Contains(m.View(), "audit log unavailable") {
		t.Error("error not shown")
	}
}

func TestModel_EmptyAndQuit(t *testing.T) {
	m := loaded(t, nil)
	if !strings.Contains(m.View(), "No audit entries.") {
		t.Error("empty list placeholder missing")
	}
	if _, ok := m.Selected(); ok {
		t.Error("Selected on an empty list")
	}

	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

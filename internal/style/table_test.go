package style

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestTable_Render(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	tbl := NewTable(
		Column{Name: "STAGE", Width: 12},
		Column{Name: "N", Width: 3, Align: AlignRight},
		Column{Name: "REASON", Width: 10},
	).SetIndent("")
	tbl.AddRow("Stop", "7", "")
	tbl.AddRow("PreToolUse", "12", "Dangerous command pattern")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), strings.Join(lines, "\n"))
	}
	if lines[0] != "STAGE          N REASON" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "───") {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[2] != "Stop           7" {
		t.Errorf("row 1 = %q", lines[2])
	}
	if lines[3] != "PreToolUse    12 Dangerous…" {
		t.Errorf("row 2 = %q", lines[3])
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d", tbl.Len())
	}
}

func TestTable_NoSeparator(t *testing.T) {
	out := NewTable(Column{Name: "A", Width: 2}).SetHeaderSeparator(false).Render()
	if strings.Contains(out, "─") {
		t.Errorf("separator rendered: %q", out)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"toolong", 5, "tool…"},
		{"fastighetsmäklare", 8, "fastigh…"},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestPad_WideRunes(t *testing.T) {
	got := pad("✓", 3, AlignLeft)
	if lipgloss.Width(got) != 3 {
		t.Errorf("pad width = %d, want 3 (%q)", lipgloss.Width(got), got)
	}
}

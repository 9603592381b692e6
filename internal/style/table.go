package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column with name and width.
type Column struct {
	Name  string
	Width int
	Align Alignment
	// Style, when set, is applied to each cell after truncation.
	Style *lipgloss.Style
}

// Alignment specifies column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// Table provides styled table rendering.
type Table struct {
	columns     []Column
	rows        [][]string
	headerSep   bool
	indent      string
	headerStyle lipgloss.Style
}

// NewTable creates a new table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{
		columns:     columns,
		headerSep:   true,
		indent:      "  ",
		headerStyle: Bold,
	}
}

// SetIndent sets the left indent for the table.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// SetHeaderSeparator enables/disables the header separator line.
func (t *Table) SetHeaderSeparator(enabled bool) *Table {
	t.headerSep = enabled
	return t
}

// AddRow adds a row of values to the table.
func (t *Table) AddRow(values ...string) *Table {
	for len(values) < len(t.columns) {
		values = append(values, "")
	}
	t.rows = append(t.rows, values)
	return t
}

// Len returns the number of rows added so far.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the formatted table string.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}

	var sb strings.Builder

	header := make([]string, len(t.columns))
	for i, col := range t.columns {
		header[i] = t.headerStyle.Render(col.Name)
	}
	t.writeLine(&sb, header)

	if t.headerSep {
		total := 0
		for i, col := range t.columns {
			total += col.Width
			if i < len(t.columns)-1 {
				total++
			}
		}
		sb.WriteString(t.indent)
		sb.WriteString(Dim.Render(strings.Repeat("─", total)))
		sb.WriteString("\n")
	}

	for _, row := range t.rows {
		cells := make([]string, len(t.columns))
		for i, col := range t.columns {
			cells[i] = Truncate(row[i], col.Width)
			if col.Style != nil {
				cells[i] = col.Style.Render(cells[i])
			}
		}
		t.writeLine(&sb, cells)
	}

	return sb.String()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string) {
	var line strings.Builder
	line.WriteString(t.indent)
	for i, col := range t.columns {
		if i > 0 {
			line.WriteString(" ")
		}
		line.WriteString(pad(cells[i], col.Width, col.Align))
	}
	sb.WriteString(strings.TrimRight(line.String(), " "))
	sb.WriteString("\n")
}

// Truncate shortens s to at most width terminal cells, ending in "…" when
// anything was cut. Styling in s is dropped if it has to be cut.
func Truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	plain := []rune(stripAnsi(s))
	var sb strings.Builder
	used := 0
	for _, r := range plain {
		w := lipgloss.Width(string(r))
		if used+w > width-1 {
			break
		}
		sb.WriteRune(r)
		used += w
	}
	sb.WriteString("…")
	return sb.String()
}

// pad pads text to width display cells. ANSI sequences and wide runes are
// measured with lipgloss.Width.
func pad(text string, width int, align Alignment) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := width - w

	switch align {
	case AlignRight:
		return strings.Repeat(" ", padding) + text
	case AlignCenter:
		left := padding / 2
		return strings.Repeat(" ", left) + text + strings.Repeat(" ", padding-left)
	default:
		return text + strings.Repeat(" ", padding)
	}
}

// stripAnsi removes ANSI escape sequences from a string.
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1b' {
			inEscape = true
			continue
		}
		if inEscape {
			if s[i] == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteByte(s[i])
	}
	return result.String()
}

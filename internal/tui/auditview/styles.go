// Package auditview is an interactive browser over the hookguard audit logs.
package auditview

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/maklarsystem/hookguard/internal/ui"
)

var (
	colorPrimary = ui.ColorAccent
	colorSuccess = ui.ColorPass
	colorError   = ui.ColorFail
	colorDim     = ui.ColorMuted
	colorStage   = ui.ColorStage
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Padding(0, 1)

	FilterStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	FocusedPanelStyle = PanelStyle.
				BorderForeground(colorPrimary)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	StageStyle = lipgloss.NewStyle().
			Foreground(colorStage)

	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Reverse(true)

	BlockedStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	AllowedStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(10)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)
)

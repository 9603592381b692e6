// Package ui provides terminal styling for hookguard's operator commands.
// Uses the Ayu color theme with adaptive light/dark mode support.
//
// Hook stages never use this package: their stdout is read by the agent and
// stays plain text.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	if !ShouldUseColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	} else {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// ApplyThemeMode applies the theme mode settings to lipgloss.
// Call after InitTheme.
func ApplyThemeMode() {
	if !ShouldUseColor() {
		return
	}
	lipgloss.SetHasDarkBackground(HasDarkBackground())
}

// Ayu theme color palette
// Dark: https://terminalcolors.com/themes/ayu/dark/
// Light: https://terminalcolors.com/themes/ayu/light/
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300", // ayu light bright green
		Dark:  "#c2d94c", // ayu dark bright green
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49", // ayu light bright yellow
		Dark:  "#ffb454", // ayu dark bright yellow
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171", // ayu light bright red
		Dark:  "#f07178", // ayu dark bright red
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6", // ayu light bright blue
		Dark:  "#59c2ff", // ayu dark bright blue
	}
	// ColorStage tints stage names in listings.
	ColorStage = lipgloss.AdaptiveColor{
		Light: "#a37acc",
		Dark:  "#d2a6ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	StageStyle  = lipgloss.NewStyle().Foreground(ColorStage)
	BoldStyle   = lipgloss.NewStyle().Bold(true)

	// CommandStyle is used for command and flag names in help output.
	CommandStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#5c6166",
		Dark:  "#bfbdb6",
	})
)

// Status icons.
const (
	IconPass  = "✓"
	IconWarn  = "⚠"
	IconFail  = "✖"
	IconBlock = "⛔"
	IconInfo  = "ℹ"
)

// SeparatorLight is a thin rule for section breaks.
const SeparatorLight = "──────────────────────────────────────────"

func RenderPass(s string) string    { return PassStyle.Render(s) }
func RenderWarn(s string) string    { return WarnStyle.Render(s) }
func RenderFail(s string) string    { return FailStyle.Render(s) }
func RenderMuted(s string) string   { return MutedStyle.Render(s) }
func RenderAccent(s string) string  { return AccentStyle.Render(s) }
func RenderBold(s string) string    { return BoldStyle.Render(s) }
func RenderCommand(s string) string { return CommandStyle.Render(s) }
func RenderStage(s string) string   { return StageStyle.Render(s) }

// RenderSeparator renders a muted section rule.
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderVerdict renders the audit verdict column.
func RenderVerdict(blocked bool) string {
	if blocked {
		return FailStyle.Render(IconBlock + " blocked")
	}
	return PassStyle.Render(IconPass + " allowed")
}

// RenderSuccess renders a PostToolUse success flag. Nil renders as "-".
func RenderSuccess(ok *bool) string {
	switch {
	case ok == nil:
		return MutedStyle.Render("-")
	case *ok:
		return PassStyle.Render(IconPass)
	default:
		return FailStyle.Render(IconFail)
	}
}

package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/maklarsystem/hookguard/internal/ui"
	"github.com/spf13/cobra"
)

var (
	// group header lines such as "Hook Handlers:"
	groupHeaderRE = regexp.MustCompile(`(?m)^([A-Z][A-Za-z &]+:)\s*$`)
	// section headers in subcommand help
	sectionHeaderRE = regexp.MustCompile(`(?m)^(Examples|Flags|Usage|Global Flags|Aliases|Available Commands|Additional Commands):`)
	// "  command   Description text"
	cmdLineRE = regexp.MustCompile(`(?m)^(  )([a-z][a-z0-9]*(?:-[a-z0-9]+)*)(\s{2,})(.*)$`)
	// "  -f, --file string   Description"
	flagLineRE = regexp.MustCompile(`(?m)^(\s+)(-\w,\s+--[\w-]+|--[\w-]+)(\s+)(string|int|duration|bool)?(\s*.*)$`)
	defaultRE  = regexp.MustCompile(`(\(default[^)]*\))`)
	// 'hookguard install' style references
	cmdRefRE = regexp.MustCompile(`'([a-z][a-z0-9 <>-]+)'`)
)

// colorizedHelpFunc prints Cobra's help with accent-colored headers and
// highlighted command and flag names.
func colorizedHelpFunc(cmd *cobra.Command, args []string) {
	var output strings.Builder

	if cmd.Long != "" {
		output.WriteString(cmd.Long)
		output.WriteString("\n\n")
	} else if cmd.Short != "" {
		output.WriteString(cmd.Short)
		output.WriteString("\n\n")
	}
	output.WriteString(cmd.UsageString())

	fmt.Fprint(cmd.OutOrStdout(), colorizeHelpOutput(output.String()))
}

func colorizeHelpOutput(help string) string {
	result := groupHeaderRE.ReplaceAllStringFunc(help, func(match string) string {
		return ui.RenderAccent(strings.TrimSpace(match))
	})

	result = sectionHeaderRE.ReplaceAllStringFunc(result, ui.RenderAccent)

	result = cmdLineRE.ReplaceAllStringFunc(result, func(match string) string {
		parts := cmdLineRE.FindStringSubmatch(match)
		if len(parts) != 5 {
			return match
		}
		return parts[1] + ui.RenderCommand(parts[2]) + parts[3] + colorizeCommandRefs(parts[4])
	})

	result = flagLineRE.ReplaceAllStringFunc(result, func(match string) string {
		parts := flagLineRE.FindStringSubmatch(match)
		if len(parts) < 6 {
			return match
		}
		indent, flags, spacing, typeStr := parts[1], parts[2], parts[3], parts[4]
		desc := defaultRE.ReplaceAllStringFunc(parts[5], ui.RenderMuted)

		if typeStr != "" {
			return indent + ui.RenderCommand(flags) + spacing + ui.RenderMuted(typeStr) + desc
		}
		return indent + ui.RenderCommand(flags) + spacing + desc
	})

	return result
}

// colorizeCommandRefs styles 'quoted command' references in descriptions.
func colorizeCommandRefs(text string) string {
	return cmdRefRE.ReplaceAllStringFunc(text, func(match string) string {
		inner := match[1 : len(match)-1]
		return "'" + ui.RenderCommand(inner) + "'"
	})
}

func init() {
	rootCmd.SetHelpFunc(colorizedHelpFunc)
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/style"
	"github.com/maklarsystem/hookguard/internal/ui"
	"github.com/spf13/cobra"
)

// Rules check flags
var (
	checkTool    string
	checkCommand string
	checkPath    string
	checkPrompt  string
)

var rulesCmd = &cobra.Command{
	Use:     "rules",
	GroupID: GroupInspect,
	Short:   "Inspect and try the active rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the active rule set",
	Long: `Print the active rule set: the built-in rules, or rules_file when set.

Command rules are case-insensitive regular expressions. Path and prompt
rules are case-insensitive substrings.`,
	Args: cobra.NoArgs,
	RunE: runRulesList,
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run the rule engine on a command, path or prompt",
	Long: `Dry-run the rule engine without recording anything.

Exits 2 when the input would be blocked.

Examples:
  hookguard rules check --command 'rm -rf /'
  hookguard rules check --tool Write --path .env.local
  hookguard rules check --prompt 'delete all records'`,
	Args: cobra.NoArgs,
	RunE: runRulesCheck,
}

func init() {
	f := rulesCheckCmd.Flags()
	f.StringVar(&checkTool, "tool", "Bash", "Tool name (Bash, Write, Edit, MultiEdit, Read)")
	f.StringVar(&checkCommand, "command", "", "Shell command to check")
	f.StringVar(&checkPath, "path", "", "File path to check")
	f.StringVar(&checkPrompt, "prompt", "", "Prompt text to check")
	rulesCheckCmd.MarkFlagsMutuallyExclusive("command", "prompt")
	rulesCheckCmd.MarkFlagsMutuallyExclusive("path", "prompt")

	rulesCmd.AddCommand(rulesListCmd, rulesCheckCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	rs := e.engine().Rules()
	out := cmd.OutOrStdout()

	width := ui.TerminalWidth(100)
	for i, l := range rs.Lists() {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s %s\n", style.Bold.Render(string(l.Name)), style.Dim.Render(fmt.Sprintf("(%d)", len(l.Rules))))
		t := style.NewTable(
			style.Column{Name: "NAME", Width: 22},
			style.Column{Name: "PATTERN", Width: 30, Style: &ui.CommandStyle},
			style.Column{Name: "REASON", Width: max(20, width-2-22-1-30-1)},
		)
		for _, r := range l.Rules {
			t.AddRow(r.Name, r.Pattern, r.Reason)
		}
		fmt.Fprint(out, t.Render())
	}
	if src := e.cfg.RulesPath(e.workDir); src != "" {
		fmt.Fprintf(out, "\n%s %s\n", style.Dim.Render("from"), src)
	}
	return nil
}

func runRulesCheck(cmd *cobra.Command, args []string) error {
	if checkCommand == "" && checkPath == "" && checkPrompt == "" {
		return errors.New("one of --command, --path or --prompt is required")
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	var ev hook.Event
	if checkPrompt != "" {
		ev = hook.NewPromptSubmit("rules-check", checkPrompt)
	} else {
		ev = hook.NewToolUse(hook.StagePreToolUse, "rules-check", checkTool,
			hook.ToolInput{Command: checkCommand, FilePath: checkPath})
	}

	v := e.engine().Classify(ev)
	out := cmd.OutOrStdout()
	if v.Block {
		fmt.Fprintf(out, "%s %s %s\n", ui.RenderFail(ui.IconBlock+" blocked"),
			style.Dim.Render(fmt.Sprintf("[%s %s]", v.Kind, v.Rule)), v.Reason)
		return NewSilentExit(hook.ExitBlock)
	}
	fmt.Fprintf(out, "%s allowed\n", style.SuccessPrefix)
	for _, a := range v.Advisories {
		fmt.Fprintf(out, "%s %s\n", style.WarningPrefix, a)
	}
	return nil
}

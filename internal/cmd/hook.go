package cmd

import (
	"fmt"

	"github.com/maklarsystem/hookguard/internal/dispatch"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/spf13/cobra"
)

// Hook command flags
var hookOpts dispatch.Options

var hookCmd = &cobra.Command{
	Use:     "hook",
	GroupID: GroupHooks,
	Short:   "Handle one lifecycle event from the host agent",
	Long: `Handle one lifecycle event from the host agent.

The event is read as a JSON object from stdin. Every event is appended to
<log_dir>/<stage>.json. Text on stdout is shown to the agent; on a block
the reason goes to stderr and the command exits 2.

These commands are meant to be registered with 'hookguard install'.`,
}

var hookStageHelp = map[hook.Stage]string{
	hook.StageSessionStart: "Record a new, resumed or cleared session and print the project banner",
	hook.StagePromptSubmit: "Record a prompt, optionally validate it, and inject domain context",
	hook.StagePreToolUse:   "Block dangerous tool calls before they run",
	hook.StagePostToolUse:  "Record a tool's outcome and print follow-up advice",
	hook.StageStop:         "Record the end of a turn and print a completion message",
}

func init() {
	for _, stage := range hook.AllStages() {
		hookCmd.AddCommand(newHookStageCmd(stage))
	}
	rootCmd.AddCommand(hookCmd)
}

func newHookStageCmd(stage hook.Stage) *cobra.Command {
	c := &cobra.Command{
		Use:   stage.CommandName(),
		Short: hookStageHelp[stage],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, stage)
		},
	}

	switch stage {
	case hook.StagePromptSubmit:
		c.Flags().BoolVar(&hookOpts.Validate, "validate", false, "Block prompts containing dangerous phrases")
		c.Flags().BoolVar(&hookOpts.ForceContext, "context", false, "Always print the domain glossary")
		c.Flags().BoolVar(&hookOpts.LogOnly, "log-only", false, "Only record the prompt (overrides --validate)")
	case hook.StageStop:
		c.Flags().BoolVar(&hookOpts.Chat, "chat", false, "Report where the session was logged")
	}
	return c
}

func runHook(cmd *cobra.Command, stage hook.Stage) error {
	e, err := loadEnv(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "hookguard: %v\n", err)
		return NewSilentExit(hook.ExitBadInput)
	}

	code := e.dispatcher(cmd).Run(cmd.Context(), stage, cmd.InOrStdin(), hookOpts)
	if code != hook.ExitAllow {
		return NewSilentExit(code)
	}
	return nil
}

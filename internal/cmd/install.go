package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/maklarsystem/hookguard/internal/claude"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/style"
	"github.com/spf13/cobra"
)

// Install command flags
var (
	installDir      string
	installBinary   string
	installValidate bool
	installChat     bool
	installForce    bool
	installCheck    bool
)

var installCmd = &cobra.Command{
	Use:     "install",
	GroupID: GroupSetup,
	Short:   "Register hookguard in the project's .claude/settings.json",
	Long: `Register a hookguard hook command for every lifecycle stage in
<dir>/.claude/settings.json.

Other settings and other hooks are kept. Earlier hookguard registrations
are replaced, so it is safe to run again after changing flags.

Examples:
  hookguard install
  hookguard install --validate --chat
  hookguard install --check         # Exit 1 unless every stage is registered`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	f := installCmd.Flags()
	f.StringVar(&installDir, "dir", ".", "Project directory")
	f.StringVar(&installBinary, "binary", "hookguard", "Command the host agent runs")
	f.BoolVar(&installValidate, "validate", false, "Validate prompts (adds --validate to prompt-submit)")
	f.BoolVar(&installChat, "chat", false, "Report the log location on stop (adds --chat)")
	f.BoolVar(&installForce, "force", false, "Replace a settings file that cannot be parsed")
	f.BoolVar(&installCheck, "check", false, "Only report which stages are registered")

	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if installCheck {
		got, err := claude.Installed(installDir, installBinary)
		if err != nil {
			return err
		}
		missing := 0
		for _, s := range hook.AllStages() {
			if got[s] {
				fmt.Fprintf(out, "%s %s\n", style.SuccessPrefix, s)
			} else {
				missing++
				fmt.Fprintf(out, "%s %s %s\n", style.ErrorPrefix, s, style.Dim.Render("not registered"))
			}
		}
		if missing > 0 {
			return NewSilentExit(1)
		}
		return nil
	}

	res, err := claude.Install(installDir, claude.Options{
		Binary:   installBinary,
		Validate: installValidate,
		Chat:     installChat,
		Force:    installForce,
	})
	if err != nil {
		return err
	}

	path := res.Path
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if !res.Changed {
		fmt.Fprintf(out, "%s %s is already up to date\n", style.Dim.Render("○"), path)
		return nil
	}
	fmt.Fprintf(out, "%s Registered hookguard hooks in %s\n", style.SuccessPrefix, path)
	for _, s := range hook.AllStages() {
		fmt.Fprintf(out, "  %s %s\n", style.ArrowPrefix, claude.Commands(claude.Options{
			Binary: installBinary, Validate: installValidate, Chat: installChat,
		})[s])
	}
	return nil
}

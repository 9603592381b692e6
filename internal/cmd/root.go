// Package cmd implements the hookguard command tree.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/maklarsystem/hookguard/internal/advisor"
	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/collab"
	"github.com/maklarsystem/hookguard/internal/config"
	"github.com/maklarsystem/hookguard/internal/dispatch"
	"github.com/maklarsystem/hookguard/internal/logging"
	"github.com/maklarsystem/hookguard/internal/rules"
	"github.com/maklarsystem/hookguard/internal/style"
	"github.com/maklarsystem/hookguard/internal/ui"
	"github.com/spf13/cobra"
)

// Command groups shown in help.
const (
	GroupHooks   = "hooks"
	GroupInspect = "inspect"
	GroupSetup   = "setup"
)

// Global flags
var (
	flagConfig   string
	flagLogDir   string
	flagLogLevel string
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "hookguard",
	Short: "Guard and audit an AI coding agent's lifecycle hooks",
	Long: `hookguard sits between an AI coding agent and the machine it works on.

The agent runs 'hookguard hook <stage>' at each lifecycle event and pipes
the event as JSON on stdin. hookguard records every event in an audit log,
blocks dangerous shell commands and writes to sensitive files, and prints
project context for the agent to read.

Exit codes for hook commands: 0 proceed, 2 block, 1 malformed input.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupHooks, Title: "Hook Handlers:"},
		&cobra.Group{ID: GroupInspect, Title: "Inspection:"},
		&cobra.Group{ID: GroupSetup, Title: "Setup:"},
	)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default .hookguard.toml in the working directory)")
	pf.StringVar(&flagLogDir, "log-dir", "", "Audit log directory (overrides log_dir)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Shorthand for --log-level=debug")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := IsSilentExit(err); ok {
			return code
		}
		fmt.Fprintf(os.Stderr, "%s %v\n", style.ErrorPrefix, err)
		return 1
	}
	return 0
}

// env is the resolved per-invocation environment shared by commands.
type env struct {
	cfg     *config.Config
	workDir string
	logger  *slog.Logger
}

// loadEnv resolves config and flags, then sets up logging and the theme.
func loadEnv(cmd *cobra.Command) (*env, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{WorkDir: wd, Path: flagConfig})
	if err != nil {
		return nil, err
	}
	if flagLogDir != "" {
		cfg.LogDir = flagLogDir
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if flagVerbose {
		level = "debug"
	}

	logger := logging.Setup(cmd.ErrOrStderr(), level)
	for _, w := range cfg.Warnings {
		logger.Warn("config", "problem", w)
	}
	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}
	ui.InitTheme(cfg.Theme)

	return &env{cfg: cfg, workDir: wd, logger: logger}, nil
}

func (e *env) logDir() string {
	return e.cfg.LogPath(e.workDir)
}

func (e *env) store() *audit.FileStore {
	return audit.NewFileStore(e.logDir(), e.cfg.Audit.LockTimeout.Duration, e.logger)
}

// engine loads rules_file, falling back to the built-in rules if it is broken.
func (e *env) engine() *rules.Engine {
	rs, err := rules.Resolve(e.cfg.RulesPath(e.workDir))
	if err != nil {
		e.logger.Warn("using built-in rules", "error", err)
	}
	return rules.NewEngine(rs)
}

func (e *env) command(argv []string) collab.Command {
	return collab.Command{Argv: argv, Dir: e.workDir, Timeout: e.cfg.External.Timeout.Duration}
}

// dispatcher wires the stage handlers to the real collaborators.
func (e *env) dispatcher(cmd *cobra.Command) *dispatch.Dispatcher {
	d := &dispatch.Dispatcher{
		Config:    e.cfg,
		Engine:    e.engine(),
		Store:     e.store(),
		Advisor:   advisor.New(e.cfg),
		Announcer: collab.Silent{},
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Logger:    e.logger,
		WorkDir:   e.workDir,
		LogDir:    e.cfg.LogDir,
	}
	if argv := e.cfg.Session.VCSCommand; len(argv) > 0 {
		d.VCS = collab.GitStatus{Command: e.command(argv)}
	}
	if argv := e.cfg.Session.TrackerCommand; len(argv) > 0 {
		d.Tracker = collab.TaskMaster{Command: e.command(argv)}
	}
	if argv := e.cfg.Stop.AnnounceCommand; e.cfg.Stop.Announce && len(argv) > 0 {
		d.Announcer = collab.SayAnnouncer{Command: e.command(argv)}
	}
	return d
}

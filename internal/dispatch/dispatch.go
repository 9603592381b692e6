// Package dispatch runs one hook invocation: decode stdin, consult the rule
// engine and advisor, record the audit entry and write the stage's output.
//
// Hook exit codes are the host agent's contract:
//
//	0  proceed (stdout may be shown to the agent as context)
//	2  block the action; stderr explains why
//	1  malformed input
//
// Only PreToolUse and, when validation is on, PromptSubmit ever return 2.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/maklarsystem/hookguard/internal/advisor"
	"github.com/maklarsystem/hookguard/internal/audit"
	"github.com/maklarsystem/hookguard/internal/collab"
	"github.com/maklarsystem/hookguard/internal/config"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/logging"
	"github.com/maklarsystem/hookguard/internal/rules"
)

// isoTime matches the timestamps operators already see in the session logs.
const isoTime = "2006-01-02T15:04:05.000000"

// Options are the per-invocation switches set by command-line flags.
type Options struct {
	// Validate enables prompt validation in addition to prompt.validate.
	Validate bool
	// ForceContext prints the domain glossary regardless of keywords.
	ForceContext bool
	// LogOnly disables prompt validation, overriding Validate and config.
	LogOnly bool
	// Chat reports where the session was logged on Stop.
	Chat bool
}

// Dispatcher holds everything a stage needs. Nil collaborators are replaced
// with inert defaults on first use.
type Dispatcher struct {
	Config    *config.Config
	Engine    *rules.Engine
	Store     audit.Store
	Advisor   *advisor.Advisor
	VCS       collab.VersionControl
	Tracker   collab.TaskTracker
	Announcer collab.Announcer

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Now    func() time.Time

	// WorkDir is where checklist artifacts are looked up.
	WorkDir string
	// LogDir is the directory reported by Stop --chat.
	LogDir string
}

func (d *Dispatcher) init() {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Engine == nil {
		d.Engine = rules.NewEngine(nil)
	}
	if d.Advisor == nil {
		d.Advisor = advisor.New(d.Config)
	}
	if d.Announcer == nil {
		d.Announcer = collab.Silent{}
	}
	if d.Stdout == nil {
		d.Stdout = io.Discard
	}
	if d.Stderr == nil {
		d.Stderr = io.Discard
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.LogDir == "" {
		d.LogDir = d.Config.LogDir
	}
}

// Run decodes one event for stage from stdin and handles it.
func (d *Dispatcher) Run(ctx context.Context, stage hook.Stage, stdin io.Reader, opts Options) int {
	d.init()
	ev, err := hook.Read(stage, stdin)
	if err != nil {
		fmt.Fprintf(d.Stderr, "Failed to parse input JSON: %v\n", err)
		d.Logger.Debug("rejected hook input", "stage", stage, "error", err)
		return hook.ExitBadInput
	}
	return d.Handle(ctx, ev, opts)
}

// Handle runs the stage handler for an already decoded event.
func (d *Dispatcher) Handle(ctx context.Context, ev hook.Event, opts Options) int {
	d.init()
	d.Logger.Debug("hook", "stage", ev.Stage(), "session", ev.Session())
	return d.settle(ev.Stage(), d.handle(ctx, ev, opts))
}

func (d *Dispatcher) handle(ctx context.Context, ev hook.Event, opts Options) int {
	switch ev := ev.(type) {
	case *hook.SessionStart:
		return d.SessionStart(ctx, ev)
	case *hook.PromptSubmit:
		return d.PromptSubmit(ctx, ev, opts)
	case *hook.ToolUse:
		if ev.Stage() == hook.StagePreToolUse {
			return d.PreToolUse(ctx, ev)
		}
		return d.PostToolUse(ctx, ev)
	case *hook.Stop:
		return d.Stop(ctx, ev, opts)
	}
	fmt.Fprintf(d.Stderr, "unsupported hook event %T\n", ev)
	return hook.ExitBadInput
}

// settle downgrades a block from a stage the host cannot block on.
func (d *Dispatcher) settle(stage hook.Stage, code int) int {
	if code == hook.ExitBlock && !stage.CanBlock() {
		d.Logger.Warn("block from non-blocking stage ignored", "stage", stage)
		return hook.ExitAllow
	}
	return code
}

// record appends e to the audit log. A failed append never changes the
// verdict; it is reported on stderr and in the diagnostic log.
func (d *Dispatcher) record(ctx context.Context, e audit.Entry) {
	if d.Store == nil {
		return
	}
	if err := d.Store.Append(ctx, e); err != nil {
		fmt.Fprintf(d.Stderr, "⚠ audit log unavailable: %v\n", err)
		d.Logger.Warn("audit append failed", "stage", e.Stage, "session", e.SessionID, "error", err)
	}
}

func (d *Dispatcher) entry(ev hook.Event) audit.Entry {
	return audit.NewEntry(ev, d.Now())
}

// say writes lines to stdout, which the host shows to the agent.
func (d *Dispatcher) say(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(d.Stdout, l)
	}
}

// warn writes lines to stderr.
func (d *Dispatcher) warn(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(d.Stderr, l)
	}
}

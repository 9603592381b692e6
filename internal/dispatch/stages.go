package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/maklarsystem/hookguard/internal/collab"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/rules"
)

var errNotConfigured = errors.New("not configured")

// Fallback text for external status lines.
const (
	vcsClean       = "Clean working directory"
	vcsUnavailable = "Not a git repository"
	tasksNone      = "No pending tasks"
	tasksNoTracker = "Task Master not available"
)

const rephrase = "Please rephrase your request more specifically."

// SessionStart records the session and prints a banner for its source.
// It never blocks.
func (d *Dispatcher) SessionStart(ctx context.Context, ev *hook.SessionStart) int {
	e := d.entry(ev)
	e.Source = ev.Source
	d.record(ctx, e)

	now := d.Now().Format(isoTime)
	project := d.Config.ProjectName

	switch ev.Source {
	case hook.SourceStartup:
		d.say(
			fmt.Sprintf("=== %s Development Session Started ===", project),
			"Session ID: "+ev.Session(),
			"Time: "+now,
			"",
			"📋 Project Status:",
		)
		for _, item := range d.Advisor.Checklist(d.WorkDir) {
			if item.Present {
				d.say(fmt.Sprintf("✓ %s exists", item.Path))
			} else {
				d.say(fmt.Sprintf("✗ %s missing", item.Path))
			}
		}
		d.say("", "🔀 Git Status:", d.vcsStatus(ctx).Or(vcsClean, vcsUnavailable))
		d.say("", "📝 Task Master:", d.nextTask(ctx).Or(tasksNone, tasksNoTracker))
		if tips := d.Advisor.Tips(); len(tips) > 0 {
			d.say("", "💡 Tips:")
			for _, tip := range tips {
				d.say("• " + tip)
			}
		}
		d.say("===========================================")
	case hook.SourceResume:
		d.say(
			fmt.Sprintf("=== Resuming %s Session ===", project),
			"Session resumed at: "+now,
			"=====================================",
		)
	case hook.SourceClear:
		d.say(
			"=== Session Cleared ===",
			"Starting fresh context",
			"======================",
		)
	}
	return hook.ExitAllow
}

func (d *Dispatcher) vcsStatus(ctx context.Context) collab.Result {
	if d.VCS == nil {
		return collab.Result{Err: errNotConfigured}
	}
	r := d.VCS.Status(ctx)
	if r.Err != nil {
		d.Logger.Debug("vcs status failed", "error", r.Err)
	}
	return r
}

func (d *Dispatcher) nextTask(ctx context.Context) collab.Result {
	if d.Tracker == nil {
		return collab.Result{Err: errNotConfigured}
	}
	r := d.Tracker.Next(ctx)
	if r.Err != nil {
		d.Logger.Debug("task tracker failed", "error", r.Err)
	}
	return r
}

// PromptSubmit validates the prompt when enabled and injects domain context.
func (d *Dispatcher) PromptSubmit(ctx context.Context, ev *hook.PromptSubmit, opts Options) int {
	validate := (opts.Validate || d.Config.Prompt.Validate) && !opts.LogOnly
	if validate {
		if v := d.Engine.Classify(ev); v.Block {
			d.record(ctx, d.entry(ev).Block(v.Reason))
			d.warn("⚠️  "+v.Reason, rephrase)
			return hook.ExitBlock
		}
	}

	d.record(ctx, d.entry(ev))

	if opts.ForceContext || d.Config.Prompt.InjectContext || d.Advisor.ShouldInjectContext(ev.Prompt) {
		if glossary := d.Advisor.DomainContext(); glossary != "" {
			d.say("", strings.TrimRight(glossary, "\n"), "")
		}
		d.say("Timestamp: "+d.Now().Format(isoTime), "---")
	}
	if tip := d.Advisor.TaskTip(ev.Prompt); tip != "" {
		d.say(tip)
	}
	return hook.ExitAllow
}

// PreToolUse blocks dangerous tool calls before they run.
func (d *Dispatcher) PreToolUse(ctx context.Context, ev *hook.ToolUse) int {
	v := d.Engine.Classify(ev)
	if v.Block {
		d.record(ctx, d.entry(ev).Block(v.Reason))
		d.warn("🚫 BLOCKED: " + v.Reason)
		if v.Kind == rules.KindPolicy {
			d.warn("This database operation requires manual review.")
		} else {
			d.warn("Tool: "+ev.ToolName, "This operation has been blocked for security reasons.")
		}
		return hook.ExitBlock
	}

	for _, a := range v.Advisories {
		d.warn("⚠️  " + a)
	}
	d.record(ctx, d.entry(ev))
	d.say(d.Advisor.CommandReminders(ev)...)
	return hook.ExitAllow
}

// PostToolUse records the tool's outcome and prints follow-up advice.
// It never blocks.
func (d *Dispatcher) PostToolUse(ctx context.Context, ev *hook.ToolUse) int {
	d.record(ctx, d.entry(ev).WithSuccess(ev.Response.Success))
	d.say(d.Advisor.ToolResultAdvisories(ev)...)
	return hook.ExitAllow
}

// Stop records the end of a turn and prints a completion message. When the
// host is already continuing because of a stop hook it stays silent.
func (d *Dispatcher) Stop(ctx context.Context, ev *hook.Stop, opts Options) int {
	e := d.entry(ev)
	if ev.Active {
		d.record(ctx, e)
		return hook.ExitAllow
	}

	msg := d.Advisor.CompletionMessage()
	e.Message = msg
	d.record(ctx, e)

	rule := strings.Repeat("=", 50)
	d.say("", rule, msg, d.Advisor.NextStep(), rule, "")

	if d.Config.Stop.Announce {
		if err := d.Announcer.Announce(ctx, msg); err != nil {
			d.Logger.Debug("announce failed", "error", err)
		}
	}
	if opts.Chat {
		d.say(fmt.Sprintf("📝 Session logged to %s/", strings.TrimRight(d.LogDir, "/")))
	}
	return hook.ExitAllow
}

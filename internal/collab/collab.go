// Package collab wraps the external tools hooks consult on a best-effort
// basis: version control, the task tracker and speech output. No failure
// here ever changes a hook's verdict.
package collab

import (
	"context"
	"strings"
	"time"

	"github.com/maklarsystem/hookguard/internal/util"
)

// DefaultTimeout bounds a single external call.
const DefaultTimeout = 2 * time.Second

// Result is the outcome of a best-effort call.
type Result struct {
	Output string
	Err    error
}

// Or returns the output, empty when the call succeeded with no output, or
// failed when it did not succeed.
func (r Result) Or(empty, failed string) string {
	if r.Err != nil {
		return failed
	}
	if strings.TrimSpace(r.Output) == "" {
		return empty
	}
	return r.Output
}

// VersionControl reports working tree state.
type VersionControl interface {
	Status(ctx context.Context) Result
}

// TaskTracker reports the next pending task.
type TaskTracker interface {
	Next(ctx context.Context) Result
}

// Announcer speaks text aloud.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// Command is an argv run in Dir, bounded by Timeout.
type Command struct {
	Argv    []string
	Dir     string
	Timeout time.Duration
}

// Run executes the command with extra arguments appended.
func (c Command) Run(ctx context.Context, extra ...string) Result {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	out, err := util.ExecWithOutputContext(ctx, c.Dir, c.argv(extra)...)
	return Result{Output: out, Err: err}
}

// Exec is Run for commands whose output is not wanted.
func (c Command) Exec(ctx context.Context, extra ...string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return util.ExecRunContext(ctx, c.Dir, c.argv(extra)...)
}

func (c Command) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (c Command) argv(extra []string) []string {
	return append(append([]string(nil), c.Argv...), extra...)
}

// GitStatus reports `git status --porcelain` or the configured equivalent.
type GitStatus struct{ Command }

// Status implements VersionControl.
func (g GitStatus) Status(ctx context.Context) Result { return g.Run(ctx) }

// TaskMaster reports `task-master next` or the configured equivalent.
type TaskMaster struct{ Command }

// Next implements TaskTracker.
func (t TaskMaster) Next(ctx context.Context) Result { return t.Run(ctx) }

// SayAnnouncer speaks text with `say` or the configured equivalent. The
// text is passed as the final argument.
type SayAnnouncer struct{ Command }

// Announce implements Announcer.
func (s SayAnnouncer) Announce(ctx context.Context, text string) error {
	return s.Exec(ctx, text)
}

// Silent is an Announcer that does nothing.
type Silent struct{}

// Announce implements Announcer.
func (Silent) Announce(context.Context, string) error { return nil }

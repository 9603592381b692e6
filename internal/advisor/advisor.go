// Package advisor produces the non-blocking text hooks show the agent:
// domain glossary, task tips, reminders and completion messages.
//
// All keyword matching is lexical: NFC-normalized, lowercased containment.
package advisor

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/maklarsystem/hookguard/internal/config"
	"github.com/maklarsystem/hookguard/internal/hook"
	"github.com/maklarsystem/hookguard/internal/util"
)

// Tool result advisories.
const (
	AdviceCommandFailed  = "❌ Command may have failed - check output"
	AdviceSupabaseRLS    = "📌 Supabase command executed - verify RLS policies"
	AdviceRunMigrations  = "📌 Remember to run migrations: supabase db push"
	AdviceEnvModified    = "⚠️  Environment file modified - restart services if needed"
	AdviceDatabaseDone   = "💾 Database operation completed"
	AdviceTestAfterwards = "Remember to test affected features"
)

const fallbackCompletion = "✅ Done"

// Advisor holds the configured texts and keyword sets.
type Advisor struct {
	prompt    config.PromptConfig
	session   config.SessionConfig
	reminders []config.Reminder
	stop      config.StopConfig

	rng *rand.Rand
	now func() time.Time
}

// Option customizes an Advisor.
type Option func(*Advisor)

// WithRand makes message selection deterministic.
func WithRand(r *rand.Rand) Option {
	return func(a *Advisor) { a.rng = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Advisor) { a.now = now }
}

// New returns an advisor over cfg.
func New(cfg *config.Config, opts ...Option) *Advisor {
	a := &Advisor{
		prompt:    cfg.Prompt,
		session:   cfg.Session,
		reminders: cfg.Tool.Reminders,
		stop:      cfg.Stop,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ShouldInjectContext reports whether prompt mentions a domain keyword.
func (a *Advisor) ShouldInjectContext(prompt string) bool {
	return util.ContainsAnyFold(prompt, a.prompt.ContextKeywords) != ""
}

// DomainContext returns the glossary block.
func (a *Advisor) DomainContext() string {
	return a.prompt.Glossary
}

// TaskTip returns the task-tracker tip when prompt mentions a task, else "".
func (a *Advisor) TaskTip(prompt string) string {
	if a.prompt.TaskTip == "" || util.ContainsAnyFold(prompt, a.prompt.TaskKeywords) == "" {
		return ""
	}
	return a.prompt.TaskTip
}

// CompletionMessage picks one configured completion message at random.
func (a *Advisor) CompletionMessage() string {
	msgs := a.stop.Messages
	if len(msgs) == 0 {
		return fallbackCompletion
	}
	var i int
	if a.rng != nil {
		i = a.rng.IntN(len(msgs))
	} else {
		i = rand.IntN(len(msgs))
	}
	return msgs[i]
}

// NextStep suggests what to do next based on the local hour.
func (a *Advisor) NextStep() string {
	switch hour := a.now().Hour(); {
	case hour < 12:
		return a.stop.Morning
	case hour < 17:
		return a.stop.Afternoon
	default:
		return a.stop.Evening
	}
}

// ChecklistItem is one expected project artifact.
type ChecklistItem struct {
	Path    string
	Present bool
}

// Checklist reports which configured artifacts exist under workDir.
func (a *Advisor) Checklist(workDir string) []ChecklistItem {
	items := make([]ChecklistItem, 0, len(a.session.Checklist))
	for _, p := range a.session.Checklist {
		full := p
		if !filepath.IsAbs(p) {
			full = filepath.Join(workDir, p)
		}
		_, err := os.Stat(full)
		items = append(items, ChecklistItem{Path: p, Present: err == nil})
	}
	return items
}

// Tips returns the session tips.
func (a *Advisor) Tips() []string {
	return a.session.Tips
}

// CommandReminders returns the reminders for an allowed shell command.
func (a *Advisor) CommandReminders(ev *hook.ToolUse) []string {
	if !ev.IsShell() || ev.Input.Command == "" {
		return nil
	}
	var out []string
	for _, r := range a.reminders {
		if r.Contains != "" && r.Message != "" && util.ContainsFold(ev.Input.Command, r.Contains) {
			out = append(out, r.Message)
		}
	}
	return out
}

// ToolResultAdvisories inspects a completed tool call.
func (a *Advisor) ToolResultAdvisories(ev *hook.ToolUse) []string {
	var out []string
	resp := ev.Response

	if resp.Text != "" && util.ContainsFold(resp.Text, "error") {
		out = append(out, AdviceCommandFailed)
	}
	if util.ContainsFold(resp.Text, "supabase") || util.ContainsFold(ev.ToolName, "supabase") {
		out = append(out, AdviceSupabaseRLS)
	}

	switch ev.ToolName {
	case "Write", "Edit":
		if util.ContainsFold(resp.FilePath, "migration") {
			out = append(out, AdviceRunMigrations)
		}
		if util.ContainsFold(resp.FilePath, ".env") {
			out = append(out, AdviceEnvModified)
		}
	case "Bash":
		cmd := ev.Input.Command
		if util.ContainsFold(cmd, "supabase db") || util.ContainsFold(cmd, "psql") {
			out = append(out, AdviceDatabaseDone, AdviceTestAfterwards)
		}
	}
	return out
}

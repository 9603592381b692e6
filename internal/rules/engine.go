package rules

import (
	"github.com/maklarsystem/hookguard/internal/hook"
)

// Kind identifies which check produced a Block.
type Kind string

const (
	KindNone             Kind = ""
	KindDangerousCommand Kind = "dangerous-command"
	KindPolicy           Kind = "policy"
	KindSensitivePath    Kind = "sensitive-path"
	KindDangerousPrompt  Kind = "dangerous-prompt"
)

// Violation is a single rule match.
type Violation struct {
	Kind   Kind
	Rule   string
	Reason string
	Match  string
}

// Verdict is the engine's decision for one event. An Allow verdict may carry
// advisories; a Block verdict carries exactly one reason.
type Verdict struct {
	Block      bool
	Kind       Kind
	Rule       string
	Reason     string
	Advisories []string
}

// Allow is the zero-advisory allow verdict.
func Allow() Verdict { return Verdict{} }

func blockFor(v *Violation) Verdict {
	return Verdict{Block: true, Kind: v.Kind, Rule: v.Rule, Reason: v.Reason}
}

// Engine evaluates events against an immutable RuleSet.
type Engine struct {
	rules *RuleSet
}

// NewEngine returns an engine over rs, or over the built-in rules if rs is nil.
func NewEngine(rs *RuleSet) *Engine {
	if rs == nil {
		rs = Default()
	}
	return &Engine{rules: rs}
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() *RuleSet { return e.rules }

// Classify decides whether ev may proceed. Only PreToolUse and PromptSubmit
// can block; every other stage is Allow.
func (e *Engine) Classify(ev hook.Event) Verdict {
	switch ev := ev.(type) {
	case *hook.ToolUse:
		if ev.Stage() != hook.StagePreToolUse {
			return Allow()
		}
		return e.classifyTool(ev)
	case *hook.PromptSubmit:
		if v := e.CheckPrompt(ev.Prompt); v != nil {
			return blockFor(v)
		}
	}
	return Allow()
}

func (e *Engine) classifyTool(ev *hook.ToolUse) Verdict {
	switch {
	case ev.IsShell():
		// Both passes always run; either one blocks.
		danger := e.CheckCommand(ev.Input.Command)
		policy := e.CheckPolicy(ev.Input.Command)
		if danger != nil {
			return blockFor(danger)
		}
		if policy != nil {
			return blockFor(policy)
		}
	case ev.IsFileMutation():
		if v := e.CheckWritePath(ev.Input.FilePath); v != nil {
			return blockFor(v)
		}
	case ev.IsFileRead():
		return Verdict{Advisories: e.CheckReadPath(ev.Input.FilePath)}
	}
	return Allow()
}

// CheckCommand returns the first dangerous-command rule matching cmd.
func (e *Engine) CheckCommand(cmd string) *Violation {
	return firstMatch(KindDangerousCommand, e.rules.DangerousCommand, cmd)
}

// CheckPolicy returns the first security-policy rule matching cmd.
func (e *Engine) CheckPolicy(cmd string) *Violation {
	return firstMatch(KindPolicy, e.rules.Policy, cmd)
}

// CheckWritePath returns the first sensitive-path rule contained in path.
func (e *Engine) CheckWritePath(path string) *Violation {
	return firstMatch(KindSensitivePath, e.rules.SensitivePath, path)
}

// CheckReadPath returns warnings for reading path. Reads never block.
func (e *Engine) CheckReadPath(path string) []string {
	if path == "" {
		return nil
	}
	for i := range e.rules.SensitiveRead {
		r := &e.rules.SensitiveRead[i]
		if _, ok := r.Match(path); ok {
			return []string{r.Explain(path)}
		}
	}
	return nil
}

// CheckPrompt returns the first dangerous-prompt phrase contained in prompt.
func (e *Engine) CheckPrompt(prompt string) *Violation {
	return firstMatch(KindDangerousPrompt, e.rules.DangerousPrompt, prompt)
}

func firstMatch(kind Kind, list []Rule, input string) *Violation {
	if input == "" {
		return nil
	}
	for i := range list {
		r := &list[i]
		if m, ok := r.Match(input); ok {
			return &Violation{Kind: kind, Rule: r.Name, Reason: r.Explain(m), Match: m}
		}
	}
	return nil
}
